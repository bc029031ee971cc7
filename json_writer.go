package folio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// jsonObjectWriter builds a JSON object whose keys keep the order they were
// appended in. Its zero value is ready to use.
type jsonObjectWriter struct {
	bytes.Buffer
	err error
}

// Append adds key with value marshaled by encoding/json.
func (w *jsonObjectWriter) Append(key string, value any) *jsonObjectWriter {
	if w.err != nil {
		return w
	}
	raw, err := json.Marshal(value)
	if err != nil {
		w.err = fmt.Errorf("marshaling %q: %w", key, err)
		return w
	}
	k, _ := json.Marshal(key)
	w.Write(k)
	w.WriteByte(':')
	w.Write(raw)
	w.WriteByte(',')
	return w
}

// Optional is like Append but skips zero values. Types with an IsZero method
// (Money, Quantity, time.Time) are checked with it.
func (w *jsonObjectWriter) Optional(key string, value any) *jsonObjectWriter {
	if w.err != nil {
		return w
	}
	if z, ok := value.(interface{ IsZero() bool }); ok {
		if z.IsZero() {
			return w
		}
		return w.Append(key, value)
	}
	v := reflect.ValueOf(value)
	if !v.IsValid() || v.IsZero() {
		return w
	}
	return w.Append(key, value)
}

// MarshalJSON closes the object.
func (w *jsonObjectWriter) MarshalJSON() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	content := bytes.TrimSuffix(w.Bytes(), []byte(","))
	out := make([]byte, 0, len(content)+2)
	out = append(out, '{')
	out = append(out, content...)
	return append(out, '}'), nil
}
