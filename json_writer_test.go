package folio

import (
	"errors"
	"testing"
	"time"
)

type failingMarshaler struct{}

func (failingMarshaler) MarshalJSON() ([]byte, error) { return nil, errors.New("boom") }

func TestJsonObjectWriter(t *testing.T) {
	t.Run("empty object", func(t *testing.T) {
		var w jsonObjectWriter
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := "{}"; string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("keeps order", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("z", 1).Append("a", "hello").Append("m", true)
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := `{"z":1,"a":"hello","m":true}`; string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("optional fields", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("a", 0)
		w.Optional("b", "")
		w.Optional("c", Q(0))
		w.Optional("d", M(0, "USD"))
		w.Optional("e", time.Time{})
		w.Optional("f", Q(2))
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := `{"a":0,"f":2}`; string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("error sticks", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("a", failingMarshaler{}).Append("b", 1)
		if _, err := w.MarshalJSON(); err == nil {
			t.Fatal("expected an error")
		}
	})
}
