// Package activity keeps a short log of the user's actions, newest first,
// some of which can be undone.
package activity

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/etnz/folio"
	"github.com/etnz/folio/internal/jsonfile"
)

// MaxRecords is the number of records kept; older ones are dropped.
const MaxRecords = 50

var (
	ErrNotFound      = errors.New("activity record not found")
	ErrNotUndoable   = errors.New("activity record cannot be undone")
	ErrNothingToUndo = errors.New("nothing to undo")
)

type Kind string

const (
	KindAddTransaction    Kind = "add_transaction"
	KindRemoveTransaction Kind = "remove_transaction"
	KindAddPlan           Kind = "add_plan"
	KindRemovePlan        Kind = "remove_plan"
	KindAddAlert          Kind = "add_alert"
	KindRemoveAlert       Kind = "remove_alert"
)

// Entry is what happened. The variants are the types of this package
// implementing it.
type Entry interface {
	Kind() Kind
	// Undoable reports whether the action can be reverted.
	Undoable() bool
	String() string
	isEntry()
}

type AddTransaction struct {
	Tx folio.Transaction `json:"tx"`
}

type RemoveTransaction struct {
	Tx folio.Transaction `json:"tx"`
}

type AddPlan struct {
	PlanID string `json:"planId"`
	Symbol string `json:"symbol"`
}

type RemovePlan struct {
	PlanID string `json:"planId"`
	Symbol string `json:"symbol"`
}

type AddAlert struct {
	AlertID string `json:"alertId"`
	Symbol  string `json:"symbol"`
}

type RemoveAlert struct {
	AlertID string `json:"alertId"`
	Symbol  string `json:"symbol"`
}

func (AddTransaction) Kind() Kind    { return KindAddTransaction }
func (RemoveTransaction) Kind() Kind { return KindRemoveTransaction }
func (AddPlan) Kind() Kind           { return KindAddPlan }
func (RemovePlan) Kind() Kind        { return KindRemovePlan }
func (AddAlert) Kind() Kind          { return KindAddAlert }
func (RemoveAlert) Kind() Kind       { return KindRemoveAlert }

func (AddTransaction) Undoable() bool    { return true }
func (RemoveTransaction) Undoable() bool { return true }
func (AddPlan) Undoable() bool           { return false }
func (RemovePlan) Undoable() bool        { return false }
func (AddAlert) Undoable() bool          { return false }
func (RemoveAlert) Undoable() bool       { return false }

func (e AddTransaction) String() string    { return "recorded " + e.Tx.String() }
func (e RemoveTransaction) String() string { return "removed " + e.Tx.String() }
func (e AddPlan) String() string           { return "added DCA plan on " + e.Symbol }
func (e RemovePlan) String() string        { return "removed DCA plan on " + e.Symbol }
func (e AddAlert) String() string          { return "added alert on " + e.Symbol }
func (e RemoveAlert) String() string       { return "removed alert on " + e.Symbol }

func (AddTransaction) isEntry()    {}
func (RemoveTransaction) isEntry() {}
func (AddPlan) isEntry()           {}
func (RemovePlan) isEntry()        {}
func (AddAlert) isEntry()          {}
func (RemoveAlert) isEntry()       {}

// Record is an entry in the log.
type Record struct {
	ID      string
	Time    time.Time
	CanUndo bool
	Entry   Entry
}

type recordJSON struct {
	ID      string          `json:"id"`
	Time    time.Time       `json:"time"`
	Kind    Kind            `json:"kind"`
	CanUndo bool            `json:"canUndo"`
	Entry   json.RawMessage `json:"entry"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	entry, err := json.Marshal(r.Entry)
	if err != nil {
		return nil, err
	}
	return json.Marshal(recordJSON{ID: r.ID, Time: r.Time, Kind: r.Entry.Kind(), CanUndo: r.CanUndo, Entry: entry})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var entry Entry
	var err error
	switch raw.Kind {
	case KindAddTransaction:
		entry, err = decode[AddTransaction](raw.Entry)
	case KindRemoveTransaction:
		entry, err = decode[RemoveTransaction](raw.Entry)
	case KindAddPlan:
		entry, err = decode[AddPlan](raw.Entry)
	case KindRemovePlan:
		entry, err = decode[RemovePlan](raw.Entry)
	case KindAddAlert:
		entry, err = decode[AddAlert](raw.Entry)
	case KindRemoveAlert:
		entry, err = decode[RemoveAlert](raw.Entry)
	default:
		return fmt.Errorf("unknown activity kind %q", raw.Kind)
	}
	if err != nil {
		return fmt.Errorf("decoding %s: %w", raw.Kind, err)
	}
	*r = Record{ID: raw.ID, Time: raw.Time, CanUndo: raw.CanUndo, Entry: entry}
	return nil
}

func decode[E Entry](data []byte) (Entry, error) {
	var e E
	err := json.Unmarshal(data, &e)
	return e, err
}

// Log is the activity log. It is persisted to a JSON file when it has a
// path. It is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	path    string
	records []Record // newest first
	now     func() time.Time
}

// New returns an empty in-memory log.
func New() *Log { return &Log{now: time.Now} }

// Open loads the log stored at path, if any.
func Open(path string) (*Log, error) {
	l := &Log{path: path, now: time.Now}
	if err := jsonfile.Read(path, &l.records); err != nil {
		return nil, fmt.Errorf("loading activity log: %w", err)
	}
	return l, nil
}

func (l *Log) save() error {
	if l.path == "" {
		return nil
	}
	return jsonfile.Write(l.path, l.records)
}

// Add records e as the newest entry.
func (l *Log) Add(e Entry) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := Record{ID: uuid.NewString(), Time: l.now(), CanUndo: e.Undoable(), Entry: e}
	l.records = append([]Record{r}, l.records...)
	if len(l.records) > MaxRecords {
		l.records = l.records[:MaxRecords]
	}
	return r, l.save()
}

// Recent returns at most n records, newest first. n <= 0 returns them all.
func (l *Log) Recent(n int) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.records) {
		n = len(l.records)
	}
	out := make([]Record, n)
	copy(out, l.records)
	return out
}

// MarkUndone flags the record id as no longer undoable.
func (l *Log) MarkUndone(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.records {
		if l.records[i].ID != id {
			continue
		}
		if !l.records[i].CanUndo {
			return fmt.Errorf("%s: %w", id, ErrNotUndoable)
		}
		l.records[i].CanUndo = false
		return l.save()
	}
	return fmt.Errorf("%s: %w", id, ErrNotFound)
}

// LastUndoable returns the newest record that can still be undone.
func (l *Log) LastUndoable() (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		if r.CanUndo {
			return r, nil
		}
	}
	return Record{}, ErrNothingToUndo
}

// Clear empties the log.
func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
	return l.save()
}
