// Package date handles calendar days, with no time of day and no zone.
package date

import (
	"encoding/json"
	"fmt"
	"time"
)

const readDateFormat = "2006-1-2" // Permissive read date format (allows single-digit month/day).

// DateFormat is the ISO-8601 layout used to write dates.
const DateFormat = "2006-01-02"

// Date is a calendar day.
type Date struct {
	y int
	m time.Month
	d int
}

// time returns midnight UTC of that day.
func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// New returns a normalized Date: New(2025, time.January, 32) is February 1st.
func New(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// Of returns the day t falls on, in t's location.
func Of(t time.Time) Date { return New(t.Date()) }

// Today returns the current local date.
func Today() Date { return Of(time.Now()) }

func (d Date) Year() int             { return d.y }
func (d Date) Month() time.Month     { return d.m }
func (d Date) Day() int              { return d.d }
func (d Date) Weekday() time.Weekday { return d.time().Weekday() }
func (d Date) IsZero() bool          { return d == Date{} }
func (d Date) Equal(x Date) bool     { return d == x }

// Before reports whether the day d is before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether the day d is after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// Add returns d moved by i days.
func (d Date) Add(i int) Date { return New(d.y, d.m, d.d+i) }

// AddMonths returns d moved by n months. Days past the end of the target
// month overflow into the next one: January 31st plus one month is March
// 3rd (or 2nd in leap years).
func (d Date) AddMonths(n int) Date { return New(d.y, d.m+time.Month(n), d.d) }

// At returns the instant of that day at the given hour in loc.
func (d Date) At(hour int, loc *time.Location) time.Time {
	return time.Date(d.y, d.m, d.d, hour, 0, 0, 0, loc)
}

// String formats the date as 2006-01-02.
func (d Date) String() string { return d.time().Format(DateFormat) }

// Parse parses a Date from a string. It is lenient and accepts formats like "2025-7-1".
func Parse(str string) (Date, error) {
	on, err := time.Parse(readDateFormat, str)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q want format %q: %w", str, readDateFormat, err)
	}
	return Of(on), nil
}

// MustParse is like Parse but panics on error.
func MustParse(str string) Date {
	d, err := Parse(str)
	if err != nil {
		panic(err.Error())
	}
	return d
}

func (d *Date) UnmarshalJSON(bytes []byte) error {
	var str string
	if err := json.Unmarshal(bytes, &str); err != nil {
		return err
	}
	parsed, err := Parse(str)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

var _ json.Marshaler = (*Date)(nil)
var _ json.Unmarshaler = (*Date)(nil)
