package folio

import "time"

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// day returns midnight UTC of the given day of January 2025.
func day(d int) time.Time { return time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC) }

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
