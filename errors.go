package folio

import (
	"errors"
	"fmt"
)

// ErrNoHolding is returned when a dividend or fee targets a symbol that has
// no holding yet.
var ErrNoHolding = errors.New("no holding")

// ValidationError reports a malformed transaction. It is raised before any
// holding is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InsufficientHoldingError reports a sell larger than the quantity held.
// Held is zero when there is no holding at all.
type InsufficientHoldingError struct {
	Symbol    string
	Held      Quantity
	Requested Quantity
}

func (e *InsufficientHoldingError) Error() string {
	return fmt.Sprintf("cannot sell %s %s: only %s held", e.Requested, e.Symbol, e.Held)
}
