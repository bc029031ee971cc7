package alert

import (
	"errors"
	"fmt"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
)

// Notification is something worth telling the user. The variants are the
// types of this package implementing it.
type Notification interface {
	Kind() string
	Message() string
	isNotification()
}

// PriceAlert is a triggered alert.
type PriceAlert struct {
	Alert Alert
	Price folio.Money
}

// PlanDue is a dollar-cost averaging plan that ran.
type PlanDue struct {
	PlanID string
	Symbol string
	On     date.Date
}

// InsufficientHolding is a rejected sell.
type InsufficientHolding struct {
	Symbol    string
	Held      folio.Quantity
	Requested folio.Quantity
}

func (PriceAlert) Kind() string          { return "price_alert" }
func (PlanDue) Kind() string             { return "plan_due" }
func (InsufficientHolding) Kind() string { return "insufficient_holding" }

func (n PriceAlert) Message() string {
	msg := fmt.Sprintf("%s is %s %s at %s", n.Alert.Symbol, n.Alert.Direction, n.Alert.Target, n.Price)
	if n.Alert.Note != "" {
		msg += ": " + n.Alert.Note
	}
	return msg
}

func (n PlanDue) Message() string {
	return fmt.Sprintf("DCA plan on %s ran on %s", n.Symbol, n.On)
}

func (n InsufficientHolding) Message() string {
	return fmt.Sprintf("cannot sell %s %s, only %s held", n.Requested, n.Symbol, n.Held)
}

func (PriceAlert) isNotification()          {}
func (PlanDue) isNotification()             {}
func (InsufficientHolding) isNotification() {}

// FromError returns the notification matching err, if there is one.
func FromError(err error) (Notification, bool) {
	var insufficient *folio.InsufficientHoldingError
	if errors.As(err, &insufficient) {
		return InsufficientHolding{Symbol: insufficient.Symbol, Held: insufficient.Held, Requested: insufficient.Requested}, true
	}
	return nil, false
}
