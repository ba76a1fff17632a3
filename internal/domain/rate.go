package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateQuote is one fetch from the unofficial rate feed. Mid is the
// arithmetic mean of Buy and Sell and is the rate applied to direct
// swaps and alert evaluation.
type RateQuote struct {
	Buy       decimal.Decimal
	Sell      decimal.Decimal
	Mid       decimal.Decimal
	Source    string
	FetchedAt time.Time
}

// RateSnapshot is a stored quote, the unit the analytics layer reads.
type RateSnapshot struct {
	Buy       decimal.Decimal
	Sell      decimal.Decimal
	Mid       decimal.Decimal
	CreatedAt time.Time
}

// AlertCondition selects the comparison direction for a rate alert.
type AlertCondition string

const (
	AlertAbove AlertCondition = "ABOVE"
	AlertBelow AlertCondition = "BELOW"
)

// Alert is a one-shot rate trigger: when the mid rate crosses
// TargetRate in the configured direction, a notification is created
// and the alert deactivates.
type Alert struct {
	AlertID    string
	UserID     string
	TargetRate decimal.Decimal
	Condition  AlertCondition
	Active     bool
	CreatedAt  time.Time
}

// Triggered reports whether mid satisfies the alert's condition.
func (a *Alert) Triggered(mid decimal.Decimal) bool {
	switch a.Condition {
	case AlertAbove:
		return mid.GreaterThanOrEqual(a.TargetRate)
	case AlertBelow:
		return mid.LessThanOrEqual(a.TargetRate)
	}
	return false
}
