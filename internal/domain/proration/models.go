package proration

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecurringPeriod is one prorated slice of a subscription's billing timeline:
// a coverage window plus the cycle count it represents. A full cycle has
// Cycles of 1; a partial leading or trailing cycle carries the day based
// fraction. Consumed immediately by the generator to price a recurring item.
type RecurringPeriod struct {
	StartDate time.Time       `json:"start_date"`
	EndDate   time.Time       `json:"end_date"`
	Cycles    decimal.Decimal `json:"cycles"`
}
