// Package clock abstracts the wall clock so invoice generation stays
// deterministic under test.
package clock

import "time"

// Clock supplies the current UTC instant used for target date validation and
// for the creation timestamps stamped on generated invoices and items.
type Clock interface {
	Now() time.Time
}

type utcClock struct{}

func (utcClock) Now() time.Time {
	return time.Now().UTC()
}

// New returns a Clock backed by the system wall clock, in UTC.
func New() Clock {
	return utcClock{}
}
