// Package proration computes the billing periods implied by a subscription
// event, aligned to the account's bill cycle day. The calculation strategy is
// selected by billing mode; only in-advance billing is registered today.
package proration

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billforge/billforge/internal/domain/invoice"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
)

// Calculator produces the ordered billing periods between a subscription
// event and its successor, up to the target date.
type Calculator interface {
	// CalculatePeriods returns the prorated periods covering [start, end),
	// or [start, ...) when end is nil and billing is open ended. No returned
	// period ever starts after target.
	CalculatePeriods(start time.Time, end *time.Time, target time.Time,
		billCycleDay int, period types.BillingPeriod) ([]RecurringPeriod, error)
}

// NewCalculator returns the calculator registered for the billing mode.
// An unregistered mode is a programming error and panics.
func NewCalculator(mode types.BillingMode) Calculator {
	switch mode {
	case types.BILLING_MODE_IN_ADVANCE:
		return &inAdvanceCalculator{}
	default:
		panic(fmt.Sprintf("no billing period calculator registered for billing mode %q", mode))
	}
}

// inAdvanceCalculator implements "bill in advance": every cycle is charged at
// its start, so a cycle is emitted as soon as its start date reaches the
// target date, with day based proration for partial first and last cycles.
type inAdvanceCalculator struct{}

func (c *inAdvanceCalculator) CalculatePeriods(start time.Time, end *time.Time, target time.Time,
	billCycleDay int, period types.BillingPeriod) ([]RecurringPeriod, error) {
	if err := validateDateSequence(start, end, target); err != nil {
		return nil, err
	}

	months := period.Months()
	if months == 0 {
		return nil, nil
	}

	periods := make([]RecurringPeriod, 0)

	firstCycleDate := types.BillCycleDateOnOrAfter(start, billCycleDay)

	// Partial leading cycle before the subscription aligns to the bill cycle
	// day. When the event's successor cuts in before the first full cycle the
	// leading stub is all there is.
	if firstCycleDate.After(start) {
		stubEnd := firstCycleDate
		if end != nil && end.Before(firstCycleDate) {
			stubEnd = *end
		}
		prevCycleDate := types.BillCycleDateInMonth(
			types.AddClampedDate(firstCycleDate, 0, -months, 0), billCycleDay)
		cycles := prorate(start, stubEnd, prevCycleDate, firstCycleDate)
		if !cycles.IsZero() {
			periods = append(periods, RecurringPeriod{
				StartDate: start,
				EndDate:   stubEnd,
				Cycles:    cycles,
			})
		}
		if end != nil && !end.After(firstCycleDate) {
			return periods, nil
		}
	}

	// Whole cycles charged at their start, trailing partial cycle when the
	// end date cuts one short.
	for cycleStart := firstCycleDate; !cycleStart.After(target); {
		if end != nil && !cycleStart.Before(*end) {
			break
		}
		// Re-anchor every boundary to the bill cycle day so a clamped month
		// (the 31st in February) does not drag later cycles off the anchor.
		cycleEnd := types.BillCycleDateInMonth(
			types.AddClampedDate(cycleStart, 0, months, 0), billCycleDay)
		if end != nil && end.Before(cycleEnd) {
			cycles := prorate(cycleStart, *end, cycleStart, cycleEnd)
			if !cycles.IsZero() {
				periods = append(periods, RecurringPeriod{
					StartDate: cycleStart,
					EndDate:   *end,
					Cycles:    cycles,
				})
			}
			break
		}
		periods = append(periods, RecurringPeriod{
			StartDate: cycleStart,
			EndDate:   cycleEnd,
			Cycles:    decimal.NewFromInt(1),
		})
		cycleStart = cycleEnd
	}

	return periods, nil
}

// prorate returns the fraction of the notional cycle [cycleStart, cycleEnd)
// covered by [from, to), counted in calendar days.
func prorate(from, to, cycleStart, cycleEnd time.Time) decimal.Decimal {
	cycleDays := types.DaysBetween(cycleStart, cycleEnd)
	if cycleDays == 0 {
		return decimal.Zero
	}
	coveredDays := types.DaysBetween(from, to)
	if coveredDays <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(coveredDays)).Div(decimal.NewFromInt(int64(cycleDays)))
}

func validateDateSequence(start time.Time, end *time.Time, target time.Time) error {
	if end != nil && end.Before(start) {
		return ierr.WithError(invoice.ErrInvalidDateSequence).
			WithHintf("end date %s precedes start date %s", end.Format(time.DateOnly), start.Format(time.DateOnly)).
			Mark(ierr.ErrValidation)
	}
	if target.Before(start) {
		return ierr.WithError(invoice.ErrInvalidDateSequence).
			WithHintf("target date %s precedes start date %s", target.Format(time.DateOnly), start.Format(time.DateOnly)).
			Mark(ierr.ErrValidation)
	}
	return nil
}
