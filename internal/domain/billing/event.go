// Package billing models the per-subscription event history that invoice
// generation consumes. Plan and phase metadata is already resolved into the
// event by the time it reaches this package; the engine never queries a
// catalog itself.
package billing

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
)

// Event is one change in a subscription's billing terms, effective at a point
// in time. Events are immutable values once created.
type Event struct {
	SubscriptionID uuid.UUID           `json:"subscription_id"`
	PlanName       string              `json:"plan_name"`
	PhaseName      string              `json:"phase_name"`
	BillingPeriod  types.BillingPeriod `json:"billing_period"`
	BillingMode    types.BillingMode   `json:"billing_mode"`
	// EffectiveDate is inclusive: the new terms apply from this instant on
	EffectiveDate time.Time `json:"effective_date"`
	// FixedPrice is the one-time charge for entering the phase, if any
	FixedPrice *decimal.Decimal `json:"fixed_price,omitempty"`
	// RecurringPrice is the per-cycle rate. A nil rate means the event is not
	// billable as a recurring charge, which is valid and not an error.
	RecurringPrice *decimal.Decimal `json:"recurring_price,omitempty"`
	// BillCycleDay anchors recurring period boundaries to a day of month
	BillCycleDay int `json:"bill_cycle_day"`
	// PhaseDuration bounds the fixed price charge's coverage period
	PhaseDuration types.Duration `json:"phase_duration"`
}

func (e *Event) Validate() error {
	if e.SubscriptionID == uuid.Nil {
		return ierr.NewError("billing event validation failed").
			WithHint("subscription id must be set").
			Mark(ierr.ErrValidation)
	}
	if e.EffectiveDate.IsZero() {
		return ierr.NewError("billing event validation failed").
			WithHint("effective date must be set").
			Mark(ierr.ErrValidation)
	}
	if e.BillCycleDay < 1 || e.BillCycleDay > 31 {
		return ierr.NewError("billing event validation failed").
			WithHint("bill cycle day must be between 1 and 31").
			WithReportableDetails(map[string]any{
				"provided_value": e.BillCycleDay,
			}).
			Mark(ierr.ErrValidation)
	}
	if err := e.BillingPeriod.Validate(); err != nil {
		return err
	}
	return e.BillingMode.Validate()
}

// SortEvents orders events by their total order: effective date first, then
// subscription id as a stable tie break. The engine depends on this ordering
// to pair each event with its successor.
func SortEvents(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].EffectiveDate.Equal(events[j].EffectiveDate) {
			return events[i].SubscriptionID.String() < events[j].SubscriptionID.String()
		}
		return events[i].EffectiveDate.Before(events[j].EffectiveDate)
	})
}
