package types

import (
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// BillingPeriod is the cycle length of a recurring charge ex MONTHLY, QUARTERLY, ANNUAL
type BillingPeriod string

// BillingMode selects the strategy used to compute billing periods for a
// subscription ex IN_ADVANCE (charge for a cycle at its start)
type BillingMode string

// InvoiceItemType differentiates one-time phase charges from per-cycle charges
type InvoiceItemType string

const (
	BILLING_PERIOD_MONTHLY   BillingPeriod = "MONTHLY"
	BILLING_PERIOD_QUARTERLY BillingPeriod = "QUARTERLY"
	BILLING_PERIOD_ANNUAL    BillingPeriod = "ANNUAL"

	// NO_BILLING_PERIOD marks an event that carries no recurring charge at all
	NO_BILLING_PERIOD BillingPeriod = "NO_BILLING_PERIOD"

	BILLING_MODE_IN_ADVANCE BillingMode = "IN_ADVANCE"

	INVOICE_ITEM_FIXED     InvoiceItemType = "FIXED"
	INVOICE_ITEM_RECURRING InvoiceItemType = "RECURRING"
)

var billingPeriodMonths = map[BillingPeriod]int{
	BILLING_PERIOD_MONTHLY:   1,
	BILLING_PERIOD_QUARTERLY: 3,
	BILLING_PERIOD_ANNUAL:    12,
}

// Months returns the cycle length of the billing period in calendar months.
// NO_BILLING_PERIOD has no cycle length and returns 0.
func (p BillingPeriod) Months() int {
	return billingPeriodMonths[p]
}

func (p BillingPeriod) String() string {
	return string(p)
}

func (p BillingPeriod) Validate() error {
	allowed := []BillingPeriod{
		BILLING_PERIOD_MONTHLY,
		BILLING_PERIOD_QUARTERLY,
		BILLING_PERIOD_ANNUAL,
		NO_BILLING_PERIOD,
	}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid billing period").
			WithHint("Please provide a valid billing period").
			WithReportableDetails(map[string]any{
				"allowed":        allowed,
				"provided_value": p,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (m BillingMode) String() string {
	return string(m)
}

func (m BillingMode) Validate() error {
	allowed := []BillingMode{
		BILLING_MODE_IN_ADVANCE,
	}
	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid billing mode").
			WithHint("Please provide a valid billing mode").
			WithReportableDetails(map[string]any{
				"allowed":        allowed,
				"provided_value": m,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (t InvoiceItemType) String() string {
	return string(t)
}

// RoundingMode maps to the decimal rounding rule applied when a recurring
// amount is computed from a fractional cycle count and a per-cycle rate.
type RoundingMode string

const (
	// ROUND_HALF_UP rounds half away from zero ex 1.005 -> 1.01
	ROUND_HALF_UP RoundingMode = "HALF_UP"
	// ROUND_HALF_EVEN rounds half to the nearest even digit (banker's rounding)
	ROUND_HALF_EVEN RoundingMode = "HALF_EVEN"
	// ROUND_UP rounds away from zero ex 1.001 -> 1.01
	ROUND_UP RoundingMode = "UP"
	// ROUND_DOWN rounds towards zero ex 1.009 -> 1.00
	ROUND_DOWN RoundingMode = "DOWN"

	// DEFAULT_NUMBER_OF_DECIMALS is the default scale for invoice item amounts
	DEFAULT_NUMBER_OF_DECIMALS = 2
)

func (r RoundingMode) String() string {
	return string(r)
}

func (r RoundingMode) Validate() error {
	allowed := []RoundingMode{
		ROUND_HALF_UP,
		ROUND_HALF_EVEN,
		ROUND_UP,
		ROUND_DOWN,
	}
	if !lo.Contains(allowed, r) {
		return ierr.NewError("invalid rounding mode").
			WithHint("Rounding mode must be HALF_UP, HALF_EVEN, UP or DOWN").
			WithReportableDetails(map[string]any{
				"allowed":        allowed,
				"provided_value": r,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Apply rounds d to the given number of decimal places using the rounding rule.
// Unknown modes fall back to half up, the engine default.
func (r RoundingMode) Apply(d decimal.Decimal, places int32) decimal.Decimal {
	switch r {
	case ROUND_HALF_EVEN:
		return d.RoundBank(places)
	case ROUND_UP:
		return d.RoundUp(places)
	case ROUND_DOWN:
		return d.RoundDown(places)
	default:
		return d.Round(places)
	}
}
