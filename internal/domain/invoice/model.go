// Package invoice holds the invoice aggregate and its line items. The engine
// creates these values transiently; persisting them is the surrounding
// application's concern, reached only through the Repository interface.
package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
)

// Invoice is the set of billable line items computed for an account up to a
// target date. The engine never returns an empty invoice: a run that produces
// no items yields no invoice at all.
type Invoice struct {
	ID            string    `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	AccountID     uuid.UUID `json:"account_id"`
	InvoiceDate   time.Time `json:"invoice_date"`
	TargetDate    time.Time `json:"target_date"`
	Currency      string    `json:"currency"`
	Items         []Item    `json:"items"`
}

// New creates an empty invoice shell with generated identifiers. Items are
// appended by the generator before the invoice is returned to the caller.
func New(accountID uuid.UUID, targetDate time.Time, currency string, now time.Time) *Invoice {
	return &Invoice{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		InvoiceNumber: types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_INVOICE),
		AccountID:     accountID,
		InvoiceDate:   now,
		TargetDate:    targetDate,
		Currency:      currency,
	}
}

// AddItems appends items to the invoice.
func (i *Invoice) AddItems(items []Item) {
	i.Items = append(i.Items, items...)
}

// Total is the sum of all item amounts, credits included.
func (i *Invoice) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range i.Items {
		total = total.Add(item.GetAmount())
	}
	return total
}

func (i *Invoice) Validate() error {
	if !types.IsSupportedCurrency(i.Currency) {
		return ierr.NewError("invoice validation failed").
			WithHintf("unsupported currency %q", i.Currency).
			Mark(ierr.ErrValidation)
	}
	if len(i.Items) == 0 {
		return ierr.NewError("invoice validation failed").
			WithHint("an invoice must carry at least one item").
			Mark(ierr.ErrValidation)
	}
	for _, item := range i.Items {
		if item.GetCurrency() != i.Currency {
			return ierr.NewError("invoice validation failed").
				WithHint("item currency must match invoice currency").
				WithReportableDetails(map[string]any{
					"invoice_currency": i.Currency,
					"item_currency":    item.GetCurrency(),
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}
