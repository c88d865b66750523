package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/billforge/billforge/internal/domain/billing"
	"github.com/billforge/billforge/internal/domain/invoice"
	"github.com/billforge/billforge/internal/domain/proration"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/types"
)

// InvoiceGeneratorService computes the invoice items an account owes up to a
// target date, given its full billing event history and everything already
// invoiced. Generation is deterministic and idempotent: feeding a run's
// output back as existing invoices yields no further items.
//
// The service holds no mutable state; concurrent calls for different accounts
// need no coordination. Calls for the same account must be serialized by the
// caller, since reconciliation assumes a complete view of existing invoices.
type InvoiceGeneratorService interface {
	// GenerateInvoice returns the invoice for the account up to targetDate,
	// or nil when there is nothing to bill. Generation is all or nothing: on
	// error no partial invoice is returned.
	GenerateInvoice(ctx context.Context, accountID uuid.UUID, events []*billing.Event,
		existingInvoices []*invoice.Invoice, targetDate time.Time, currency string) (*invoice.Invoice, error)
}

type invoiceGeneratorService struct {
	ServiceParams
}

func NewInvoiceGeneratorService(params ServiceParams) InvoiceGeneratorService {
	if params.Logger == nil {
		params.Logger = logger.GetLogger()
	}
	return &invoiceGeneratorService{
		ServiceParams: params,
	}
}

func (s *invoiceGeneratorService) GenerateInvoice(ctx context.Context, accountID uuid.UUID,
	events []*billing.Event, existingInvoices []*invoice.Invoice,
	targetDate time.Time, currency string) (*invoice.Invoice, error) {
	if len(events) == 0 {
		return nil, nil
	}

	if !types.IsSupportedCurrency(currency) {
		return nil, ierr.NewError("cannot generate invoice").
			WithHintf("unsupported currency %q", currency).
			Mark(ierr.ErrValidation)
	}

	if err := s.validateTargetDate(targetDate); err != nil {
		return nil, err
	}

	eventSet := billing.NewEventSet(events)

	existingItems := flattenItems(existingInvoices)
	invoice.SortItems(existingItems)

	// An account's billing horizon never regresses: a previously issued
	// invoice with a later target date extends this run's target date.
	targetDate = adjustTargetDate(existingInvoices, targetDate)

	inv := invoice.New(accountID, targetDate, currency, s.Clock.Now())

	proposedItems, err := s.expandEvents(inv.ID, eventSet, targetDate, currency)
	if err != nil {
		return nil, err
	}

	existingItems = removeCancellingPairs(existingItems)
	proposedItems, existingItems = removeDuplicates(proposedItems, existingItems)

	// Whatever already billed recurring charge survived both passes has been
	// retroactively superseded; credit it back on this invoice.
	for _, item := range existingItems {
		if recurring, ok := item.(*invoice.RecurringItem); ok {
			proposedItems = append(proposedItems, recurring.AsCredit(s.Clock.Now()))
		}
	}

	if len(proposedItems) == 0 {
		return nil, nil
	}

	inv.AddItems(proposedItems)

	if err := inv.Validate(); err != nil {
		return nil, err
	}

	s.Logger.Debugw("generated invoice",
		"account_id", accountID,
		"invoice_id", inv.ID,
		"target_date", targetDate,
		"items", len(proposedItems),
		"total", types.GetCurrencySymbol(inv.Currency)+inv.Total().String(),
	)

	return inv, nil
}

func (s *invoiceGeneratorService) validateTargetDate(targetDate time.Time) error {
	maxMonths := s.Config.Invoice.MaxMonthsInFuture
	if types.MonthsBetween(s.Clock.Now(), targetDate) > maxMonths {
		return ierr.WithError(invoice.ErrTargetDateTooFarInFuture).
			WithHintf("target date %s exceeds the %d month horizon", targetDate.Format(time.DateOnly), maxMonths).
			WithReportableDetails(map[string]any{
				"target_date":          targetDate,
				"max_months_in_future": maxMonths,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}

func adjustTargetDate(existingInvoices []*invoice.Invoice, targetDate time.Time) time.Time {
	maxDate := targetDate
	for _, inv := range existingInvoices {
		if inv.TargetDate.After(maxDate) {
			maxDate = inv.TargetDate
		}
	}
	return maxDate
}

func flattenItems(invoices []*invoice.Invoice) []invoice.Item {
	items := make([]invoice.Item, 0)
	for _, inv := range invoices {
		items = append(items, inv.Items...)
	}
	return items
}

// expandEvents walks the ordered event set and emits the fixed price and
// recurring items each event implies up to the target date.
func (s *invoiceGeneratorService) expandEvents(invoiceID string, events *billing.EventSet,
	targetDate time.Time, currency string) ([]invoice.Item, error) {
	items := make([]invoice.Item, 0)

	for i, event := range events.Events() {
		if err := event.Validate(); err != nil {
			return nil, err
		}
		next := events.NextEventForSubscription(i)

		eventItems, err := s.processEvent(invoiceID, event, next, targetDate, currency)
		if err != nil {
			return nil, err
		}
		items = append(items, eventItems...)
	}

	return items, nil
}

func (s *invoiceGeneratorService) processEvent(invoiceID string, event, next *billing.Event,
	targetDate time.Time, currency string) ([]invoice.Item, error) {
	items := make([]invoice.Item, 0)

	// Future dated events are not yet billable and contribute nothing.
	if event.EffectiveDate.After(targetDate) {
		return items, nil
	}

	if fixed := s.fixedPriceItem(invoiceID, event, currency); fixed != nil {
		items = append(items, fixed)
	}

	if event.BillingPeriod == types.NO_BILLING_PERIOD {
		return items, nil
	}

	calculator := proration.NewCalculator(event.BillingMode)

	var endDate *time.Time
	if next != nil {
		endDate = &next.EffectiveDate
	}

	periods, err := calculator.CalculatePeriods(event.EffectiveDate, endDate, targetDate,
		event.BillCycleDay, event.BillingPeriod)
	if err != nil {
		return nil, err
	}

	// A nil rate means the phase carries no recurring charge; valid, skip.
	if event.RecurringPrice == nil {
		return items, nil
	}

	for _, period := range periods {
		amount := s.Config.Invoice.RoundingMode.Apply(
			period.Cycles.Mul(*event.RecurringPrice),
			s.Config.Invoice.NumberOfDecimals,
		)
		items = append(items, invoice.NewRecurringItem(invoiceID, event.SubscriptionID,
			event.PlanName, event.PhaseName, period.StartDate, period.EndDate,
			amount, *event.RecurringPrice, currency, s.Clock.Now()))
	}

	return items, nil
}

func (s *invoiceGeneratorService) fixedPriceItem(invoiceID string, event *billing.Event, currency string) invoice.Item {
	if event.FixedPrice == nil {
		return nil
	}
	endDate := event.PhaseDuration.AddTo(event.EffectiveDate)
	return invoice.NewFixedPriceItem(invoiceID, event.SubscriptionID, event.PlanName,
		event.PhaseName, event.EffectiveDate, endDate, *event.FixedPrice, currency, s.Clock.Now())
}
