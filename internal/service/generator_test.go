package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/billforge/billforge/internal/config"
	"github.com/billforge/billforge/internal/domain/billing"
	"github.com/billforge/billforge/internal/domain/invoice"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/testutil"
	"github.com/billforge/billforge/internal/types"
)

type InvoiceGeneratorTestSuite struct {
	suite.Suite
	ctx     context.Context
	clock   *testutil.MockClock
	store   *testutil.InMemoryInvoiceStore
	service InvoiceGeneratorService
}

func TestInvoiceGeneratorTestSuite(t *testing.T) {
	suite.Run(t, new(InvoiceGeneratorTestSuite))
}

func (s *InvoiceGeneratorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = testutil.NewMockClock(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	s.store = testutil.NewInMemoryInvoiceStore()

	log, err := logger.NewLogger(types.LogLevelDebug)
	s.Require().NoError(err)

	s.service = NewInvoiceGeneratorService(ServiceParams{
		Logger: log,
		Config: config.GetDefaultConfig(),
		Clock:  s.clock,
	})
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthlyEvent(subID uuid.UUID, effective time.Time, rate decimal.Decimal) *billing.Event {
	return &billing.Event{
		SubscriptionID: subID,
		PlanName:       "standard",
		PhaseName:      "standard-evergreen",
		BillingPeriod:  types.BILLING_PERIOD_MONTHLY,
		BillingMode:    types.BILLING_MODE_IN_ADVANCE,
		EffectiveDate:  effective,
		RecurringPrice: &rate,
		BillCycleDay:   1,
	}
}

func cancelEvent(subID uuid.UUID, effective time.Time) *billing.Event {
	return &billing.Event{
		SubscriptionID: subID,
		PlanName:       "standard",
		PhaseName:      "standard-evergreen",
		BillingPeriod:  types.NO_BILLING_PERIOD,
		BillingMode:    types.BILLING_MODE_IN_ADVANCE,
		EffectiveDate:  effective,
		BillCycleDay:   1,
	}
}

func (s *InvoiceGeneratorTestSuite) TestSingleMonthlyCharge() {
	accountID := uuid.New()
	subID := uuid.New()
	events := []*billing.Event{monthlyEvent(subID, date(2020, 1, 1), decimal.RequireFromString("30.00"))}

	inv, err := s.service.GenerateInvoice(s.ctx, accountID, events, nil, date(2020, 1, 1), "usd")

	s.Require().NoError(err)
	s.Require().NotNil(inv)
	s.Require().Len(inv.Items, 1)

	item := inv.Items[0]
	s.Equal(types.INVOICE_ITEM_RECURRING, item.Type())
	s.True(item.GetStartDate().Equal(date(2020, 1, 1)))
	s.True(item.GetEndDate().Equal(date(2020, 2, 1)))
	s.True(item.GetAmount().Equal(decimal.RequireFromString("30.00")))
	s.Equal("usd", item.GetCurrency())
	s.Equal(accountID, inv.AccountID)
	s.NotEmpty(inv.ID)
	s.NotEmpty(inv.InvoiceNumber)
}

func (s *InvoiceGeneratorTestSuite) TestUnsupportedCurrencyRejected() {
	events := []*billing.Event{monthlyEvent(uuid.New(), date(2020, 1, 1), decimal.NewFromInt(30))}

	inv, err := s.service.GenerateInvoice(s.ctx, uuid.New(), events, nil, date(2020, 1, 1), "doubloons")
	s.Error(err)
	s.ErrorIs(err, ierr.ErrValidation)
	s.Nil(inv)
}

func (s *InvoiceGeneratorTestSuite) TestInvalidEventAbortsGeneration() {
	subID := uuid.New()
	valid := monthlyEvent(subID, date(2020, 1, 1), decimal.NewFromInt(30))
	invalid := monthlyEvent(subID, date(2020, 2, 1), decimal.NewFromInt(30))
	invalid.BillCycleDay = 0

	inv, err := s.service.GenerateInvoice(s.ctx, uuid.New(),
		[]*billing.Event{valid, invalid}, nil, date(2020, 2, 1), "usd")
	s.Error(err)
	s.ErrorIs(err, ierr.ErrValidation)
	s.Nil(inv, "a bad event must abort the whole run, not just its own items")
}

func (s *InvoiceGeneratorTestSuite) TestDefaultsToGlobalLogger() {
	svc := NewInvoiceGeneratorService(ServiceParams{
		Config: config.GetDefaultConfig(),
		Clock:  s.clock,
	})

	events := []*billing.Event{monthlyEvent(uuid.New(), date(2020, 1, 1), decimal.NewFromInt(30))}
	inv, err := svc.GenerateInvoice(s.ctx, uuid.New(), events, nil, date(2020, 1, 1), "usd")
	s.NoError(err)
	s.NotNil(inv)
}

func (s *InvoiceGeneratorTestSuite) TestEmptyEventsReturnsNoInvoice() {
	inv, err := s.service.GenerateInvoice(s.ctx, uuid.New(), nil, nil, date(2020, 1, 1), "usd")
	s.NoError(err)
	s.Nil(inv)

	inv, err = s.service.GenerateInvoice(s.ctx, uuid.New(), []*billing.Event{}, nil, date(2020, 1, 1), "usd")
	s.NoError(err)
	s.Nil(inv)
}

func (s *InvoiceGeneratorTestSuite) TestIdempotence() {
	accountID := uuid.New()
	subID := uuid.New()
	events := []*billing.Event{monthlyEvent(subID, date(2020, 1, 1), decimal.NewFromInt(30))}

	first, err := s.service.GenerateInvoice(s.ctx, accountID, events, nil, date(2020, 1, 1), "usd")
	s.Require().NoError(err)
	s.Require().NotNil(first)
	s.Require().NoError(s.store.Create(s.ctx, first))

	existing, err := s.store.GetByAccount(s.ctx, accountID)
	s.Require().NoError(err)

	second, err := s.service.GenerateInvoice(s.ctx, accountID, events, existing, date(2020, 1, 1), "usd")
	s.NoError(err)
	s.Nil(second, "re-running with the first run's output as existing invoices must bill nothing")
}

func (s *InvoiceGeneratorTestSuite) TestAdvancingTargetDateBillsOnlyNewCycles() {
	accountID := uuid.New()
	subID := uuid.New()
	events := []*billing.Event{monthlyEvent(subID, date(2020, 1, 1), decimal.NewFromInt(30))}

	first, err := s.service.GenerateInvoice(s.ctx, accountID, events, nil, date(2020, 1, 1), "usd")
	s.Require().NoError(err)
	s.Require().NotNil(first)

	second, err := s.service.GenerateInvoice(s.ctx, accountID, events, []*invoice.Invoice{first}, date(2020, 2, 1), "usd")
	s.Require().NoError(err)
	s.Require().NotNil(second)
	s.Require().Len(second.Items, 1)
	s.True(second.Items[0].GetStartDate().Equal(date(2020, 2, 1)))
	s.True(second.Items[0].GetEndDate().Equal(date(2020, 3, 1)))
	s.True(second.Items[0].GetAmount().Equal(decimal.NewFromInt(30)))
}

func (s *InvoiceGeneratorTestSuite) TestRetroactiveRateChange() {
	accountID := uuid.New()
	subID := uuid.New()

	first, err := s.service.GenerateInvoice(s.ctx, accountID,
		[]*billing.Event{monthlyEvent(subID, date(2020, 1, 1), decimal.NewFromInt(30))},
		nil, date(2020, 1, 1), "usd")
	s.Require().NoError(err)
	s.Require().NotNil(first)
	originalItemID := first.Items[0].GetID()

	// history amended: the same period now bills at 40
	amended := []*billing.Event{monthlyEvent(subID, date(2020, 1, 1), decimal.NewFromInt(40))}

	second, err := s.service.GenerateInvoice(s.ctx, accountID, amended,
		[]*invoice.Invoice{first}, date(2020, 1, 1), "usd")
	s.Require().NoError(err)
	s.Require().NotNil(second)
	s.Require().Len(second.Items, 2)

	var credit, charge *invoice.RecurringItem
	for _, item := range second.Items {
		recurring, ok := item.(*invoice.RecurringItem)
		s.Require().True(ok)
		if recurring.Reverses() {
			credit = recurring
		} else {
			charge = recurring
		}
	}

	s.Require().NotNil(credit)
	s.Require().NotNil(charge)
	s.Equal(originalItemID, credit.ReversesItemID)
	s.True(credit.GetAmount().Equal(decimal.NewFromInt(-30)))
	s.True(charge.GetAmount().Equal(decimal.NewFromInt(40)))
	s.True(charge.GetStartDate().Equal(date(2020, 1, 1)))
	s.True(charge.GetEndDate().Equal(date(2020, 2, 1)))

	// net billed for the period is the new rate only
	s.True(second.Total().Equal(decimal.NewFromInt(10)))
}

func (s *InvoiceGeneratorTestSuite) TestBackdatedCancellationCreditsBilledCycles() {
	accountID := uuid.New()
	subID := uuid.New()
	events := []*billing.Event{monthlyEvent(subID, date(2020, 1, 1), decimal.NewFromInt(30))}

	first, err := s.service.GenerateInvoice(s.ctx, accountID, events, nil, date(2020, 3, 1), "usd")
	s.Require().NoError(err)
	s.Require().NotNil(first)
	s.Require().Len(first.Items, 3)

	// cancellation recorded after the fact, effective Feb 1
	amended := append(events, cancelEvent(subID, date(2020, 2, 1)))

	second, err := s.service.GenerateInvoice(s.ctx, accountID, amended,
		[]*invoice.Invoice{first}, date(2020, 3, 1), "usd")
	s.Require().NoError(err)
	s.Require().NotNil(second)
	s.Require().Len(second.Items, 2)

	total := decimal.Zero
	for _, item := range second.Items {
		recurring, ok := item.(*invoice.RecurringItem)
		s.Require().True(ok)
		s.True(recurring.Reverses())
		total = total.Add(recurring.GetAmount())
	}
	s.True(total.Equal(decimal.NewFromInt(-60)))
}

func (s *InvoiceGeneratorTestSuite) TestFutureDatedEventContributesNothing() {
	accountID := uuid.New()
	subID := uuid.New()
	events := []*billing.Event{monthlyEvent(subID, date(2020, 2, 1), decimal.NewFromInt(30))}

	inv, err := s.service.GenerateInvoice(s.ctx, accountID, events, nil, date(2020, 1, 15), "usd")
	s.NoError(err)
	s.Nil(inv)
}

func (s *InvoiceGeneratorTestSuite) TestFixedPriceItemOnTargetDate() {
	accountID := uuid.New()
	subID := uuid.New()
	price := decimal.RequireFromString("9.95")
	events := []*billing.Event{{
		SubscriptionID: subID,
		PlanName:       "standard",
		PhaseName:      "standard-trial",
		BillingPeriod:  types.NO_BILLING_PERIOD,
		BillingMode:    types.BILLING_MODE_IN_ADVANCE,
		EffectiveDate:  date(2020, 1, 15),
		FixedPrice:     &price,
		BillCycleDay:   15,
		PhaseDuration:  types.Duration{Days: 30},
	}}

	// effective date equal to the target date is still billable
	inv, err := s.service.GenerateInvoice(s.ctx, accountID, events, nil, date(2020, 1, 15), "usd")
	s.Require().NoError(err)
	s.Require().NotNil(inv)
	s.Require().Len(inv.Items, 1)

	item := inv.Items[0]
	s.Equal(types.INVOICE_ITEM_FIXED, item.Type())
	s.True(item.GetStartDate().Equal(date(2020, 1, 15)))
	s.True(item.GetEndDate().Equal(date(2020, 2, 14)))
	s.True(item.GetAmount().Equal(price))
}

func (s *InvoiceGeneratorTestSuite) TestEventWithoutRecurringRateBillsNothing() {
	accountID := uuid.New()
	subID := uuid.New()
	events := []*billing.Event{{
		SubscriptionID: subID,
		PlanName:       "standard",
		PhaseName:      "standard-free",
		BillingPeriod:  types.BILLING_PERIOD_MONTHLY,
		BillingMode:    types.BILLING_MODE_IN_ADVANCE,
		EffectiveDate:  date(2020, 1, 1),
		BillCycleDay:   1,
	}}

	inv, err := s.service.GenerateInvoice(s.ctx, accountID, events, nil, date(2020, 1, 1), "usd")
	s.NoError(err)
	s.Nil(inv)
}

func (s *InvoiceGeneratorTestSuite) TestTargetDateHorizon() {
	accountID := uuid.New()
	subID := uuid.New()
	s.clock.SetNow(date(2020, 1, 15))
	events := []*billing.Event{monthlyEvent(subID, date(2020, 1, 1), decimal.NewFromInt(30))}

	// 36 whole months out is the last permitted target date
	inv, err := s.service.GenerateInvoice(s.ctx, accountID, events, nil, date(2023, 1, 15), "usd")
	s.NoError(err)
	s.NotNil(inv)

	// 37 months out fails, with no partial invoice
	inv, err = s.service.GenerateInvoice(s.ctx, accountID, events, nil, date(2023, 2, 15), "usd")
	s.Error(err)
	s.ErrorIs(err, invoice.ErrTargetDateTooFarInFuture)
	s.Nil(inv)
}

func (s *InvoiceGeneratorTestSuite) TestTargetDateNeverRegresses() {
	accountID := uuid.New()
	subID := uuid.New()
	events := []*billing.Event{monthlyEvent(subID, date(2020, 1, 1), decimal.NewFromInt(30))}

	first, err := s.service.GenerateInvoice(s.ctx, accountID, events, nil, date(2020, 2, 1), "usd")
	s.Require().NoError(err)
	s.Require().NotNil(first)
	s.Require().Len(first.Items, 2)

	// a request for an earlier date is pulled up to the billed horizon, so
	// nothing new is owed
	second, err := s.service.GenerateInvoice(s.ctx, accountID, events,
		[]*invoice.Invoice{first}, date(2020, 1, 1), "usd")
	s.NoError(err)
	s.Nil(second)
}

func (s *InvoiceGeneratorTestSuite) TestRecordedReversalPairsStayCancelled() {
	accountID := uuid.New()
	subID := uuid.New()

	// an earlier invoice holds a charge and the credit that reversed it
	prior := invoice.New(accountID, date(2020, 1, 1), "usd", date(2020, 1, 1))
	charge := invoice.NewRecurringItem(prior.ID, subID, "standard", "standard-evergreen",
		date(2020, 1, 1), date(2020, 2, 1), decimal.NewFromInt(30), decimal.NewFromInt(30), "usd", date(2020, 1, 1))
	credit := charge.AsCredit(date(2020, 1, 2))
	prior.AddItems([]invoice.Item{charge, credit})

	events := []*billing.Event{monthlyEvent(subID, date(2020, 1, 1), decimal.NewFromInt(40))}

	inv, err := s.service.GenerateInvoice(s.ctx, accountID, events,
		[]*invoice.Invoice{prior}, date(2020, 1, 1), "usd")
	s.Require().NoError(err)
	s.Require().NotNil(inv)
	s.Require().Len(inv.Items, 1)
	s.True(inv.Items[0].GetAmount().Equal(decimal.NewFromInt(40)),
		"a recorded reversal pair must neither dedupe nor re-credit")
}

func (s *InvoiceGeneratorTestSuite) TestPlanChangeMidPeriod() {
	accountID := uuid.New()
	subID := uuid.New()
	basic := monthlyEvent(subID, date(2020, 1, 1), decimal.NewFromInt(31))
	upgraded := monthlyEvent(subID, date(2020, 1, 16), decimal.NewFromInt(62))
	upgraded.PlanName = "premium"
	upgraded.PhaseName = "premium-evergreen"
	upgraded.BillCycleDay = 16

	inv, err := s.service.GenerateInvoice(s.ctx, accountID,
		[]*billing.Event{basic, upgraded}, nil, date(2020, 1, 16), "usd")
	s.Require().NoError(err)
	s.Require().NotNil(inv)
	s.Require().Len(inv.Items, 2)

	// 15 of the 31 days of January on the old plan
	s.True(inv.Items[0].GetAmount().Equal(decimal.RequireFromString("15.00")))
	s.True(inv.Items[0].GetEndDate().Equal(date(2020, 1, 16)))
	// a full cycle of the new plan, anchored on the 16th
	s.True(inv.Items[1].GetAmount().Equal(decimal.NewFromInt(62)))
	s.True(inv.Items[1].GetStartDate().Equal(date(2020, 1, 16)))
	s.True(inv.Items[1].GetEndDate().Equal(date(2020, 2, 16)))
}
