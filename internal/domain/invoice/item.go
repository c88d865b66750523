package invoice

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/billforge/billforge/internal/types"
)

// MatchKey is the semantic equality projection of an invoice item. Two items
// that represent the same charge for the same period compare equal on their
// keys even when generated in different runs, so surrogate ids and creation
// timestamps are deliberately excluded. Deduplication relies on this exactly.
type MatchKey struct {
	SubscriptionID uuid.UUID
	PlanName       string
	PhaseName      string
	StartDate      time.Time
	EndDate        time.Time
	Amount         string
	Type           types.InvoiceItemType
}

// Item is a single billable line on an invoice.
type Item interface {
	GetID() string
	GetInvoiceID() string
	GetSubscriptionID() uuid.UUID
	GetPlanName() string
	GetPhaseName() string
	GetStartDate() time.Time
	GetEndDate() time.Time
	GetAmount() decimal.Decimal
	GetCurrency() string
	GetCreatedAt() time.Time
	Type() types.InvoiceItemType
	MatchKey() MatchKey
}

// itemBase carries the identity and period fields shared by both variants.
type itemBase struct {
	ID             string          `json:"id"`
	InvoiceID      string          `json:"invoice_id"`
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	PlanName       string          `json:"plan_name"`
	PhaseName      string          `json:"phase_name"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (b *itemBase) GetID() string                  { return b.ID }
func (b *itemBase) GetInvoiceID() string           { return b.InvoiceID }
func (b *itemBase) GetSubscriptionID() uuid.UUID   { return b.SubscriptionID }
func (b *itemBase) GetPlanName() string            { return b.PlanName }
func (b *itemBase) GetPhaseName() string           { return b.PhaseName }
func (b *itemBase) GetStartDate() time.Time        { return b.StartDate }
func (b *itemBase) GetEndDate() time.Time          { return b.EndDate }
func (b *itemBase) GetAmount() decimal.Decimal     { return b.Amount }
func (b *itemBase) GetCurrency() string            { return b.Currency }
func (b *itemBase) GetCreatedAt() time.Time        { return b.CreatedAt }

func (b *itemBase) matchKey(t types.InvoiceItemType) MatchKey {
	return MatchKey{
		SubscriptionID: b.SubscriptionID,
		PlanName:       b.PlanName,
		PhaseName:      b.PhaseName,
		StartDate:      b.StartDate.UTC(),
		EndDate:        b.EndDate.UTC(),
		// normalized string form so 30 and 30.00 compare equal
		Amount: b.Amount.String(),
		Type:   t,
	}
}

// FixedPriceItem is a one-time charge tied to a subscription phase, covering
// [StartDate, EndDate).
type FixedPriceItem struct {
	itemBase
}

// NewFixedPriceItem creates a fixed price item with a fresh surrogate id.
func NewFixedPriceItem(invoiceID string, subscriptionID uuid.UUID, planName, phaseName string,
	startDate, endDate time.Time, amount decimal.Decimal, currency string, createdAt time.Time) *FixedPriceItem {
	return &FixedPriceItem{
		itemBase: itemBase{
			ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_ITEM),
			InvoiceID:      invoiceID,
			SubscriptionID: subscriptionID,
			PlanName:       planName,
			PhaseName:      phaseName,
			StartDate:      startDate,
			EndDate:        endDate,
			Amount:         amount,
			Currency:       currency,
			CreatedAt:      createdAt,
		},
	}
}

func (i *FixedPriceItem) Type() types.InvoiceItemType {
	return types.INVOICE_ITEM_FIXED
}

func (i *FixedPriceItem) MatchKey() MatchKey {
	return i.matchKey(types.INVOICE_ITEM_FIXED)
}

// RecurringItem is a per-cycle charge for an ongoing billing period. A
// negative amount with ReversesItemID set makes the item a credit that
// cancels a previously issued charge.
type RecurringItem struct {
	itemBase
	// Rate is the undiscounted per-cycle price the amount was derived from
	Rate decimal.Decimal `json:"rate"`
	// ReversesItemID is set on credits: the id of the item being cancelled
	ReversesItemID string `json:"reverses_item_id,omitempty"`
	// ReversedItemID is set on items that a later credit has cancelled
	ReversedItemID string `json:"reversed_item_id,omitempty"`
}

// NewRecurringItem creates a recurring item with a fresh surrogate id.
func NewRecurringItem(invoiceID string, subscriptionID uuid.UUID, planName, phaseName string,
	startDate, endDate time.Time, amount, rate decimal.Decimal, currency string, createdAt time.Time) *RecurringItem {
	return &RecurringItem{
		itemBase: itemBase{
			ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_ITEM),
			InvoiceID:      invoiceID,
			SubscriptionID: subscriptionID,
			PlanName:       planName,
			PhaseName:      phaseName,
			StartDate:      startDate,
			EndDate:        endDate,
			Amount:         amount,
			Currency:       currency,
			CreatedAt:      createdAt,
		},
		Rate: rate,
	}
}

func (i *RecurringItem) Type() types.InvoiceItemType {
	return types.INVOICE_ITEM_RECURRING
}

func (i *RecurringItem) MatchKey() MatchKey {
	return i.matchKey(types.INVOICE_ITEM_RECURRING)
}

// Reverses reports whether the item is a credit cancelling another item.
func (i *RecurringItem) Reverses() bool {
	return i.ReversesItemID != ""
}

// AsCredit returns a new item that reverses this one: same identity fields
// and period, negated amount, fresh surrogate id, ReversesItemID pointing
// back at this item.
func (i *RecurringItem) AsCredit(createdAt time.Time) *RecurringItem {
	credit := NewRecurringItem(i.InvoiceID, i.SubscriptionID, i.PlanName, i.PhaseName,
		i.StartDate, i.EndDate, i.Amount.Neg(), i.Rate, i.Currency, createdAt)
	credit.ReversesItemID = i.ID
	return credit
}

// SortItems orders items by start date, then subscription, plan and phase.
// This is the flattening order used for previously issued items; dedup is
// order independent, the ordering just keeps output deterministic.
func SortItems(items []Item) {
	sort.SliceStable(items, func(x, y int) bool {
		a, b := items[x], items[y]
		if !a.GetStartDate().Equal(b.GetStartDate()) {
			return a.GetStartDate().Before(b.GetStartDate())
		}
		if a.GetSubscriptionID() != b.GetSubscriptionID() {
			return a.GetSubscriptionID().String() < b.GetSubscriptionID().String()
		}
		if a.GetPlanName() != b.GetPlanName() {
			return a.GetPlanName() < b.GetPlanName()
		}
		return a.GetPhaseName() < b.GetPhaseName()
	})
}
