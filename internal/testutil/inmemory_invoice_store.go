package testutil

import (
	"context"

	"github.com/google/uuid"

	"github.com/billforge/billforge/internal/domain/invoice"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
}

// NewInMemoryInvoiceStore creates a new in-memory invoice store
func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
	}
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	return s.InMemoryStore.Create(ctx, inv.ID, inv)
}

func (s *InMemoryInvoiceStore) GetByAccount(ctx context.Context, accountID uuid.UUID) ([]*invoice.Invoice, error) {
	return s.List(ctx, accountID,
		func(_ context.Context, inv *invoice.Invoice, filter interface{}) bool {
			return inv.AccountID == filter.(uuid.UUID)
		},
		func(a, b *invoice.Invoice) bool {
			if a.InvoiceDate.Equal(b.InvoiceDate) {
				return a.ID < b.ID
			}
			return a.InvoiceDate.Before(b.InvoiceDate)
		})
}
