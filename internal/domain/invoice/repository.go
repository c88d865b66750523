package invoice

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the storage boundary for issued invoices. The engine itself
// never persists anything; callers load an account's invoice history through
// this interface and store the invoices the engine returns.
type Repository interface {
	// Create stores a newly generated invoice
	Create(ctx context.Context, inv *Invoice) error

	// GetByAccount returns every invoice ever issued for the account
	GetByAccount(ctx context.Context, accountID uuid.UUID) ([]*Invoice, error)
}
