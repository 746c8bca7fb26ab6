package repositories

import (
	"context"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
)

// AccountReader defines read operations over the chart of accounts.
type AccountReader interface {
	// FindAccountByCode retrieves a single account by its code.
	FindAccountByCode(ctx context.Context, code string) (*domain.Account, error)

	// FindAccountsByCodes retrieves several accounts at once, keyed by code.
	// Codes absent from the chart are simply missing from the result map.
	FindAccountsByCodes(ctx context.Context, codes []string) (map[string]domain.Account, error)

	// ListAccounts retrieves the full chart, ordered by code.
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

// AccountWriter defines write operations over the chart of accounts.
type AccountWriter interface {
	// SaveAccount persists a new account. Fails with ErrDuplicate if the code
	// is already taken.
	SaveAccount(ctx context.Context, account domain.Account) error
}

// AccountRepositoryFacade combines all chart-of-accounts repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
