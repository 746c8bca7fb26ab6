package services

import (
	"context"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	"github.com/merchantkit/fulfillment_ledger/internal/dto"
)

// AccountSvcFacade exposes chart-of-accounts operations.
type AccountSvcFacade interface {
	// CreateAccount adds an account to the chart after validating its code
	// format and normal balance.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error)

	// GetAccountByCode retrieves a single account.
	GetAccountByCode(ctx context.Context, code string) (*domain.Account, error)

	// ListAccounts retrieves the full chart ordered by code.
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// ResolveAccounts fetches the given codes and fails with ErrUnknownAccount
	// if any is missing or inactive. Used by the ledger engine to validate
	// candidate entries.
	ResolveAccounts(ctx context.Context, codes []string) (map[string]domain.Account, error)
}
