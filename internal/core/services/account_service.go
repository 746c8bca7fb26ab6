package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/merchantkit/fulfillment_ledger/internal/apperrors"
	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	portsrepo "github.com/merchantkit/fulfillment_ledger/internal/core/ports/repositories"
	portssvc "github.com/merchantkit/fulfillment_ledger/internal/core/ports/services"
	"github.com/merchantkit/fulfillment_ledger/internal/dto"
	"github.com/merchantkit/fulfillment_ledger/internal/middleware"
)

// accountService provides chart-of-accounts operations.
type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewAccountService creates a new account service.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade) portssvc.AccountSvcFacade {
	return &accountService{accountRepo: accountRepo}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount adds an account to the chart after validating the code.
func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if domain.CategoryForCode(req.Code) == domain.CategoryOther && (req.Code == "" || req.Code[0] != '7' && req.Code[0] != '8') {
		return nil, fmt.Errorf("%w: account code %q must start with a category digit 1-8", apperrors.ErrValidation, req.Code)
	}

	now := time.Now().UTC()
	account := domain.Account{
		Code:          req.Code,
		Name:          req.Name,
		NormalBalance: domain.NormalBalance(req.NormalBalance),
		Description:   req.Description,
		IsActive:      true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("code", req.Code))
		return nil, fmt.Errorf("failed to save account %s: %w", req.Code, err)
	}

	logger.Info("Account created", slog.String("code", account.Code), slog.String("category", string(account.Category())))
	return &account, nil
}

// GetAccountByCode retrieves a single account.
func (s *accountService) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", code, err)
	}
	return account, nil
}

// ListAccounts retrieves the full chart ordered by code.
func (s *accountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// ResolveAccounts fetches the given codes, failing with ErrUnknownAccount if
// any is absent or inactive.
func (s *accountService) ResolveAccounts(ctx context.Context, codes []string) (map[string]domain.Account, error) {
	unique := uniqueStrings(codes)
	accounts, err := s.accountRepo.FindAccountsByCodes(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	for _, code := range unique {
		acc, found := accounts[code]
		if !found {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownAccount, code)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("%w: %s is inactive", apperrors.ErrUnknownAccount, code)
		}
	}
	return accounts, nil
}

// uniqueStrings returns the distinct values of in, preserving first-seen order.
func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
