package services

import (
	"context"
	"time"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
)

// ReportingSvcFacade folds posted ledger lines into financial statements.
// Pure reads; safe to run concurrently with posting.
type ReportingSvcFacade interface {
	// TrialBalance lists per-account debit/credit totals as of a date.
	TrialBalance(ctx context.Context, asOf time.Time) ([]domain.TrialBalanceRow, error)

	// IncomeStatement is revenue minus COGS minus expenses for a period.
	IncomeStatement(ctx context.Context, from, to time.Time) (*domain.IncomeStatement, error)

	// BalanceSheet is assets against liabilities plus equity as of a date.
	BalanceSheet(ctx context.Context, asOf time.Time) (*domain.BalanceSheet, error)

	// CashFlow buckets period activity into operating/investing/financing.
	CashFlow(ctx context.Context, from, to time.Time) (*domain.CashFlowStatement, error)
}
