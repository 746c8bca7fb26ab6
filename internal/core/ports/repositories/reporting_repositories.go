package repositories

import (
	"context"
	"time"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountActivity is the per-account debit/credit aggregate the statement
// folds are built from. Only POSTED lines contribute.
type AccountActivity struct {
	AccountCode   string
	AccountName   string
	NormalBalance domain.NormalBalance
	Debit         decimal.Decimal
	Credit        decimal.Decimal
}

// ReportingRepository defines the read-only aggregation queries behind the
// statement views. Safe to run concurrently with posting: read-committed
// isolation over committed POSTED data is sufficient.
type ReportingRepository interface {
	// GetAccountActivity aggregates posted line amounts per account for lines
	// whose entry date falls within [from, to].
	GetAccountActivity(ctx context.Context, from, to time.Time) ([]AccountActivity, error)

	// GetAccountBalances aggregates posted line amounts per account for all
	// lines dated at or before asOf.
	GetAccountBalances(ctx context.Context, asOf time.Time) ([]AccountActivity, error)
}
