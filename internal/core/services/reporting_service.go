package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	portsrepo "github.com/merchantkit/fulfillment_ledger/internal/core/ports/repositories"
	portssvc "github.com/merchantkit/fulfillment_ledger/internal/core/ports/services"
	"github.com/merchantkit/fulfillment_ledger/internal/middleware"
	"github.com/merchantkit/fulfillment_ledger/internal/platform/cache"
)

// Codes at or below cashCodeMax count as cash and equivalents for the cash
// flow statement.
const cashCodeMax = 1099

const statementDateLayout = "2006-01-02"

// reportingService folds posted line aggregates into statements. Results are
// cached briefly; statements over a ledger that is being posted to are
// point-in-time reads either way.
type reportingService struct {
	reportingRepo       portsrepo.ReportingRepository
	cache               cache.Cache
	cacheTTL            time.Duration
	currentAssetCodeMax int
}

// NewReportingService creates a new statement aggregator.
func NewReportingService(reportingRepo portsrepo.ReportingRepository, statementCache cache.Cache, cacheTTL time.Duration, currentAssetCodeMax int) portssvc.ReportingSvcFacade {
	return &reportingService{
		reportingRepo:       reportingRepo,
		cache:               statementCache,
		cacheTTL:            cacheTTL,
		currentAssetCodeMax: currentAssetCodeMax,
	}
}

var _ portssvc.ReportingSvcFacade = (*reportingService)(nil)

// TrialBalance lists per-account debit/credit totals as of a date.
func (s *reportingService) TrialBalance(ctx context.Context, asOf time.Time) ([]domain.TrialBalanceRow, error) {
	activity, err := s.reportingRepo.GetAccountBalances(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to build trial balance: %w", err)
	}

	rows := make([]domain.TrialBalanceRow, 0, len(activity))
	for _, a := range activity {
		rows = append(rows, domain.TrialBalanceRow{
			AccountCode: a.AccountCode,
			AccountName: a.AccountName,
			Category:    domain.CategoryForCode(a.AccountCode),
			Debit:       a.Debit,
			Credit:      a.Credit,
		})
	}
	return rows, nil
}

// IncomeStatement is revenue minus COGS minus expenses for a period.
func (s *reportingService) IncomeStatement(ctx context.Context, from, to time.Time) (*domain.IncomeStatement, error) {
	key := statementKey("income", from, to)
	var cached domain.IncomeStatement
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	activity, err := s.reportingRepo.GetAccountActivity(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to build income statement: %w", err)
	}

	stmt := &domain.IncomeStatement{From: from, To: to}
	revenue, cogs, expenses, other := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for _, a := range activity {
		switch domain.CategoryForCode(a.AccountCode) {
		case domain.CategoryRevenue:
			net := a.Credit.Sub(a.Debit)
			stmt.Revenue = appendNonZero(stmt.Revenue, a, net)
			revenue = revenue.Add(net)
		case domain.CategoryCOGS:
			net := a.Debit.Sub(a.Credit)
			stmt.COGS = appendNonZero(stmt.COGS, a, net)
			cogs = cogs.Add(net)
		case domain.CategoryExpense:
			net := a.Debit.Sub(a.Credit)
			stmt.Expenses = appendNonZero(stmt.Expenses, a, net)
			expenses = expenses.Add(net)
		case domain.CategoryOther:
			// Other income/expense accounts carry their signed credit net.
			net := a.Credit.Sub(a.Debit)
			stmt.Other = appendNonZero(stmt.Other, a, net)
			other = other.Add(net)
		}
	}
	stmt.GrossProfit = revenue.Sub(cogs)
	stmt.NetIncome = stmt.GrossProfit.Sub(expenses).Add(other)

	s.cacheSet(ctx, key, stmt)
	return stmt, nil
}

// BalanceSheet is assets against liabilities plus equity as of a date.
// Retained earnings absorbs lifetime income activity so the sheet balances
// without a closing process.
func (s *reportingService) BalanceSheet(ctx context.Context, asOf time.Time) (*domain.BalanceSheet, error) {
	key := statementKey("balance", asOf, asOf)
	var cached domain.BalanceSheet
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	activity, err := s.reportingRepo.GetAccountBalances(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to build balance sheet: %w", err)
	}

	stmt := &domain.BalanceSheet{AsOf: asOf}
	for _, a := range activity {
		switch domain.CategoryForCode(a.AccountCode) {
		case domain.CategoryAsset:
			net := a.Debit.Sub(a.Credit)
			if codeNumber(a.AccountCode) <= s.currentAssetCodeMax {
				stmt.CurrentAssets = appendNonZero(stmt.CurrentAssets, a, net)
			} else {
				stmt.NonCurrentAssets = appendNonZero(stmt.NonCurrentAssets, a, net)
			}
			stmt.TotalAssets = stmt.TotalAssets.Add(net)
		case domain.CategoryLiability:
			net := a.Credit.Sub(a.Debit)
			stmt.Liabilities = appendNonZero(stmt.Liabilities, a, net)
			stmt.TotalLiabilities = stmt.TotalLiabilities.Add(net)
		case domain.CategoryEquity:
			net := a.Credit.Sub(a.Debit)
			stmt.Equity = appendNonZero(stmt.Equity, a, net)
			stmt.TotalEquity = stmt.TotalEquity.Add(net)
		case domain.CategoryRevenue, domain.CategoryCOGS, domain.CategoryExpense, domain.CategoryOther:
			stmt.RetainedEarnings = stmt.RetainedEarnings.Add(a.Credit.Sub(a.Debit))
		}
	}
	stmt.TotalEquity = stmt.TotalEquity.Add(stmt.RetainedEarnings)

	s.cacheSet(ctx, key, stmt)
	return stmt, nil
}

// CashFlow buckets period activity into operating, investing and financing
// cash effects. Because every entry balances, the cash change equals the sum
// of credit-net activity across all non-cash accounts; the buckets partition
// that sum.
func (s *reportingService) CashFlow(ctx context.Context, from, to time.Time) (*domain.CashFlowStatement, error) {
	key := statementKey("cashflow", from, to)
	var cached domain.CashFlowStatement
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	activity, err := s.reportingRepo.GetAccountActivity(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to build cash flow statement: %w", err)
	}

	stmt := &domain.CashFlowStatement{From: from, To: to}
	for _, a := range activity {
		code := codeNumber(a.AccountCode)
		if code <= cashCodeMax && domain.CategoryForCode(a.AccountCode) == domain.CategoryAsset {
			continue
		}
		// Cash effect of a non-cash account's activity.
		net := a.Credit.Sub(a.Debit)
		switch bucket := s.cashFlowBucket(a.AccountCode); bucket {
		case "operating":
			stmt.Operating = appendNonZero(stmt.Operating, a, net)
			stmt.NetOperating = stmt.NetOperating.Add(net)
		case "investing":
			stmt.Investing = appendNonZero(stmt.Investing, a, net)
			stmt.NetInvesting = stmt.NetInvesting.Add(net)
		case "financing":
			stmt.Financing = appendNonZero(stmt.Financing, a, net)
			stmt.NetFinancing = stmt.NetFinancing.Add(net)
		}
	}
	stmt.NetCashChange = stmt.NetOperating.Add(stmt.NetInvesting).Add(stmt.NetFinancing)

	s.cacheSet(ctx, key, stmt)
	return stmt, nil
}

// cashFlowBucket classifies a non-cash account by its code range: income
// accounts, current assets and liabilities are operating; non-current assets
// are investing; equity is financing.
func (s *reportingService) cashFlowBucket(accountCode string) string {
	switch domain.CategoryForCode(accountCode) {
	case domain.CategoryRevenue, domain.CategoryCOGS, domain.CategoryExpense, domain.CategoryOther, domain.CategoryLiability:
		return "operating"
	case domain.CategoryAsset:
		if codeNumber(accountCode) <= s.currentAssetCodeMax {
			return "operating"
		}
		return "investing"
	case domain.CategoryEquity:
		return "financing"
	default:
		return "operating"
	}
}

func (s *reportingService) cacheGet(ctx context.Context, key string, dest any) bool {
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		middleware.GetLoggerFromCtx(ctx).Warn("Statement cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return false
}

func (s *reportingService) cacheSet(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Statement cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func statementKey(kind string, from, to time.Time) string {
	return fmt.Sprintf("stmt:%s:%s:%s", kind, from.Format(statementDateLayout), to.Format(statementDateLayout))
}

func appendNonZero(dst []domain.AccountAmount, a portsrepo.AccountActivity, net decimal.Decimal) []domain.AccountAmount {
	if net.IsZero() {
		return dst
	}
	return append(dst, domain.AccountAmount{
		AccountCode: a.AccountCode,
		Name:        a.AccountName,
		NetAmount:   net,
	})
}

func codeNumber(accountCode string) int {
	n, err := strconv.Atoi(accountCode)
	if err != nil {
		return 0
	}
	return n
}
