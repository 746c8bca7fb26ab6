package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	portsrepo "github.com/merchantkit/fulfillment_ledger/internal/core/ports/repositories"
	portssvc "github.com/merchantkit/fulfillment_ledger/internal/core/ports/services"
	"github.com/merchantkit/fulfillment_ledger/internal/core/services"
	"github.com/merchantkit/fulfillment_ledger/internal/platform/cache"
)

// --- Mock ReportingRepository ---
type MockReportingRepository struct {
	mock.Mock
}

var _ portsrepo.ReportingRepository = (*MockReportingRepository)(nil)

func (m *MockReportingRepository) GetAccountActivity(ctx context.Context, from, to time.Time) ([]portsrepo.AccountActivity, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]portsrepo.AccountActivity), args.Error(1)
}

func (m *MockReportingRepository) GetAccountBalances(ctx context.Context, asOf time.Time) ([]portsrepo.AccountActivity, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]portsrepo.AccountActivity), args.Error(1)
}

// memoryCache is a map-backed cache.Cache for exercising the statement cache
// path without redis.
type memoryCache struct {
	entries map[string][]byte
}

var _ cache.Cache = (*memoryCache)(nil)

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest any) error {
	raw, ok := c.entries[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

// --- Test Suite Setup ---
type ReportingServiceTestSuite struct {
	suite.Suite
	mockRepo *MockReportingRepository
	service  portssvc.ReportingSvcFacade
	from     time.Time
	to       time.Time
}

func (suite *ReportingServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockReportingRepository)
	suite.service = services.NewReportingService(suite.mockRepo, cache.NoopCache{}, time.Minute, 1499)
	suite.from = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	suite.to = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
}

// postedActivity is one month of posted lines: a 70.00 sale with 5.60 tax and
// a 2.49 fee over a 25.00 cost of goods, funded by 625.00 of owner equity.
func (suite *ReportingServiceTestSuite) postedActivity() []portsrepo.AccountActivity {
	d := decimal.RequireFromString
	return []portsrepo.AccountActivity{
		{AccountCode: "1000", AccountName: "Stripe Cash", NormalBalance: domain.DebitNormal, Debit: d("75.60"), Credit: d("2.49")},
		{AccountCode: "1200", AccountName: "Inventory", NormalBalance: domain.DebitNormal, Debit: d("625.00"), Credit: d("25.00")},
		{AccountCode: "2100", AccountName: "Sales Tax Payable", NormalBalance: domain.CreditNormal, Debit: decimal.Zero, Credit: d("5.60")},
		{AccountCode: "3000", AccountName: "Owner Equity", NormalBalance: domain.CreditNormal, Debit: decimal.Zero, Credit: d("625.00")},
		{AccountCode: "4000", AccountName: "Sales Revenue", NormalBalance: domain.CreditNormal, Debit: decimal.Zero, Credit: d("70.00")},
		{AccountCode: "5000", AccountName: "Cost of Goods Sold", NormalBalance: domain.DebitNormal, Debit: d("25.00"), Credit: decimal.Zero},
		{AccountCode: "6100", AccountName: "Payment Processing Fees", NormalBalance: domain.DebitNormal, Debit: d("2.49"), Credit: decimal.Zero},
	}
}

func (suite *ReportingServiceTestSuite) findAmount(amounts []domain.AccountAmount, code string) *decimal.Decimal {
	for _, a := range amounts {
		if a.AccountCode == code {
			return &a.NetAmount
		}
	}
	return nil
}

// --- Test Cases ---

func (suite *ReportingServiceTestSuite) TestTrialBalance() {
	ctx := context.Background()
	suite.mockRepo.On("GetAccountBalances", ctx, suite.to).Return(suite.postedActivity(), nil).Once()

	rows, err := suite.service.TrialBalance(ctx, suite.to)

	suite.Require().NoError(err)
	suite.Require().Len(rows, 7)
	suite.Equal(domain.CategoryAsset, rows[0].Category)
	suite.Equal(domain.CategoryRevenue, rows[4].Category)

	totalDebits, totalCredits := decimal.Zero, decimal.Zero
	for _, r := range rows {
		totalDebits = totalDebits.Add(r.Debit)
		totalCredits = totalCredits.Add(r.Credit)
	}
	suite.True(totalDebits.Equal(totalCredits), "trial balance must balance: %s vs %s", totalDebits, totalCredits)
}

func (suite *ReportingServiceTestSuite) TestIncomeStatement() {
	ctx := context.Background()
	suite.mockRepo.On("GetAccountActivity", ctx, suite.from, suite.to).Return(suite.postedActivity(), nil).Once()

	stmt, err := suite.service.IncomeStatement(ctx, suite.from, suite.to)

	suite.Require().NoError(err)
	suite.Require().Len(stmt.Revenue, 1)
	suite.True(stmt.Revenue[0].NetAmount.Equal(decimal.RequireFromString("70.00")))
	suite.Require().Len(stmt.COGS, 1)
	suite.True(stmt.COGS[0].NetAmount.Equal(decimal.RequireFromString("25.00")))
	suite.Require().Len(stmt.Expenses, 1)
	suite.True(stmt.Expenses[0].NetAmount.Equal(decimal.RequireFromString("2.49")))
	suite.True(stmt.GrossProfit.Equal(decimal.RequireFromString("45.00")))
	suite.True(stmt.NetIncome.Equal(decimal.RequireFromString("42.51")))
}

func (suite *ReportingServiceTestSuite) TestBalanceSheet_BalancesViaRetainedEarnings() {
	ctx := context.Background()
	suite.mockRepo.On("GetAccountBalances", ctx, suite.to).Return(suite.postedActivity(), nil).Once()

	stmt, err := suite.service.BalanceSheet(ctx, suite.to)

	suite.Require().NoError(err)
	// 1000 and 1200 both sit under the 1499 current-asset boundary.
	suite.Len(stmt.CurrentAssets, 2)
	suite.Empty(stmt.NonCurrentAssets)
	suite.True(stmt.TotalAssets.Equal(decimal.RequireFromString("673.11")), "got %s", stmt.TotalAssets)
	suite.True(stmt.TotalLiabilities.Equal(decimal.RequireFromString("5.60")))
	suite.True(stmt.RetainedEarnings.Equal(decimal.RequireFromString("42.51")))
	suite.True(stmt.TotalEquity.Equal(decimal.RequireFromString("667.51")))
	suite.True(stmt.TotalAssets.Equal(stmt.TotalLiabilities.Add(stmt.TotalEquity)), "assets must equal liabilities plus equity")
}

func (suite *ReportingServiceTestSuite) TestCashFlow_PartitionsNetCashChange() {
	ctx := context.Background()
	suite.mockRepo.On("GetAccountActivity", ctx, suite.from, suite.to).Return(suite.postedActivity(), nil).Once()

	stmt, err := suite.service.CashFlow(ctx, suite.from, suite.to)

	suite.Require().NoError(err)
	// Cash accounts themselves are excluded; everything here is the cash
	// effect of the non-cash accounts.
	suite.Nil(suite.findAmount(stmt.Operating, "1000"))

	inventory := suite.findAmount(stmt.Operating, "1200")
	suite.Require().NotNil(inventory)
	suite.True(inventory.Equal(decimal.RequireFromString("-600.00")), "inventory buildup consumes cash, got %s", inventory)

	equity := suite.findAmount(stmt.Financing, "3000")
	suite.Require().NotNil(equity)
	suite.True(equity.Equal(decimal.RequireFromString("625.00")))

	// Net change reconciles to the cash accounts' own debit-net: 75.60 - 2.49.
	suite.True(stmt.NetCashChange.Equal(decimal.RequireFromString("73.11")), "got %s", stmt.NetCashChange)
	suite.True(stmt.NetCashChange.Equal(stmt.NetOperating.Add(stmt.NetInvesting).Add(stmt.NetFinancing)))
}

func (suite *ReportingServiceTestSuite) TestCashFlow_NonCurrentAssetIsInvesting() {
	ctx := context.Background()
	d := decimal.RequireFromString
	activity := []portsrepo.AccountActivity{
		{AccountCode: "1000", AccountName: "Stripe Cash", NormalBalance: domain.DebitNormal, Debit: decimal.Zero, Credit: d("900.00")},
		{AccountCode: "1500", AccountName: "Equipment", NormalBalance: domain.DebitNormal, Debit: d("900.00"), Credit: decimal.Zero},
	}
	suite.mockRepo.On("GetAccountActivity", ctx, suite.from, suite.to).Return(activity, nil).Once()

	stmt, err := suite.service.CashFlow(ctx, suite.from, suite.to)

	suite.Require().NoError(err)
	equipment := suite.findAmount(stmt.Investing, "1500")
	suite.Require().NotNil(equipment)
	suite.True(equipment.Equal(decimal.RequireFromString("-900.00")))
	suite.True(stmt.NetCashChange.Equal(decimal.RequireFromString("-900.00")))
}

func (suite *ReportingServiceTestSuite) TestIncomeStatement_SecondCallServedFromCache() {
	ctx := context.Background()
	cachedSvc := services.NewReportingService(suite.mockRepo, newMemoryCache(), time.Minute, 1499)
	suite.mockRepo.On("GetAccountActivity", ctx, suite.from, suite.to).Return(suite.postedActivity(), nil).Once()

	first, err := cachedSvc.IncomeStatement(ctx, suite.from, suite.to)
	suite.Require().NoError(err)

	second, err := cachedSvc.IncomeStatement(ctx, suite.from, suite.to)
	suite.Require().NoError(err)

	suite.True(first.NetIncome.Equal(second.NetIncome))
	suite.mockRepo.AssertNumberOfCalls(suite.T(), "GetAccountActivity", 1)
}

func TestReportingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReportingServiceTestSuite))
}
