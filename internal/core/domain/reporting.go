package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountAmount is an account with its net amount for a statement section.
type AccountAmount struct {
	AccountCode string          `json:"accountCode"`
	Name        string          `json:"name"`
	NetAmount   decimal.Decimal `json:"netAmount"`
}

// TrialBalanceRow is a single row in a trial balance report.
type TrialBalanceRow struct {
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	Category    AccountCategory `json:"category"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// IncomeStatement is revenue minus COGS minus expenses plus other activity
// for a period, folded from posted lines.
type IncomeStatement struct {
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	Revenue     []AccountAmount `json:"revenue"`
	COGS        []AccountAmount `json:"cogs"`
	Expenses    []AccountAmount `json:"expenses"`
	Other       []AccountAmount `json:"other"`
	GrossProfit decimal.Decimal `json:"grossProfit"`
	NetIncome   decimal.Decimal `json:"netIncome"`
}

// BalanceSheet is assets against liabilities plus equity as of a date.
// TotalAssets must equal TotalLiabilities + TotalEquity + retained net income.
type BalanceSheet struct {
	AsOf              time.Time       `json:"asOf"`
	CurrentAssets     []AccountAmount `json:"currentAssets"`
	NonCurrentAssets  []AccountAmount `json:"nonCurrentAssets"`
	Liabilities       []AccountAmount `json:"liabilities"`
	Equity            []AccountAmount `json:"equity"`
	RetainedEarnings  decimal.Decimal `json:"retainedEarnings"`
	TotalAssets       decimal.Decimal `json:"totalAssets"`
	TotalLiabilities  decimal.Decimal `json:"totalLiabilities"`
	TotalEquity       decimal.Decimal `json:"totalEquity"`
}

// CashFlowStatement buckets the same posted lines into operating, investing
// and financing activity for a period.
type CashFlowStatement struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Operating     []AccountAmount `json:"operating"`
	Investing     []AccountAmount `json:"investing"`
	Financing     []AccountAmount `json:"financing"`
	NetOperating  decimal.Decimal `json:"netOperating"`
	NetInvesting  decimal.Decimal `json:"netInvesting"`
	NetFinancing  decimal.Decimal `json:"netFinancing"`
	NetCashChange decimal.Decimal `json:"netCashChange"`
}
