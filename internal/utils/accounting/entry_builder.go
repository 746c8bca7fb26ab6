package accounting

import (
	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EntryBuilder accumulates journal lines for a candidate entry. Zero-amount
// lines are skipped at append time, so conditionally present lines (tax
// components in particular) keep the balance invariant satisfied by
// construction instead of asserted after the fact.
type EntryBuilder struct {
	lines []domain.JournalLine
}

// NewEntryBuilder returns an empty builder.
func NewEntryBuilder() *EntryBuilder {
	return &EntryBuilder{}
}

// Debit appends a debit line unless amount is zero.
func (b *EntryBuilder) Debit(accountCode string, amount decimal.Decimal, description string) *EntryBuilder {
	if amount.IsZero() {
		return b
	}
	b.lines = append(b.lines, domain.JournalLine{
		AccountCode: accountCode,
		Debit:       amount,
		Credit:      decimal.Zero,
		Description: description,
	})
	return b
}

// Credit appends a credit line unless amount is zero.
func (b *EntryBuilder) Credit(accountCode string, amount decimal.Decimal, description string) *EntryBuilder {
	if amount.IsZero() {
		return b
	}
	b.lines = append(b.lines, domain.JournalLine{
		AccountCode: accountCode,
		Debit:       decimal.Zero,
		Credit:      amount,
		Description: description,
	})
	return b
}

// Lines returns the accumulated lines.
func (b *EntryBuilder) Lines() []domain.JournalLine {
	return b.lines
}
