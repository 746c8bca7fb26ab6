package domain_test

import (
	"testing"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatEntryNumber(t *testing.T) {
	tests := []struct {
		name string
		year int
		seq  int64
		want string
	}{
		{name: "low sequence is zero padded", year: 2026, seq: 42, want: "JV-2026-0042"},
		{name: "first entry of the year", year: 2026, seq: 1, want: "JV-2026-0001"},
		{name: "sequence beyond padding width keeps all digits", year: 2026, seq: 12345, want: "JV-2026-12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.FormatEntryNumber(tt.year, tt.seq))
		})
	}
}

func TestJournalEntry_Totals(t *testing.T) {
	entry := domain.JournalEntry{
		Lines: []domain.JournalLine{
			{AccountCode: "1000", Debit: decimal.RequireFromString("75.60"), Credit: decimal.Zero},
			{AccountCode: "4000", Debit: decimal.Zero, Credit: decimal.RequireFromString("70.00")},
			{AccountCode: "2100", Debit: decimal.Zero, Credit: decimal.RequireFromString("5.60")},
		},
	}

	assert.True(t, entry.TotalDebits().Equal(decimal.RequireFromString("75.60")))
	assert.True(t, entry.TotalCredits().Equal(decimal.RequireFromString("75.60")))
}

func TestJournalEntry_TotalsEmpty(t *testing.T) {
	entry := domain.JournalEntry{}

	assert.True(t, entry.TotalDebits().IsZero())
	assert.True(t, entry.TotalCredits().IsZero())
}
