package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind identifies the business event a journal entry was posted for.
type EntryKind string

const (
	AutoSale      EntryKind = "AUTO_SALE"
	AutoStripeFee EntryKind = "AUTO_STRIPE_FEE"
	AutoRefund    EntryKind = "AUTO_REFUND"
	Recurring     EntryKind = "RECURRING"
	Manual        EntryKind = "MANUAL"
)

// EntryStatus indicates whether an entry has been finalized.
type EntryStatus string

const (
	Draft  EntryStatus = "DRAFT"
	Posted EntryStatus = "POSTED"
)

// JournalEntry is a balanced financial event: a header plus its lines.
// For a POSTED entry the lines' debits and credits sum to the same value.
type JournalEntry struct {
	EntryID     string        `json:"entryID"`
	EntryNumber string        `json:"entryNumber"` // JV-{year}-{0000}
	EntryDate   time.Time     `json:"entryDate"`
	Description string        `json:"description"`
	Kind        EntryKind     `json:"kind"`
	Status      EntryStatus   `json:"status"`
	Reference   string        `json:"reference"`
	OrderRef    string        `json:"orderRef,omitempty"`
	Lines       []JournalLine `json:"lines,omitempty"`
	AuditFields
}

// JournalLine affects one account. Exactly one of Debit/Credit is nonzero.
type JournalLine struct {
	LineID      string          `json:"lineID"`
	EntryID     string          `json:"entryID"`
	AccountCode string          `json:"accountCode"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

// FormatEntryNumber renders the persisted numbering format for a year and
// sequence value, e.g. JV-2026-0042.
func FormatEntryNumber(year int, seq int64) string {
	return fmt.Sprintf("JV-%04d-%04d", year, seq)
}

// TotalDebits sums the debit side of the entry's lines.
func (e JournalEntry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredits sums the credit side of the entry's lines.
func (e JournalEntry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}
