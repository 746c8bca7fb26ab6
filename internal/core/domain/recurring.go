package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecurringFrequency is the cadence of a recurring template.
type RecurringFrequency string

const (
	Daily     RecurringFrequency = "DAILY"
	Weekly    RecurringFrequency = "WEEKLY"
	Monthly   RecurringFrequency = "MONTHLY"
	Quarterly RecurringFrequency = "QUARTERLY"
	Yearly    RecurringFrequency = "YEARLY"
)

// RecurringTemplate generates a 2-line journal entry each time it falls due.
type RecurringTemplate struct {
	TemplateID        string             `json:"templateID"`
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	Frequency         RecurringFrequency `json:"frequency"`
	DayOfMonth        *int               `json:"dayOfMonth,omitempty"` // MONTHLY/QUARTERLY/YEARLY only
	Amount            decimal.Decimal    `json:"amount"`
	DebitAccountCode  string             `json:"debitAccountCode"`
	CreditAccountCode string             `json:"creditAccountCode"`
	NextRunDate       time.Time          `json:"nextRunDate"`
	LastRunDate       *time.Time         `json:"lastRunDate,omitempty"`
	IsActive          bool               `json:"isActive"`
	AutoPost          bool               `json:"autoPost"`
	TotalRuns         int                `json:"totalRuns"`
	AuditFields
}

// NextAfter computes the run date that follows from, honoring DayOfMonth for
// month-anchored cadences. Day-of-month values past the end of the target
// month clamp to its last day.
func (t RecurringTemplate) NextAfter(from time.Time) time.Time {
	switch t.Frequency {
	case Daily:
		return from.AddDate(0, 0, 1)
	case Weekly:
		return from.AddDate(0, 0, 7)
	case Monthly:
		return addMonthsAnchored(from, 1, t.DayOfMonth)
	case Quarterly:
		return addMonthsAnchored(from, 3, t.DayOfMonth)
	case Yearly:
		return addMonthsAnchored(from, 12, t.DayOfMonth)
	default:
		return from.AddDate(0, 1, 0)
	}
}

func addMonthsAnchored(from time.Time, months int, dayOfMonth *int) time.Time {
	day := from.Day()
	if dayOfMonth != nil && *dayOfMonth >= 1 && *dayOfMonth <= 31 {
		day = *dayOfMonth
	}
	year, month, _ := from.Date()
	// Normalize to the first of the target month before clamping the day so
	// Go's date arithmetic cannot spill into the following month.
	first := time.Date(year, month, 1, from.Hour(), from.Minute(), from.Second(), 0, from.Location())
	target := first.AddDate(0, months, 0)
	if last := lastDayOfMonth(target); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, from.Hour(), from.Minute(), from.Second(), 0, from.Location())
}

func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, -1).Day()
}
