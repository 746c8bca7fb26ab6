package services

import (
	"context"
	"time"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	portsrepo "github.com/merchantkit/fulfillment_ledger/internal/core/ports/repositories"
)

// PostEntryInput carries everything needed to create a journal entry.
type PostEntryInput struct {
	Kind        domain.EntryKind
	Date        time.Time
	Description string
	Reference   string
	OrderRef    string
	Lines       []domain.JournalLine
}

// LedgerSvcFacade owns journal entry creation and numbering.
type LedgerSvcFacade interface {
	// Post validates the candidate entry (balance invariant, known active
	// accounts), allocates the next JV number and persists header plus lines
	// atomically as POSTED. Entry-number races are retried a bounded number
	// of times before surfacing.
	Post(ctx context.Context, in PostEntryInput, userID string) (*domain.JournalEntry, error)

	// SaveDraft persists a validated entry as DRAFT for manual review.
	SaveDraft(ctx context.Context, in PostEntryInput, userID string) (*domain.JournalEntry, error)

	// PostDraft finalizes a previously saved draft.
	PostDraft(ctx context.Context, entryID, userID string) error

	// GetEntryByID retrieves an entry with its lines.
	GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// GetEntryByNumber retrieves an entry by its JV number.
	GetEntryByNumber(ctx context.Context, entryNumber string) (*domain.JournalEntry, error)

	// GetEntriesByOrderRef retrieves all entries posted against an order.
	GetEntriesByOrderRef(ctx context.Context, orderRef string) ([]domain.JournalEntry, error)

	// ListEntries retrieves a filtered, paginated list of entry headers.
	ListEntries(ctx context.Context, filter portsrepo.ListEntriesFilter) ([]domain.JournalEntry, *string, error)
}
