package repositories

import (
	"context"
	"time"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
)

// ListEntriesFilter narrows a journal entry listing.
type ListEntriesFilter struct {
	From         *time.Time
	To           *time.Time
	Kind         *domain.EntryKind
	Status       *domain.EntryStatus
	OrderRef     *string
	NumberPrefix *string
	Limit        int
	NextToken    *string
}

// JournalReader defines read operations for journal entries.
type JournalReader interface {
	// FindEntryByID retrieves an entry header with its lines.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// FindEntryByNumber retrieves an entry by its human-readable number.
	FindEntryByNumber(ctx context.Context, entryNumber string) (*domain.JournalEntry, error)

	// FindEntriesByOrderRef retrieves all entries posted against an order,
	// lines included, in creation order.
	FindEntriesByOrderRef(ctx context.Context, orderRef string) ([]domain.JournalEntry, error)

	// ListEntries retrieves a paginated, filtered list of entry headers.
	ListEntries(ctx context.Context, filter ListEntriesFilter) ([]domain.JournalEntry, *string, error)

	// FindLinesByEntryID retrieves the lines of one entry.
	FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error)
}

// JournalWriter defines write operations for journal entries.
type JournalWriter interface {
	// SaveEntry persists the entry header and all its lines atomically,
	// allocating the next JV-{year}-{seq} number from the per-year sequence
	// inside the same transaction. The allocated number is written back into
	// entry.EntryNumber. An entry-number collision under concurrency surfaces
	// as ErrDuplicateEntryNumber; the caller retries with a fresh allocation.
	SaveEntry(ctx context.Context, entry *domain.JournalEntry) error

	// PostDraftEntry transitions a DRAFT entry to POSTED. Returns ErrNotFound
	// if the entry does not exist or is not a draft.
	PostDraftEntry(ctx context.Context, entryID, updatedBy string, now time.Time) error
}

// JournalRepositoryFacade combines all journal repository interfaces.
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
}
