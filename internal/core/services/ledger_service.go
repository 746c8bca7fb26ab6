package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/merchantkit/fulfillment_ledger/internal/apperrors"
	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	portsrepo "github.com/merchantkit/fulfillment_ledger/internal/core/ports/repositories"
	portssvc "github.com/merchantkit/fulfillment_ledger/internal/core/ports/services"
	"github.com/merchantkit/fulfillment_ledger/internal/middleware"
	"github.com/merchantkit/fulfillment_ledger/internal/utils/accounting"
)

// ledgerService owns journal entry creation and numbering. Nothing else in
// the system writes journal entries or lines.
type ledgerService struct {
	journalRepo portsrepo.JournalRepositoryFacade
	accountSvc  portssvc.AccountSvcFacade
	maxRetries  int
}

// NewLedgerService creates a new ledger engine.
func NewLedgerService(journalRepo portsrepo.JournalRepositoryFacade, accountSvc portssvc.AccountSvcFacade, maxRetries int) portssvc.LedgerSvcFacade {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &ledgerService{
		journalRepo: journalRepo,
		accountSvc:  accountSvc,
		maxRetries:  maxRetries,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// Post validates, numbers and persists the entry as POSTED.
func (s *ledgerService) Post(ctx context.Context, in portssvc.PostEntryInput, userID string) (*domain.JournalEntry, error) {
	return s.save(ctx, in, domain.Posted, userID)
}

// SaveDraft validates, numbers and persists the entry as DRAFT.
func (s *ledgerService) SaveDraft(ctx context.Context, in portssvc.PostEntryInput, userID string) (*domain.JournalEntry, error) {
	return s.save(ctx, in, domain.Draft, userID)
}

func (s *ledgerService) save(ctx context.Context, in portssvc.PostEntryInput, status domain.EntryStatus, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if in.Description == "" {
		return nil, fmt.Errorf("%w: entry description is required", apperrors.ErrValidation)
	}
	if err := accounting.ValidateEntryBalance(in.Lines); err != nil {
		return nil, err
	}

	codes := make([]string, len(in.Lines))
	for i, l := range in.Lines {
		codes[i] = l.AccountCode
	}
	if _, err := s.accountSvc.ResolveAccounts(ctx, codes); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := domain.JournalEntry{
		EntryID:     uuid.NewString(),
		EntryDate:   in.Date,
		Description: in.Description,
		Kind:        in.Kind,
		Status:      status,
		Reference:   in.Reference,
		OrderRef:    in.OrderRef,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	entry.Lines = make([]domain.JournalLine, len(in.Lines))
	for i, l := range in.Lines {
		l.LineID = uuid.NewString()
		l.EntryID = entry.EntryID
		entry.Lines[i] = l
	}

	// Entry-number allocation can collide under concurrent posting; the
	// engine retries with a fresh allocation a bounded number of times before
	// surfacing the race to the caller.
	var err error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err = s.journalRepo.SaveEntry(ctx, &entry)
		if err == nil {
			logger.Info("Journal entry saved",
				slog.String("entry_id", entry.EntryID),
				slog.String("entry_number", entry.EntryNumber),
				slog.String("kind", string(entry.Kind)),
				slog.String("status", string(status)))
			return &entry, nil
		}
		if !errors.Is(err, apperrors.ErrDuplicateEntryNumber) {
			break
		}
		logger.Warn("Entry number collision, retrying",
			slog.String("entry_id", entry.EntryID),
			slog.Int("attempt", attempt))
	}

	logger.Error("Failed to save journal entry", slog.String("error", err.Error()), slog.String("entry_id", entry.EntryID))
	return nil, fmt.Errorf("failed to save journal entry: %w", err)
}

// PostDraft finalizes a previously saved draft.
func (s *ledgerService) PostDraft(ctx context.Context, entryID, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.journalRepo.PostDraftEntry(ctx, entryID, userID, time.Now().UTC()); err != nil {
		logger.Error("Failed to post draft entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return fmt.Errorf("failed to post draft entry %s: %w", entryID, err)
	}

	logger.Info("Draft entry posted", slog.String("entry_id", entryID))
	return nil
}

// GetEntryByID retrieves an entry with its lines.
func (s *ledgerService) GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find journal entry %s: %w", entryID, err)
	}
	return entry, nil
}

// GetEntryByNumber retrieves an entry by its JV number.
func (s *ledgerService) GetEntryByNumber(ctx context.Context, entryNumber string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByNumber(ctx, entryNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to find journal entry %s: %w", entryNumber, err)
	}
	return entry, nil
}

// GetEntriesByOrderRef retrieves all entries posted against an order.
func (s *ledgerService) GetEntriesByOrderRef(ctx context.Context, orderRef string) ([]domain.JournalEntry, error) {
	entries, err := s.journalRepo.FindEntriesByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, fmt.Errorf("failed to find journal entries for order %s: %w", orderRef, err)
	}
	return entries, nil
}

// ListEntries retrieves a filtered, paginated list of entry headers.
func (s *ledgerService) ListEntries(ctx context.Context, filter portsrepo.ListEntriesFilter) ([]domain.JournalEntry, *string, error) {
	return s.journalRepo.ListEntries(ctx, filter)
}
