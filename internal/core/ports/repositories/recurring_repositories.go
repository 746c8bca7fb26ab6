package repositories

import (
	"context"
	"time"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
)

// RecurringReader defines read operations for recurring templates.
type RecurringReader interface {
	// FindTemplateByID retrieves a template by its identifier.
	FindTemplateByID(ctx context.Context, templateID string) (*domain.RecurringTemplate, error)

	// ListTemplates retrieves templates, optionally only active ones.
	ListTemplates(ctx context.Context, activeOnly bool) ([]domain.RecurringTemplate, error)

	// FindDueTemplates retrieves active templates whose nextRunDate is at or
	// before now, oldest first, up to limit.
	FindDueTemplates(ctx context.Context, now time.Time, limit int) ([]domain.RecurringTemplate, error)
}

// RecurringWriter defines write operations for recurring templates.
type RecurringWriter interface {
	// SaveTemplate persists a new template.
	SaveTemplate(ctx context.Context, template domain.RecurringTemplate) error

	// AdvanceTemplate moves a template past one run: sets nextRunDate to
	// newNextRun, lastRunDate to ranAt and increments totalRuns, but only if
	// nextRunDate still equals expectedNextRun. Returns false without error
	// when another runner advanced the template first; this conditional write
	// is what makes the scheduler idempotent per period.
	AdvanceTemplate(ctx context.Context, templateID string, expectedNextRun, newNextRun, ranAt time.Time, updatedBy string) (bool, error)

	// SetTemplateActive toggles a template's active flag.
	SetTemplateActive(ctx context.Context, templateID string, active bool, updatedBy string, now time.Time) error
}

// RecurringRepositoryFacade combines all recurring-template repository interfaces.
type RecurringRepositoryFacade interface {
	RecurringReader
	RecurringWriter
}
