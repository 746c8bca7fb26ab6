package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/merchantkit/fulfillment_ledger/internal/apperrors"
	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	portsrepo "github.com/merchantkit/fulfillment_ledger/internal/core/ports/repositories"
)

type PgxRecurringRepository struct {
	BaseRepository
}

// newPgxRecurringRepository creates a new repository for recurring templates.
func newPgxRecurringRepository(pool *pgxpool.Pool) portsrepo.RecurringRepositoryFacade {
	return &PgxRecurringRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.RecurringRepositoryFacade = (*PgxRecurringRepository)(nil)

const templateColumns = `template_id, name, description, frequency, day_of_month, amount, debit_account_code, credit_account_code, next_run_date, last_run_date, is_active, auto_post, total_runs, created_at, created_by, last_updated_at, last_updated_by`

func scanTemplate(row pgx.Row) (domain.RecurringTemplate, error) {
	var t domain.RecurringTemplate
	err := row.Scan(
		&t.TemplateID,
		&t.Name,
		&t.Description,
		&t.Frequency,
		&t.DayOfMonth,
		&t.Amount,
		&t.DebitAccountCode,
		&t.CreditAccountCode,
		&t.NextRunDate,
		&t.LastRunDate,
		&t.IsActive,
		&t.AutoPost,
		&t.TotalRuns,
		&t.CreatedAt,
		&t.CreatedBy,
		&t.LastUpdatedAt,
		&t.LastUpdatedBy,
	)
	return t, err
}

// SaveTemplate persists a new template.
func (r *PgxRecurringRepository) SaveTemplate(ctx context.Context, template domain.RecurringTemplate) error {
	query := `
		INSERT INTO recurring_templates (template_id, name, description, frequency, day_of_month, amount, debit_account_code, credit_account_code, next_run_date, last_run_date, is_active, auto_post, total_runs, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err := r.Pool.Exec(ctx, query,
		template.TemplateID,
		template.Name,
		template.Description,
		template.Frequency,
		template.DayOfMonth,
		template.Amount,
		template.DebitAccountCode,
		template.CreditAccountCode,
		template.NextRunDate,
		template.LastRunDate,
		template.IsActive,
		template.AutoPost,
		template.TotalRuns,
		template.CreatedAt,
		template.CreatedBy,
		template.LastUpdatedAt,
		template.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert recurring template "+template.TemplateID, err)
	}
	return nil
}

// FindTemplateByID retrieves a template by its identifier.
func (r *PgxRecurringRepository) FindTemplateByID(ctx context.Context, templateID string) (*domain.RecurringTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM recurring_templates WHERE template_id = $1;`
	t, err := scanTemplate(r.Pool.QueryRow(ctx, query, templateID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find recurring template "+templateID, err)
	}
	return &t, nil
}

// ListTemplates retrieves templates, optionally only active ones.
func (r *PgxRecurringRepository) ListTemplates(ctx context.Context, activeOnly bool) ([]domain.RecurringTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM recurring_templates`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY next_run_date;`

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query recurring templates", err)
	}
	defer rows.Close()

	templates := []domain.RecurringTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan recurring template row", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating recurring template rows", err)
	}
	return templates, nil
}

// FindDueTemplates retrieves active templates due at or before now.
func (r *PgxRecurringRepository) FindDueTemplates(ctx context.Context, now time.Time, limit int) ([]domain.RecurringTemplate, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM recurring_templates
		WHERE is_active AND next_run_date <= $1
		ORDER BY next_run_date
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query due recurring templates", err)
	}
	defer rows.Close()

	templates := []domain.RecurringTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan recurring template row", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating recurring template rows", err)
	}
	return templates, nil
}

// AdvanceTemplate moves a template past one run with a conditional write.
// Returns false when the template was already advanced by another runner.
func (r *PgxRecurringRepository) AdvanceTemplate(ctx context.Context, templateID string, expectedNextRun, newNextRun, ranAt time.Time, updatedBy string) (bool, error) {
	query := `
		UPDATE recurring_templates
		SET next_run_date = $3,
		    last_run_date = $4,
		    total_runs = total_runs + 1,
		    last_updated_at = $4,
		    last_updated_by = $5
		WHERE template_id = $1 AND next_run_date = $2;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, templateID, expectedNextRun, newNextRun, ranAt, updatedBy)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to advance recurring template "+templateID, err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// SetTemplateActive toggles a template's active flag.
func (r *PgxRecurringRepository) SetTemplateActive(ctx context.Context, templateID string, active bool, updatedBy string, now time.Time) error {
	query := `
		UPDATE recurring_templates
		SET is_active = $2, last_updated_at = $3, last_updated_by = $4
		WHERE template_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, templateID, active, now, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update recurring template "+templateID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
