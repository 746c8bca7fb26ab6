package pgsql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/merchantkit/fulfillment_ledger/internal/apperrors"
	portsrepo "github.com/merchantkit/fulfillment_ledger/internal/core/ports/repositories"
)

type PgxReportingRepository struct {
	BaseRepository
}

// newPgxReportingRepository creates a new repository for statement aggregates.
func newPgxReportingRepository(pool *pgxpool.Pool) portsrepo.ReportingRepository {
	return &PgxReportingRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ReportingRepository = (*PgxReportingRepository)(nil)

const activityQueryBase = `
	SELECT a.code, a.name, a.normal_balance,
	       COALESCE(SUM(l.debit), 0) AS debit,
	       COALESCE(SUM(l.credit), 0) AS credit
	FROM journal_lines l
	JOIN journal_entries e ON e.entry_id = l.entry_id
	JOIN accounts a ON a.code = l.account_code
	WHERE e.status = 'POSTED'`

const activityQueryTail = `
	GROUP BY a.code, a.name, a.normal_balance
	ORDER BY a.code;`

// GetAccountActivity aggregates posted line amounts per account for entries
// dated within [from, to].
func (r *PgxReportingRepository) GetAccountActivity(ctx context.Context, from, to time.Time) ([]portsrepo.AccountActivity, error) {
	query := activityQueryBase + ` AND e.entry_date >= $1 AND e.entry_date <= $2` + activityQueryTail
	return r.queryActivity(ctx, query, from, to)
}

// GetAccountBalances aggregates posted line amounts per account for entries
// dated at or before asOf.
func (r *PgxReportingRepository) GetAccountBalances(ctx context.Context, asOf time.Time) ([]portsrepo.AccountActivity, error) {
	query := activityQueryBase + ` AND e.entry_date <= $1` + activityQueryTail
	return r.queryActivity(ctx, query, asOf)
}

func (r *PgxReportingRepository) queryActivity(ctx context.Context, query string, args ...any) ([]portsrepo.AccountActivity, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query account activity", err)
	}
	defer rows.Close()

	activity := []portsrepo.AccountActivity{}
	for rows.Next() {
		var a portsrepo.AccountActivity
		if err := rows.Scan(&a.AccountCode, &a.AccountName, &a.NormalBalance, &a.Debit, &a.Credit); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account activity row", err)
		}
		activity = append(activity, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account activity rows", err)
	}
	return activity, nil
}
