package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/merchantkit/fulfillment_ledger/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every pgsql repository over one pool.
func NewRepositoryProvider(pool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		AccountRepo:     newPgxAccountRepository(pool),
		InventoryRepo:   newPgxInventoryRepository(pool),
		ReservationRepo: newPgxReservationRepository(pool),
		JournalRepo:     newPgxJournalRepository(pool),
		RecurringRepo:   newPgxRecurringRepository(pool),
		ReportingRepo:   newPgxReportingRepository(pool),
	}
}
