package services

import (
	portsrepo "github.com/merchantkit/fulfillment_ledger/internal/core/ports/repositories"
	portssvc "github.com/merchantkit/fulfillment_ledger/internal/core/ports/services"
	"github.com/merchantkit/fulfillment_ledger/internal/platform/cache"
	"github.com/merchantkit/fulfillment_ledger/pkg/config"
)

// NewServiceContainer wires every service with its dependencies.
func NewServiceContainer(cfg *config.Config, repos *portsrepo.RepositoryProvider, statementCache cache.Cache) *portssvc.ServiceContainer {
	accountSvc := NewAccountService(repos.AccountRepo)
	inventorySvc := NewInventoryService(repos.InventoryRepo, cfg.CostBasisPolicy)
	reservationSvc := NewReservationService(repos.ReservationRepo, inventorySvc, cfg.ReservationTTL)
	ledgerSvc := NewLedgerService(repos.JournalRepo, accountSvc, cfg.EntryNumberMaxRetries)
	postingSvc := NewPostingService(reservationSvc, inventorySvc, ledgerSvc, PostingAccountsFromConfig(cfg), cfg.CostBasisPolicy)
	recurringSvc := NewRecurringService(repos.RecurringRepo, accountSvc, ledgerSvc)
	reportingSvc := NewReportingService(repos.ReportingRepo, statementCache, cfg.StatementCacheTTL, cfg.CurrentAssetCodeMax)

	return &portssvc.ServiceContainer{
		Account:     accountSvc,
		Inventory:   inventorySvc,
		Reservation: reservationSvc,
		Ledger:      ledgerSvc,
		Posting:     postingSvc,
		Recurring:   recurringSvc,
		Reporting:   reportingSvc,
	}
}
