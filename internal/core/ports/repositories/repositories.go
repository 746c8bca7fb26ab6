package repositories

// RepositoryProvider bundles every repository implementation the service
// layer needs, wired once at startup.
type RepositoryProvider struct {
	AccountRepo     AccountRepositoryFacade
	InventoryRepo   InventoryRepositoryFacade
	ReservationRepo ReservationRepositoryFacade
	JournalRepo     JournalRepositoryFacade
	RecurringRepo   RecurringRepositoryFacade
	ReportingRepo   ReportingRepository
}
