package services

// ServiceContainer bundles every service facade for handler wiring.
type ServiceContainer struct {
	Account     AccountSvcFacade
	Inventory   InventorySvcFacade
	Reservation ReservationSvcFacade
	Ledger      LedgerSvcFacade
	Posting     PostingSvcFacade
	Recurring   RecurringSvcFacade
	Reporting   ReportingSvcFacade
}
