package repositories

import (
	"context"
	"time"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
)

// ReservationReader defines read operations for reservations.
type ReservationReader interface {
	// FindReservationByID retrieves a reservation by its identifier.
	FindReservationByID(ctx context.Context, reservationID string) (*domain.Reservation, error)

	// FindReservationsByCart retrieves all reservations created for a cart.
	FindReservationsByCart(ctx context.Context, cartRef string) ([]domain.Reservation, error)

	// FindConsumedByOrderRef retrieves the reservations consumed into an order.
	FindConsumedByOrderRef(ctx context.Context, orderRef string) ([]domain.Reservation, error)

	// SellableQuantity computes quantity-on-hand minus the sum of unexpired
	// RESERVED holds for a stock item, as of now.
	SellableQuantity(ctx context.Context, stockItemID string, now time.Time) (int64, error)
}

// ReservationWriter defines mutating operations for reservations.
type ReservationWriter interface {
	// CreateReservation inserts the reservation only if the sellable quantity
	// still covers it at insert time; otherwise it fails with
	// ErrInsufficientAvailability. The check and insert are a single atomic
	// statement so concurrent carts cannot jointly oversell.
	CreateReservation(ctx context.Context, reservation domain.Reservation, now time.Time) error

	// TransitionReservation moves a RESERVED reservation to the given terminal
	// status (RELEASED or EXPIRED). Returns the number of rows changed: zero
	// means the reservation was already terminal, which callers treat as an
	// idempotent no-op.
	TransitionReservation(ctx context.Context, reservationID string, to domain.ReservationStatus, updatedBy string, now time.Time) (int64, error)

	// ConsumeReservation atomically, in one database transaction: transitions
	// the reservation RESERVED->CONSUMED (failing with ErrReservationExpired
	// if past expiry and ErrNotFound if absent or already terminal), stamps
	// orderRef and consumedAt, applies fn to the locked stock item row, and
	// appends the returned SALE inventory transaction. A failure at any step
	// leaves no partial trace.
	ConsumeReservation(ctx context.Context, reservationID, orderRef string, now time.Time, fn StockMutator) (*domain.Reservation, *domain.InventoryTransaction, error)

	// SweepExpired transitions up to limit stale RESERVED reservations past
	// their expiry to EXPIRED, returning how many rows changed.
	SweepExpired(ctx context.Context, now time.Time, limit int) (int64, error)
}

// ReservationRepositoryFacade combines all reservation repository interfaces.
type ReservationRepositoryFacade interface {
	ReservationReader
	ReservationWriter
}
