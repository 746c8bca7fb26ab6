package services

import (
	"context"
	"time"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	"github.com/merchantkit/fulfillment_ledger/internal/dto"
)

// ReservationSvcFacade manages checkout holds on stock.
type ReservationSvcFacade interface {
	// Reserve places a soft hold on sellable stock with an expiry.
	Reserve(ctx context.Context, req dto.ReserveRequest, userID string) (*domain.Reservation, error)

	// Consume turns a live reservation into an order: the reservation is
	// marked CONSUMED and the stock decrement plus SALE transaction are
	// applied in the same atomic operation.
	Consume(ctx context.Context, reservationID, orderRef, userID string) (*domain.Reservation, *domain.InventoryTransaction, error)

	// ConsumeCart consumes every live reservation held for a cart into the
	// given order, in creation order.
	ConsumeCart(ctx context.Context, cartRef, orderRef, userID string) ([]domain.Reservation, []domain.InventoryTransaction, error)

	// Release voluntarily frees a hold. No-op if already terminal.
	Release(ctx context.Context, reservationID, userID string) error

	// Expire marks a hold expired. No-op if already terminal.
	Expire(ctx context.Context, reservationID, userID string) error

	// SweepExpired expires up to limit stale holds; run on a cadence by the
	// background worker.
	SweepExpired(ctx context.Context, limit int) (int64, error)

	// GetReservation retrieves a reservation by id.
	GetReservation(ctx context.Context, reservationID string) (*domain.Reservation, error)

	// SellableQuantity reports quantity-on-hand minus active holds as of now.
	SellableQuantity(ctx context.Context, stockItemID string, now time.Time) (int64, error)
}
