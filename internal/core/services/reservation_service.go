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
	"github.com/merchantkit/fulfillment_ledger/internal/dto"
	"github.com/merchantkit/fulfillment_ledger/internal/middleware"
)

// reservationService manages checkout holds. It owns reservation state and
// reads stock (never writes it); the actual decrement on consume is delegated
// to the inventory engine's sale mutator, applied inside the repository's
// atomic consume.
type reservationService struct {
	reservationRepo portsrepo.ReservationRepositoryFacade
	inventorySvc    portssvc.InventorySvcFacade
	defaultTTL      time.Duration
}

// NewReservationService creates a new reservation manager.
func NewReservationService(reservationRepo portsrepo.ReservationRepositoryFacade, inventorySvc portssvc.InventorySvcFacade, defaultTTL time.Duration) portssvc.ReservationSvcFacade {
	return &reservationService{
		reservationRepo: reservationRepo,
		inventorySvc:    inventorySvc,
		defaultTTL:      defaultTTL,
	}
}

var _ portssvc.ReservationSvcFacade = (*reservationService)(nil)

// Reserve places a soft hold on sellable stock. No stock mutation happens
// here; concurrent carts hold claims without serializing on the stock row.
func (s *reservationService) Reserve(ctx context.Context, req dto.ReserveRequest, userID string) (*domain.Reservation, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: reservation quantity %d", apperrors.ErrInvalidQuantity, req.Quantity)
	}

	ttl := s.defaultTTL
	if req.TTLSeconds != nil {
		ttl = time.Duration(*req.TTLSeconds) * time.Second
	}

	now := time.Now().UTC()
	reservation := domain.Reservation{
		ReservationID: uuid.NewString(),
		StockItemID:   req.StockItemID,
		Quantity:      req.Quantity,
		CartRef:       req.CartRef,
		Status:        domain.Reserved,
		ExpiresAt:     now.Add(ttl),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.reservationRepo.CreateReservation(ctx, reservation, now); err != nil {
		if !isExpectedReserveFailure(err) {
			logger.Error("Failed to create reservation", slog.String("error", err.Error()), slog.String("stock_item_id", req.StockItemID))
		}
		return nil, fmt.Errorf("failed to reserve %d on %s: %w", req.Quantity, req.StockItemID, err)
	}

	logger.Info("Reservation created",
		slog.String("reservation_id", reservation.ReservationID),
		slog.String("cart_ref", req.CartRef),
		slog.Int64("quantity", req.Quantity))
	return &reservation, nil
}

// Consume transitions a live reservation to CONSUMED and applies the stock
// decrement plus SALE transaction in the same database transaction.
func (s *reservationService) Consume(ctx context.Context, reservationID, orderRef, userID string) (*domain.Reservation, *domain.InventoryTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	reservation, err := s.reservationRepo.FindReservationByID(ctx, reservationID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find reservation %s: %w", reservationID, err)
	}

	now := time.Now().UTC()
	mutator := s.inventorySvc.SaleMutator(reservation.Quantity, orderRef, userID)
	consumed, saleTxn, err := s.reservationRepo.ConsumeReservation(ctx, reservationID, orderRef, now, mutator)
	if err != nil {
		logger.Error("Failed to consume reservation",
			slog.String("error", err.Error()),
			slog.String("reservation_id", reservationID),
			slog.String("order_ref", orderRef))
		return nil, nil, fmt.Errorf("failed to consume reservation %s for order %s: %w", reservationID, orderRef, err)
	}

	logger.Info("Reservation consumed",
		slog.String("reservation_id", reservationID),
		slog.String("order_ref", orderRef),
		slog.String("sale_transaction_id", saleTxn.TransactionID))
	return consumed, saleTxn, nil
}

// ConsumeCart consumes every live reservation held for a cart into the order.
func (s *reservationService) ConsumeCart(ctx context.Context, cartRef, orderRef, userID string) ([]domain.Reservation, []domain.InventoryTransaction, error) {
	reservations, err := s.reservationRepo.FindReservationsByCart(ctx, cartRef)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find reservations for cart %s: %w", cartRef, err)
	}

	var consumed []domain.Reservation
	var saleTxns []domain.InventoryTransaction
	for _, r := range reservations {
		if r.Status != domain.Reserved {
			continue
		}
		res, txn, err := s.Consume(ctx, r.ReservationID, orderRef, userID)
		if err != nil {
			return consumed, saleTxns, err
		}
		consumed = append(consumed, *res)
		saleTxns = append(saleTxns, *txn)
	}

	if len(consumed) == 0 {
		return nil, nil, fmt.Errorf("%w: no live reservations for cart %s", apperrors.ErrNotFound, cartRef)
	}
	return consumed, saleTxns, nil
}

// Release voluntarily frees a hold; idempotent no-op if already terminal.
func (s *reservationService) Release(ctx context.Context, reservationID, userID string) error {
	return s.transition(ctx, reservationID, domain.Released, userID)
}

// Expire marks a hold expired; idempotent no-op if already terminal.
func (s *reservationService) Expire(ctx context.Context, reservationID, userID string) error {
	return s.transition(ctx, reservationID, domain.Expired, userID)
}

func (s *reservationService) transition(ctx context.Context, reservationID string, to domain.ReservationStatus, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now().UTC()
	changed, err := s.reservationRepo.TransitionReservation(ctx, reservationID, to, userID, now)
	if err != nil {
		logger.Error("Failed to transition reservation", slog.String("error", err.Error()), slog.String("reservation_id", reservationID), slog.String("to", string(to)))
		return fmt.Errorf("failed to transition reservation %s to %s: %w", reservationID, to, err)
	}
	if changed == 0 {
		logger.Debug("Reservation already terminal", slog.String("reservation_id", reservationID), slog.String("to", string(to)))
	}
	return nil
}

// SweepExpired expires up to limit stale holds.
func (s *reservationService) SweepExpired(ctx context.Context, limit int) (int64, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	swept, err := s.reservationRepo.SweepExpired(ctx, time.Now().UTC(), limit)
	if err != nil {
		logger.Error("Reservation sweep failed", slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to sweep expired reservations: %w", err)
	}
	if swept > 0 {
		logger.Info("Expired reservations swept", slog.Int64("count", swept))
	}
	return swept, nil
}

// GetReservation retrieves a reservation by id.
func (s *reservationService) GetReservation(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	reservation, err := s.reservationRepo.FindReservationByID(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservation %s: %w", reservationID, err)
	}
	return reservation, nil
}

// SellableQuantity reports quantity-on-hand minus active holds as of now.
func (s *reservationService) SellableQuantity(ctx context.Context, stockItemID string, now time.Time) (int64, error) {
	return s.reservationRepo.SellableQuantity(ctx, stockItemID, now)
}

func isExpectedReserveFailure(err error) bool {
	return errors.Is(err, apperrors.ErrInsufficientAvailability) || errors.Is(err, apperrors.ErrNotFound)
}
