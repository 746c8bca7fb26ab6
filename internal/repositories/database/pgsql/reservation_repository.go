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

type PgxReservationRepository struct {
	BaseRepository
}

// newPgxReservationRepository creates a new repository for checkout holds.
func newPgxReservationRepository(pool *pgxpool.Pool) portsrepo.ReservationRepositoryFacade {
	return &PgxReservationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ReservationRepositoryFacade = (*PgxReservationRepository)(nil)

const reservationColumns = `reservation_id, stock_item_id, quantity, cart_ref, status, expires_at, order_ref, consumed_at, created_at, created_by, last_updated_at, last_updated_by`

// activeHoldsExpr sums the unexpired RESERVED quantity held against a stock
// item. Shared by the availability check and the sellable-quantity read.
const activeHoldsExpr = `
	COALESCE((
		SELECT SUM(r.quantity) FROM reservations r
		WHERE r.stock_item_id = s.stock_item_id AND r.status = 'RESERVED' AND r.expires_at > $2
	), 0)`

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var res domain.Reservation
	err := row.Scan(
		&res.ReservationID,
		&res.StockItemID,
		&res.Quantity,
		&res.CartRef,
		&res.Status,
		&res.ExpiresAt,
		&res.OrderRef,
		&res.ConsumedAt,
		&res.CreatedAt,
		&res.CreatedBy,
		&res.LastUpdatedAt,
		&res.LastUpdatedBy,
	)
	return res, err
}

// CreateReservation inserts the hold only if the sellable quantity still
// covers it. The stock item row is locked first so concurrent carts check
// availability one at a time and cannot jointly oversell.
func (r *PgxReservationRepository) CreateReservation(ctx context.Context, reservation domain.Reservation, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	var quantityOnHand int64
	lockQuery := `SELECT quantity_on_hand FROM stock_items WHERE stock_item_id = $1 FOR UPDATE;`
	if err := tx.QueryRow(ctx, lockQuery, reservation.StockItemID).Scan(&quantityOnHand); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return apperrors.NewAppError(500, "failed to lock stock item "+reservation.StockItemID, err)
	}

	insertQuery := `
		INSERT INTO reservations (reservation_id, stock_item_id, quantity, cart_ref, status, expires_at, order_ref, consumed_at, created_at, created_by, last_updated_at, last_updated_by)
		SELECT $3, s.stock_item_id, $4, $5, $6, $7, '', NULL, $8, $9, $10, $11
		FROM stock_items s
		WHERE s.stock_item_id = $1
		  AND s.quantity_on_hand - ` + activeHoldsExpr + ` >= $4;
	`
	cmdTag, err := tx.Exec(ctx, insertQuery,
		reservation.StockItemID,
		now,
		reservation.ReservationID,
		reservation.Quantity,
		reservation.CartRef,
		reservation.Status,
		reservation.ExpiresAt,
		reservation.CreatedAt,
		reservation.CreatedBy,
		reservation.LastUpdatedAt,
		reservation.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert reservation "+reservation.ReservationID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrInsufficientAvailability
	}

	return r.Commit(ctx, tx)
}

// FindReservationByID retrieves a reservation by its identifier.
func (r *PgxReservationRepository) FindReservationByID(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE reservation_id = $1;`
	res, err := scanReservation(r.Pool.QueryRow(ctx, query, reservationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find reservation "+reservationID, err)
	}
	return &res, nil
}

// FindReservationsByCart retrieves all reservations created for a cart.
func (r *PgxReservationRepository) FindReservationsByCart(ctx context.Context, cartRef string) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE cart_ref = $1 ORDER BY created_at;`
	return r.queryReservations(ctx, query, cartRef)
}

// FindConsumedByOrderRef retrieves the reservations consumed into an order.
func (r *PgxReservationRepository) FindConsumedByOrderRef(ctx context.Context, orderRef string) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE order_ref = $1 AND status = 'CONSUMED' ORDER BY consumed_at;`
	return r.queryReservations(ctx, query, orderRef)
}

func (r *PgxReservationRepository) queryReservations(ctx context.Context, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query reservations", err)
	}
	defer rows.Close()

	reservations := []domain.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan reservation row", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating reservation rows", err)
	}
	return reservations, nil
}

// SellableQuantity computes quantity-on-hand minus active holds as of now.
func (r *PgxReservationRepository) SellableQuantity(ctx context.Context, stockItemID string, now time.Time) (int64, error) {
	query := `
		SELECT s.quantity_on_hand - ` + activeHoldsExpr + `
		FROM stock_items s
		WHERE s.stock_item_id = $1;
	`
	var sellable int64
	if err := r.Pool.QueryRow(ctx, query, stockItemID, now).Scan(&sellable); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrNotFound
		}
		return 0, apperrors.NewAppError(500, "failed to compute sellable quantity for stock item "+stockItemID, err)
	}
	return sellable, nil
}

// TransitionReservation moves a RESERVED reservation to a terminal status.
func (r *PgxReservationRepository) TransitionReservation(ctx context.Context, reservationID string, to domain.ReservationStatus, updatedBy string, now time.Time) (int64, error) {
	query := `
		UPDATE reservations
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE reservation_id = $1 AND status = 'RESERVED';
	`
	cmdTag, err := r.Pool.Exec(ctx, query, reservationID, to, now, updatedBy)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to transition reservation "+reservationID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		// Distinguish "already terminal" from "never existed".
		var exists bool
		if err := r.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM reservations WHERE reservation_id = $1);`, reservationID).Scan(&exists); err != nil {
			return 0, apperrors.NewAppError(500, "failed to check reservation "+reservationID, err)
		}
		if !exists {
			return 0, apperrors.ErrNotFound
		}
	}
	return cmdTag.RowsAffected(), nil
}

// ConsumeReservation atomically consumes the hold and applies the stock
// decrement with its SALE transaction. Nothing persists if any step fails.
func (r *PgxReservationRepository) ConsumeReservation(ctx context.Context, reservationID, orderRef string, now time.Time, fn portsrepo.StockMutator) (*domain.Reservation, *domain.InventoryTransaction, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer r.Rollback(ctx, tx)

	lockQuery := `SELECT ` + reservationColumns + ` FROM reservations WHERE reservation_id = $1 FOR UPDATE;`
	res, err := scanReservation(tx.QueryRow(ctx, lockQuery, reservationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.ErrNotFound
		}
		return nil, nil, apperrors.NewAppError(500, "failed to lock reservation "+reservationID, err)
	}
	if res.Status != domain.Reserved {
		return nil, nil, apperrors.ErrNotFound
	}
	if !res.ExpiresAt.After(now) {
		return nil, nil, apperrors.ErrReservationExpired
	}

	updateQuery := `
		UPDATE reservations
		SET status = 'CONSUMED', order_ref = $2, consumed_at = $3, last_updated_at = $3, last_updated_by = created_by
		WHERE reservation_id = $1;
	`
	if _, err := tx.Exec(ctx, updateQuery, reservationID, orderRef, now); err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to consume reservation "+reservationID, err)
	}

	txn, err := applyStockMutation(ctx, tx, res.StockItemID, fn)
	if err != nil {
		return nil, nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, nil, err
	}

	res.Status = domain.Consumed
	res.OrderRef = orderRef
	res.ConsumedAt = &now
	res.LastUpdatedAt = now
	return &res, txn, nil
}

// SweepExpired transitions up to limit stale holds to EXPIRED. SKIP LOCKED
// keeps concurrent sweepers and consumers from blocking on each other.
func (r *PgxReservationRepository) SweepExpired(ctx context.Context, now time.Time, limit int) (int64, error) {
	query := `
		UPDATE reservations
		SET status = 'EXPIRED', last_updated_at = $1, last_updated_by = 'system'
		WHERE reservation_id IN (
			SELECT reservation_id FROM reservations
			WHERE status = 'RESERVED' AND expires_at <= $1
			ORDER BY expires_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		);
	`
	cmdTag, err := r.Pool.Exec(ctx, query, now, limit)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to sweep expired reservations", err)
	}
	return cmdTag.RowsAffected(), nil
}
