package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/merchantkit/fulfillment_ledger/internal/apperrors"
	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	portsrepo "github.com/merchantkit/fulfillment_ledger/internal/core/ports/repositories"
	"github.com/merchantkit/fulfillment_ledger/internal/utils/pagination"
)

type PgxInventoryRepository struct {
	BaseRepository
}

// newPgxInventoryRepository creates a new repository for stock items and the
// inventory movement trail.
func newPgxInventoryRepository(pool *pgxpool.Pool) portsrepo.InventoryRepositoryFacade {
	return &PgxInventoryRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.InventoryRepositoryFacade = (*PgxInventoryRepository)(nil)

const stockItemColumns = `stock_item_id, product_ref, format, quantity_on_hand, running_wac, created_at, created_by, last_updated_at, last_updated_by`

const inventoryTxnColumns = `transaction_id, stock_item_id, kind, quantity, unit_cost, running_wac_after, order_ref, reason, created_at, created_by`

func scanStockItem(row pgx.Row) (domain.StockItem, error) {
	var item domain.StockItem
	err := row.Scan(
		&item.StockItemID,
		&item.ProductRef,
		&item.Format,
		&item.QuantityOnHand,
		&item.RunningWAC,
		&item.CreatedAt,
		&item.CreatedBy,
		&item.LastUpdatedAt,
		&item.LastUpdatedBy,
	)
	return item, err
}

func scanInventoryTxn(row pgx.Row) (domain.InventoryTransaction, error) {
	var t domain.InventoryTransaction
	err := row.Scan(
		&t.TransactionID,
		&t.StockItemID,
		&t.Kind,
		&t.Quantity,
		&t.UnitCost,
		&t.RunningWACAfter,
		&t.OrderRef,
		&t.Reason,
		&t.CreatedAt,
		&t.CreatedBy,
	)
	return t, err
}

// CreateStockItem persists a new stock item.
func (r *PgxInventoryRepository) CreateStockItem(ctx context.Context, item domain.StockItem) error {
	query := `
		INSERT INTO stock_items (stock_item_id, product_ref, format, quantity_on_hand, running_wac, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.Pool.Exec(ctx, query,
		item.StockItemID,
		item.ProductRef,
		item.Format,
		item.QuantityOnHand,
		item.RunningWAC,
		item.CreatedAt,
		item.CreatedBy,
		item.LastUpdatedAt,
		item.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert stock item "+item.StockItemID, err)
	}
	return nil
}

// MutateStockItem locks the stock item row, applies fn and persists the new
// state together with the returned inventory transaction, all in one database
// transaction. The quantity update is guarded so on-hand can never go
// negative even if a mutator miscomputes.
func (r *PgxInventoryRepository) MutateStockItem(ctx context.Context, stockItemID string, fn portsrepo.StockMutator) (*domain.InventoryTransaction, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	txn, err := applyStockMutation(ctx, tx, stockItemID, fn)
	if err != nil {
		return nil, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return txn, nil
}

// applyStockMutation is the shared lock-mutate-append step; the reservation
// repository reuses it inside its consume transaction.
func applyStockMutation(ctx context.Context, tx pgx.Tx, stockItemID string, fn portsrepo.StockMutator) (*domain.InventoryTransaction, error) {
	lockQuery := `SELECT ` + stockItemColumns + ` FROM stock_items WHERE stock_item_id = $1 FOR UPDATE;`
	item, err := scanStockItem(tx.QueryRow(ctx, lockQuery, stockItemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to lock stock item "+stockItemID, err)
	}

	updated, txn, err := fn(item)
	if err != nil {
		return nil, err
	}

	updateQuery := `
		UPDATE stock_items
		SET quantity_on_hand = $2,
		    running_wac = $3,
		    last_updated_at = $4,
		    last_updated_by = $5
		WHERE stock_item_id = $1 AND $2 >= 0;
	`
	cmdTag, err := tx.Exec(ctx, updateQuery,
		stockItemID,
		updated.QuantityOnHand,
		updated.RunningWAC,
		updated.LastUpdatedAt,
		updated.LastUpdatedBy,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to update stock item "+stockItemID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, apperrors.ErrInsufficientStock
	}

	insertQuery := `
		INSERT INTO inventory_transactions (transaction_id, stock_item_id, kind, quantity, unit_cost, running_wac_after, order_ref, reason, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err = tx.Exec(ctx, insertQuery,
		txn.TransactionID,
		txn.StockItemID,
		txn.Kind,
		txn.Quantity,
		txn.UnitCost,
		txn.RunningWACAfter,
		txn.OrderRef,
		txn.Reason,
		txn.CreatedAt,
		txn.CreatedBy,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to insert inventory transaction for stock item "+stockItemID, err)
	}

	return &txn, nil
}

// FindStockItemByID retrieves a stock item by its identifier.
func (r *PgxInventoryRepository) FindStockItemByID(ctx context.Context, stockItemID string) (*domain.StockItem, error) {
	query := `SELECT ` + stockItemColumns + ` FROM stock_items WHERE stock_item_id = $1;`
	item, err := scanStockItem(r.Pool.QueryRow(ctx, query, stockItemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find stock item "+stockItemID, err)
	}
	return &item, nil
}

// FindStockItemByProduct retrieves the stock item for a product/format pair.
func (r *PgxInventoryRepository) FindStockItemByProduct(ctx context.Context, productRef, format string) (*domain.StockItem, error) {
	query := `SELECT ` + stockItemColumns + ` FROM stock_items WHERE product_ref = $1 AND format = $2;`
	item, err := scanStockItem(r.Pool.QueryRow(ctx, query, productRef, format))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find stock item for product "+productRef, err)
	}
	return &item, nil
}

// ListStockItems retrieves a paginated list of stock items, newest first.
func (r *PgxInventoryRepository) ListStockItems(ctx context.Context, limit int, nextToken *string) ([]domain.StockItem, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + stockItemColumns + ` FROM stock_items`
	orderByClause := `ORDER BY created_at DESC, stock_item_id DESC`

	var rows pgx.Rows
	var err error
	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, decodeErr := pagination.DecodeDateBasedToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		query := baseQuery + ` WHERE created_at < $1 ` + orderByClause + ` LIMIT $2;`
		rows, err = r.Pool.Query(ctx, query, lastCreatedAt, fetchLimit)
	} else {
		query := baseQuery + ` ` + orderByClause + ` LIMIT $1;`
		rows, err = r.Pool.Query(ctx, query, fetchLimit)
	}
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query stock items", err)
	}
	defer rows.Close()

	items := make([]domain.StockItem, 0, fetchLimit)
	for rows.Next() {
		item, err := scanStockItem(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan stock item row", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating stock item rows", err)
	}

	var nextTokenVal *string
	if len(items) > limit {
		token := pagination.EncodeDateBasedToken(items[limit-1].CreatedAt)
		nextTokenVal = &token
		items = items[:limit]
	}
	return items, nextTokenVal, nil
}

// FindTransactionByID retrieves a single inventory transaction.
func (r *PgxInventoryRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.InventoryTransaction, error) {
	query := `SELECT ` + inventoryTxnColumns + ` FROM inventory_transactions WHERE transaction_id = $1;`
	txn, err := scanInventoryTxn(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find inventory transaction "+transactionID, err)
	}
	return &txn, nil
}

// FindTransactionsByOrderRef retrieves all transactions of one kind recorded
// against an order, in creation order.
func (r *PgxInventoryRepository) FindTransactionsByOrderRef(ctx context.Context, orderRef string, kind domain.InventoryTransactionKind) ([]domain.InventoryTransaction, error) {
	query := `SELECT ` + inventoryTxnColumns + ` FROM inventory_transactions WHERE order_ref = $1 AND kind = $2 ORDER BY created_at;`
	rows, err := r.Pool.Query(ctx, query, orderRef, kind)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query inventory transactions for order "+orderRef, err)
	}
	defer rows.Close()

	txns := []domain.InventoryTransaction{}
	for rows.Next() {
		txn, err := scanInventoryTxn(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan inventory transaction row", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating inventory transaction rows", err)
	}
	return txns, nil
}

// ListTransactionsByStockItem retrieves a paginated movement history for one
// stock item, newest first.
func (r *PgxInventoryRepository) ListTransactionsByStockItem(ctx context.Context, stockItemID string, limit int, nextToken *string) ([]domain.InventoryTransaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + inventoryTxnColumns + ` FROM inventory_transactions WHERE stock_item_id = $1`
	orderByClause := `ORDER BY created_at DESC, transaction_id DESC`

	var rows pgx.Rows
	var err error
	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, decodeErr := pagination.DecodeDateBasedToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		query := baseQuery + ` AND created_at < $2 ` + orderByClause + ` LIMIT $3;`
		rows, err = r.Pool.Query(ctx, query, stockItemID, lastCreatedAt, fetchLimit)
	} else {
		query := baseQuery + ` ` + orderByClause + ` LIMIT $2;`
		rows, err = r.Pool.Query(ctx, query, stockItemID, fetchLimit)
	}
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query inventory transactions for stock item "+stockItemID, err)
	}
	defer rows.Close()

	txns := make([]domain.InventoryTransaction, 0, fetchLimit)
	for rows.Next() {
		txn, err := scanInventoryTxn(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan inventory transaction row", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating inventory transaction rows", err)
	}

	var nextTokenVal *string
	if len(txns) > limit {
		token := pagination.EncodeDateBasedToken(txns[limit-1].CreatedAt)
		nextTokenVal = &token
		txns = txns[:limit]
	}
	return txns, nextTokenVal, nil
}
