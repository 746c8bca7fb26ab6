package repositories

import (
	"context"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
)

// StockMutator derives the post-movement state of a stock item and the
// inventory transaction recording the movement. It runs inside a database
// transaction while the stock item row is locked, so implementations must be
// pure: no I/O, no side effects beyond the returned values.
type StockMutator func(item domain.StockItem) (domain.StockItem, domain.InventoryTransaction, error)

// StockItemReader defines read operations for stock items.
type StockItemReader interface {
	// FindStockItemByID retrieves a stock item by its identifier.
	FindStockItemByID(ctx context.Context, stockItemID string) (*domain.StockItem, error)

	// FindStockItemByProduct retrieves the stock item for a product/format pair.
	FindStockItemByProduct(ctx context.Context, productRef, format string) (*domain.StockItem, error)

	// ListStockItems retrieves a paginated list of stock items.
	ListStockItems(ctx context.Context, limit int, nextToken *string) ([]domain.StockItem, *string, error)
}

// InventoryTransactionReader defines read operations over the movement audit trail.
type InventoryTransactionReader interface {
	// FindTransactionByID retrieves a single inventory transaction.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.InventoryTransaction, error)

	// FindTransactionsByOrderRef retrieves all transactions of the given kind
	// recorded against an order, in creation order.
	FindTransactionsByOrderRef(ctx context.Context, orderRef string, kind domain.InventoryTransactionKind) ([]domain.InventoryTransaction, error)

	// ListTransactionsByStockItem retrieves a paginated movement history for
	// one stock item, newest first.
	ListTransactionsByStockItem(ctx context.Context, stockItemID string, limit int, nextToken *string) ([]domain.InventoryTransaction, *string, error)
}

// InventoryWriter defines mutating operations for stock.
type InventoryWriter interface {
	// CreateStockItem persists a new stock item with zero quantity and cost.
	CreateStockItem(ctx context.Context, item domain.StockItem) error

	// MutateStockItem atomically applies fn to the locked stock item row and
	// appends the returned inventory transaction. The row update is guarded so
	// quantity-on-hand can never go negative; such an attempt fails with
	// ErrInsufficientStock and nothing is applied.
	MutateStockItem(ctx context.Context, stockItemID string, fn StockMutator) (*domain.InventoryTransaction, error)
}

// InventoryRepositoryFacade combines all inventory repository interfaces.
type InventoryRepositoryFacade interface {
	StockItemReader
	InventoryTransactionReader
	InventoryWriter
}
