package services

import (
	"context"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	portsrepo "github.com/merchantkit/fulfillment_ledger/internal/core/ports/repositories"
	"github.com/merchantkit/fulfillment_ledger/internal/dto"
	"github.com/shopspring/decimal"
)

// InventorySvcFacade is the inventory valuation engine: the only owner of
// stock-item state and the movement audit trail.
type InventorySvcFacade interface {
	// CreateStockItem registers a product/format pair with zero stock.
	CreateStockItem(ctx context.Context, req dto.CreateStockItemRequest, creatorUserID string) (*domain.StockItem, error)

	// RecordPurchase receives quantity units at unitCost, recomputing the
	// running weighted-average cost.
	RecordPurchase(ctx context.Context, stockItemID string, quantity int64, unitCost decimal.Decimal, userID string) (*domain.InventoryTransaction, error)

	// RecordSale issues quantity units against an order at the current WAC.
	// The WAC itself is unchanged by sales.
	RecordSale(ctx context.Context, stockItemID string, quantity int64, orderRef, userID string) (*domain.InventoryTransaction, error)

	// RecordReturn restores stock from an original sale transaction, copying
	// its unit cost verbatim so the WAC is undisturbed.
	RecordReturn(ctx context.Context, originalSaleTransactionID string, quantity int64, userID string) (*domain.InventoryTransaction, error)

	// RecordAdjustment applies a signed manual correction. Positive deltas
	// keep the current WAC; negative deltas are guarded like sales.
	RecordAdjustment(ctx context.Context, stockItemID string, quantityDelta int64, reason, userID string) (*domain.InventoryTransaction, error)

	// SaleMutator builds the pure stock mutation for a sale, for callers
	// (the reservation manager) that need the decrement applied inside their
	// own atomic operation.
	SaleMutator(quantity int64, orderRef, userID string) portsrepo.StockMutator

	// GetStockItem retrieves a stock item by id.
	GetStockItem(ctx context.Context, stockItemID string) (*domain.StockItem, error)

	// GetStockItemByProduct retrieves a stock item by product/format.
	GetStockItemByProduct(ctx context.Context, productRef, format string) (*domain.StockItem, error)

	// ListStockItems retrieves a paginated stock listing.
	ListStockItems(ctx context.Context, limit int, nextToken *string) ([]domain.StockItem, *string, error)

	// ListTransactions retrieves a stock item's paginated movement history.
	ListTransactions(ctx context.Context, stockItemID string, limit int, nextToken *string) ([]domain.InventoryTransaction, *string, error)

	// SaleTransactionsForOrder retrieves the SALE movements recorded for an
	// order; the COGS posting rule derives its amount from these.
	SaleTransactionsForOrder(ctx context.Context, orderRef string) ([]domain.InventoryTransaction, error)
}
