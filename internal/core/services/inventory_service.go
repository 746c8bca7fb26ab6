package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merchantkit/fulfillment_ledger/internal/apperrors"
	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	portsrepo "github.com/merchantkit/fulfillment_ledger/internal/core/ports/repositories"
	portssvc "github.com/merchantkit/fulfillment_ledger/internal/core/ports/services"
	"github.com/merchantkit/fulfillment_ledger/internal/dto"
	"github.com/merchantkit/fulfillment_ledger/internal/middleware"
	"github.com/merchantkit/fulfillment_ledger/pkg/config"
)

// inventoryService is the inventory valuation engine. It is the only writer
// of stock items and the movement audit trail, and the only place WAC math
// lives.
type inventoryService struct {
	inventoryRepo   portsrepo.InventoryRepositoryFacade
	costBasisPolicy config.CostBasisPolicy
}

// NewInventoryService creates a new inventory valuation engine.
func NewInventoryService(inventoryRepo portsrepo.InventoryRepositoryFacade, policy config.CostBasisPolicy) portssvc.InventorySvcFacade {
	return &inventoryService{inventoryRepo: inventoryRepo, costBasisPolicy: policy}
}

var _ portssvc.InventorySvcFacade = (*inventoryService)(nil)

// CreateStockItem registers a product/format pair with zero stock.
func (s *inventoryService) CreateStockItem(ctx context.Context, req dto.CreateStockItemRequest, creatorUserID string) (*domain.StockItem, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now().UTC()
	item := domain.StockItem{
		StockItemID:    uuid.NewString(),
		ProductRef:     req.ProductRef,
		Format:         req.Format,
		QuantityOnHand: 0,
		RunningWAC:     decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.inventoryRepo.CreateStockItem(ctx, item); err != nil {
		logger.Error("Failed to create stock item", slog.String("error", err.Error()), slog.String("product_ref", req.ProductRef))
		return nil, fmt.Errorf("failed to create stock item for %s/%s: %w", req.ProductRef, req.Format, err)
	}

	logger.Info("Stock item created", slog.String("stock_item_id", item.StockItemID))
	return &item, nil
}

// RecordPurchase receives stock and recomputes the running weighted-average
// cost: newWAC = (onHand*WAC + qty*unitCost) / (onHand+qty).
func (s *inventoryService) RecordPurchase(ctx context.Context, stockItemID string, quantity int64, unitCost decimal.Decimal, userID string) (*domain.InventoryTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if quantity <= 0 {
		return nil, fmt.Errorf("%w: purchase quantity %d", apperrors.ErrInvalidQuantity, quantity)
	}
	if unitCost.IsNegative() {
		return nil, fmt.Errorf("%w: unit cost must be >= 0", apperrors.ErrValidation)
	}

	txn, err := s.inventoryRepo.MutateStockItem(ctx, stockItemID, s.purchaseMutator(quantity, unitCost, userID))
	if err != nil {
		logger.Error("Failed to record purchase", slog.String("error", err.Error()), slog.String("stock_item_id", stockItemID))
		return nil, fmt.Errorf("failed to record purchase on %s: %w", stockItemID, err)
	}

	logger.Info("Purchase recorded",
		slog.String("stock_item_id", stockItemID),
		slog.Int64("quantity", quantity),
		slog.String("wac_after", txn.RunningWACAfter.String()))
	return txn, nil
}

// RecordSale issues stock at the current WAC. The WAC is unchanged by sales.
func (s *inventoryService) RecordSale(ctx context.Context, stockItemID string, quantity int64, orderRef, userID string) (*domain.InventoryTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if quantity <= 0 {
		return nil, fmt.Errorf("%w: sale quantity %d", apperrors.ErrInvalidQuantity, quantity)
	}

	txn, err := s.inventoryRepo.MutateStockItem(ctx, stockItemID, s.SaleMutator(quantity, orderRef, userID))
	if err != nil {
		logger.Error("Failed to record sale", slog.String("error", err.Error()), slog.String("stock_item_id", stockItemID), slog.String("order_ref", orderRef))
		return nil, fmt.Errorf("failed to record sale on %s: %w", stockItemID, err)
	}

	if txn.UnitCost.IsZero() {
		// Data-integrity condition, not a hard failure: the sale has no cost
		// basis until a purchase backfills one.
		logger.Warn("Sale recorded with zero cost basis",
			slog.String("stock_item_id", stockItemID),
			slog.String("order_ref", orderRef))
	}

	logger.Info("Sale recorded", slog.String("stock_item_id", stockItemID), slog.Int64("quantity", quantity), slog.String("order_ref", orderRef))
	return txn, nil
}

// RecordReturn restores stock from an original sale, copying its unit cost
// verbatim so refunds are valuation-neutral.
func (s *inventoryService) RecordReturn(ctx context.Context, originalSaleTransactionID string, quantity int64, userID string) (*domain.InventoryTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if quantity <= 0 {
		return nil, fmt.Errorf("%w: return quantity %d", apperrors.ErrInvalidQuantity, quantity)
	}

	original, err := s.inventoryRepo.FindTransactionByID(ctx, originalSaleTransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find original sale transaction %s: %w", originalSaleTransactionID, err)
	}
	if original.Kind != domain.Sale {
		return nil, fmt.Errorf("%w: transaction %s is %s, not a sale", apperrors.ErrValidation, originalSaleTransactionID, original.Kind)
	}
	if soldQty := -original.Quantity; quantity > soldQty {
		return nil, fmt.Errorf("%w: cannot return %d of %d sold units", apperrors.ErrValidation, quantity, soldQty)
	}

	txn, err := s.inventoryRepo.MutateStockItem(ctx, original.StockItemID, s.returnMutator(original, quantity, userID))
	if err != nil {
		logger.Error("Failed to record return", slog.String("error", err.Error()), slog.String("stock_item_id", original.StockItemID))
		return nil, fmt.Errorf("failed to record return on %s: %w", original.StockItemID, err)
	}

	logger.Info("Return recorded",
		slog.String("stock_item_id", original.StockItemID),
		slog.Int64("quantity", quantity),
		slog.String("original_sale", originalSaleTransactionID))
	return txn, nil
}

// RecordAdjustment applies a signed manual correction. Positive deltas keep
// the current WAC (no cost information accompanies them); negative deltas are
// guarded like sales.
func (s *inventoryService) RecordAdjustment(ctx context.Context, stockItemID string, quantityDelta int64, reason, userID string) (*domain.InventoryTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if quantityDelta == 0 {
		return nil, fmt.Errorf("%w: adjustment delta must be nonzero", apperrors.ErrInvalidQuantity)
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: adjustment reason is required", apperrors.ErrValidation)
	}

	txn, err := s.inventoryRepo.MutateStockItem(ctx, stockItemID, s.adjustmentMutator(quantityDelta, reason, userID))
	if err != nil {
		logger.Error("Failed to record adjustment", slog.String("error", err.Error()), slog.String("stock_item_id", stockItemID))
		return nil, fmt.Errorf("failed to record adjustment on %s: %w", stockItemID, err)
	}

	logger.Info("Adjustment recorded", slog.String("stock_item_id", stockItemID), slog.Int64("delta", quantityDelta), slog.String("reason", reason))
	return txn, nil
}

// SaleMutator builds the pure stock mutation for a sale. Exposed so the
// reservation manager can apply the decrement inside its own atomic consume.
func (s *inventoryService) SaleMutator(quantity int64, orderRef, userID string) portsrepo.StockMutator {
	return func(item domain.StockItem) (domain.StockItem, domain.InventoryTransaction, error) {
		if item.RunningWAC.IsZero() && s.costBasisPolicy == config.PolicyBlockSale {
			return item, domain.InventoryTransaction{}, fmt.Errorf("%w: stock item %s", apperrors.ErrCOGSNotInitialized, item.StockItemID)
		}
		if item.QuantityOnHand < quantity {
			return item, domain.InventoryTransaction{}, fmt.Errorf("%w: %d on hand, %d requested", apperrors.ErrInsufficientStock, item.QuantityOnHand, quantity)
		}

		item.QuantityOnHand -= quantity
		txn := domain.InventoryTransaction{
			TransactionID:   uuid.NewString(),
			StockItemID:     item.StockItemID,
			Kind:            domain.Sale,
			Quantity:        -quantity,
			UnitCost:        item.RunningWAC,
			RunningWACAfter: item.RunningWAC,
			OrderRef:        orderRef,
			CreatedAt:       time.Now().UTC(),
			CreatedBy:       userID,
		}
		return item, txn, nil
	}
}

func (s *inventoryService) purchaseMutator(quantity int64, unitCost decimal.Decimal, userID string) portsrepo.StockMutator {
	return func(item domain.StockItem) (domain.StockItem, domain.InventoryTransaction, error) {
		newQty := item.QuantityOnHand + quantity
		var newWAC decimal.Decimal
		if newQty <= 0 {
			newWAC = unitCost
		} else {
			oldValue := item.RunningWAC.Mul(decimal.NewFromInt(item.QuantityOnHand))
			addedValue := unitCost.Mul(decimal.NewFromInt(quantity))
			newWAC = oldValue.Add(addedValue).Div(decimal.NewFromInt(newQty))
		}

		item.QuantityOnHand = newQty
		item.RunningWAC = newWAC
		txn := domain.InventoryTransaction{
			TransactionID:   uuid.NewString(),
			StockItemID:     item.StockItemID,
			Kind:            domain.Purchase,
			Quantity:        quantity,
			UnitCost:        unitCost,
			RunningWACAfter: newWAC,
			CreatedAt:       time.Now().UTC(),
			CreatedBy:       userID,
		}
		return item, txn, nil
	}
}

func (s *inventoryService) returnMutator(original *domain.InventoryTransaction, quantity int64, userID string) portsrepo.StockMutator {
	return func(item domain.StockItem) (domain.StockItem, domain.InventoryTransaction, error) {
		item.QuantityOnHand += quantity
		// Unit cost and WAC are copied from the original sale verbatim:
		// returns restore physical stock but never perturb valuation.
		txn := domain.InventoryTransaction{
			TransactionID:   uuid.NewString(),
			StockItemID:     item.StockItemID,
			Kind:            domain.Return,
			Quantity:        quantity,
			UnitCost:        original.UnitCost,
			RunningWACAfter: original.RunningWACAfter,
			OrderRef:        original.OrderRef,
			CreatedAt:       time.Now().UTC(),
			CreatedBy:       userID,
		}
		return item, txn, nil
	}
}

func (s *inventoryService) adjustmentMutator(delta int64, reason, userID string) portsrepo.StockMutator {
	return func(item domain.StockItem) (domain.StockItem, domain.InventoryTransaction, error) {
		newQty := item.QuantityOnHand + delta
		if newQty < 0 {
			return item, domain.InventoryTransaction{}, fmt.Errorf("%w: %d on hand, adjustment %d", apperrors.ErrInsufficientStock, item.QuantityOnHand, delta)
		}

		item.QuantityOnHand = newQty
		txn := domain.InventoryTransaction{
			TransactionID:   uuid.NewString(),
			StockItemID:     item.StockItemID,
			Kind:            domain.Adjustment,
			Quantity:        delta,
			UnitCost:        item.RunningWAC,
			RunningWACAfter: item.RunningWAC,
			Reason:          reason,
			CreatedAt:       time.Now().UTC(),
			CreatedBy:       userID,
		}
		return item, txn, nil
	}
}

// GetStockItem retrieves a stock item by id.
func (s *inventoryService) GetStockItem(ctx context.Context, stockItemID string) (*domain.StockItem, error) {
	item, err := s.inventoryRepo.FindStockItemByID(ctx, stockItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to find stock item %s: %w", stockItemID, err)
	}
	return item, nil
}

// GetStockItemByProduct retrieves a stock item by product/format.
func (s *inventoryService) GetStockItemByProduct(ctx context.Context, productRef, format string) (*domain.StockItem, error) {
	item, err := s.inventoryRepo.FindStockItemByProduct(ctx, productRef, format)
	if err != nil {
		return nil, fmt.Errorf("failed to find stock item for %s/%s: %w", productRef, format, err)
	}
	return item, nil
}

// ListStockItems retrieves a paginated stock listing.
func (s *inventoryService) ListStockItems(ctx context.Context, limit int, nextToken *string) ([]domain.StockItem, *string, error) {
	return s.inventoryRepo.ListStockItems(ctx, limit, nextToken)
}

// ListTransactions retrieves a stock item's paginated movement history.
func (s *inventoryService) ListTransactions(ctx context.Context, stockItemID string, limit int, nextToken *string) ([]domain.InventoryTransaction, *string, error) {
	return s.inventoryRepo.ListTransactionsByStockItem(ctx, stockItemID, limit, nextToken)
}

// SaleTransactionsForOrder retrieves the SALE movements recorded for an order.
func (s *inventoryService) SaleTransactionsForOrder(ctx context.Context, orderRef string) ([]domain.InventoryTransaction, error) {
	txns, err := s.inventoryRepo.FindTransactionsByOrderRef(ctx, orderRef, domain.Sale)
	if err != nil {
		return nil, fmt.Errorf("failed to find sale transactions for order %s: %w", orderRef, err)
	}
	return txns, nil
}
