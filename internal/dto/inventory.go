package dto

import (
	"time"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateStockItemRequest registers a product/format pair for tracking.
type CreateStockItemRequest struct {
	ProductRef string `json:"productRef" binding:"required"`
	Format     string `json:"format" binding:"required"`
}

// RecordPurchaseRequest receives stock at a unit cost.
type RecordPurchaseRequest struct {
	Quantity int64           `json:"quantity" binding:"required,gt=0"`
	UnitCost decimal.Decimal `json:"unitCost" binding:"required"`
}

// RecordSaleRequest issues stock directly against an order (no reservation).
type RecordSaleRequest struct {
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
	OrderRef string `json:"orderRef" binding:"required"`
}

// RecordReturnRequest restores stock from an original sale transaction.
type RecordReturnRequest struct {
	OriginalSaleTransactionID string `json:"originalSaleTransactionID" binding:"required"`
	Quantity                  int64  `json:"quantity" binding:"required,gt=0"`
}

// RecordAdjustmentRequest applies a signed manual stock correction.
type RecordAdjustmentRequest struct {
	QuantityDelta int64  `json:"quantityDelta" binding:"required"`
	Reason        string `json:"reason" binding:"required"`
}

// StockItemResponse defines the data returned for a stock item.
type StockItemResponse struct {
	StockItemID    string          `json:"stockItemID"`
	ProductRef     string          `json:"productRef"`
	Format         string          `json:"format"`
	QuantityOnHand int64           `json:"quantityOnHand"`
	RunningWAC     decimal.Decimal `json:"runningWAC"`
}

// InventoryTransactionResponse defines the data returned for a movement.
type InventoryTransactionResponse struct {
	TransactionID   string          `json:"transactionID"`
	StockItemID     string          `json:"stockItemID"`
	Kind            string          `json:"kind"`
	Quantity        int64           `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unitCost"`
	RunningWACAfter decimal.Decimal `json:"runningWACAfter"`
	OrderRef        string          `json:"orderRef,omitempty"`
	Reason          string          `json:"reason,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// ListTransactionsResponse is a paginated movement history.
type ListTransactionsResponse struct {
	Transactions []InventoryTransactionResponse `json:"transactions"`
	NextToken    *string                        `json:"nextToken,omitempty"`
}

// ListStockItemsResponse is a paginated stock listing.
type ListStockItemsResponse struct {
	StockItems []StockItemResponse `json:"stockItems"`
	NextToken  *string             `json:"nextToken,omitempty"`
}

// ToStockItemResponse converts a domain.StockItem to its response DTO.
func ToStockItemResponse(s *domain.StockItem) StockItemResponse {
	return StockItemResponse{
		StockItemID:    s.StockItemID,
		ProductRef:     s.ProductRef,
		Format:         s.Format,
		QuantityOnHand: s.QuantityOnHand,
		RunningWAC:     s.RunningWAC,
	}
}

// ToStockItemResponses converts a slice of stock items.
func ToStockItemResponses(items []domain.StockItem) []StockItemResponse {
	responses := make([]StockItemResponse, len(items))
	for i := range items {
		responses[i] = ToStockItemResponse(&items[i])
	}
	return responses
}

// ToInventoryTransactionResponse converts a movement to its response DTO.
func ToInventoryTransactionResponse(t *domain.InventoryTransaction) InventoryTransactionResponse {
	return InventoryTransactionResponse{
		TransactionID:   t.TransactionID,
		StockItemID:     t.StockItemID,
		Kind:            string(t.Kind),
		Quantity:        t.Quantity,
		UnitCost:        t.UnitCost,
		RunningWACAfter: t.RunningWACAfter,
		OrderRef:        t.OrderRef,
		Reason:          t.Reason,
		CreatedAt:       t.CreatedAt,
	}
}

// ToInventoryTransactionResponses converts a slice of movements.
func ToInventoryTransactionResponses(txns []domain.InventoryTransaction) []InventoryTransactionResponse {
	responses := make([]InventoryTransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToInventoryTransactionResponse(&txns[i])
	}
	return responses
}
