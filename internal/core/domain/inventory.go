package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryTransactionKind enumerates the supported inventory movements.
type InventoryTransactionKind string

const (
	Purchase   InventoryTransactionKind = "PURCHASE"
	Sale       InventoryTransactionKind = "SALE"
	Return     InventoryTransactionKind = "RETURN"
	Adjustment InventoryTransactionKind = "ADJUSTMENT"
)

// StockItem tracks physical quantity and the running weighted-average cost
// for one product/format combination. Mutated only by the inventory valuation
// engine; reservations read it but never write it.
type StockItem struct {
	StockItemID    string          `json:"stockItemID"`
	ProductRef     string          `json:"productRef"`
	Format         string          `json:"format"`
	QuantityOnHand int64           `json:"quantityOnHand"`
	RunningWAC     decimal.Decimal `json:"runningWAC"`
	AuditFields
}

// InventoryTransaction is one append-only movement against a stock item.
// Quantity is signed: positive for PURCHASE/RETURN/positive ADJUSTMENT,
// negative for SALE/negative ADJUSTMENT. The audit trail from which COGS is
// derived, so rows are immutable once created.
type InventoryTransaction struct {
	TransactionID   string                   `json:"transactionID"`
	StockItemID     string                   `json:"stockItemID"`
	Kind            InventoryTransactionKind `json:"kind"`
	Quantity        int64                    `json:"quantity"`
	UnitCost        decimal.Decimal          `json:"unitCost"`
	RunningWACAfter decimal.Decimal          `json:"runningWACAfter"`
	OrderRef        string                   `json:"orderRef,omitempty"`
	Reason          string                   `json:"reason,omitempty"`
	CreatedAt       time.Time                `json:"createdAt"`
	CreatedBy       string                   `json:"createdBy"`
}

// CostBasis returns the absolute cost carried by this transaction,
// |quantity| * unitCost.
func (t InventoryTransaction) CostBasis() decimal.Decimal {
	qty := t.Quantity
	if qty < 0 {
		qty = -qty
	}
	return t.UnitCost.Mul(decimal.NewFromInt(qty))
}
