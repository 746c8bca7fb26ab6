package domain_test

import (
	"testing"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInventoryTransaction_CostBasis(t *testing.T) {
	tests := []struct {
		name     string
		quantity int64
		unitCost string
		want     string
	}{
		{name: "sale carries negative quantity but positive cost", quantity: -2, unitCost: "12.50", want: "25"},
		{name: "purchase", quantity: 50, unitCost: "12.50", want: "625"},
		{name: "zero unit cost", quantity: -3, unitCost: "0", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := domain.InventoryTransaction{
				Quantity: tt.quantity,
				UnitCost: decimal.RequireFromString(tt.unitCost),
			}
			assert.True(t, txn.CostBasis().Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", txn.CostBasis(), tt.want)
		})
	}
}

func TestReservationStatus_Terminal(t *testing.T) {
	assert.False(t, domain.Reserved.Terminal())
	assert.True(t, domain.Consumed.Terminal())
	assert.True(t, domain.Expired.Terminal())
	assert.True(t, domain.Released.Terminal())
}
