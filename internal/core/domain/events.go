package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxComponent is one already-computed tax amount owed to a specific
// tax-payable account. Tax computation itself happens upstream.
type TaxComponent struct {
	AccountCode string          `json:"accountCode"`
	Amount      decimal.Decimal `json:"amount"`
}

// PaymentCaptured is the inbound event from the payment collaborator when a
// charge settles. AmountCaptured = Subtotal + sum of tax components.
type PaymentCaptured struct {
	OrderRef       string          `json:"orderRef"`
	AmountCaptured decimal.Decimal `json:"amountCaptured"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	FeeAmount      decimal.Decimal `json:"feeAmount"`
	TaxComponents  []TaxComponent  `json:"taxComponents"`
	CapturedAt     time.Time       `json:"capturedAt"`
}

// PaymentRefunded is the inbound event when a charge is refunded.
type PaymentRefunded struct {
	OrderRef      string          `json:"orderRef"`
	RefundAmount  decimal.Decimal `json:"refundAmount"`
	TaxComponents []TaxComponent  `json:"taxComponents"`
	RefundedAt    time.Time       `json:"refundedAt"`
}

// TaxTotal sums the event's tax components.
func (e PaymentCaptured) TaxTotal() decimal.Decimal {
	total := decimal.Zero
	for _, t := range e.TaxComponents {
		total = total.Add(t.Amount)
	}
	return total
}

// TaxTotal sums the refund's tax components.
func (e PaymentRefunded) TaxTotal() decimal.Decimal {
	total := decimal.Zero
	for _, t := range e.TaxComponents {
		total = total.Add(t.Amount)
	}
	return total
}
