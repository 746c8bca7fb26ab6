package dto

import (
	"time"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Webhook event types accepted on the payment webhook.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentRefunded = "payment.refunded"
)

// TaxComponentPayload is one already-computed tax amount in a webhook event.
type TaxComponentPayload struct {
	AccountCode string          `json:"accountCode" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
}

// PaymentWebhookRequest is the envelope delivered by the payment collaborator.
type PaymentWebhookRequest struct {
	EventType      string                `json:"eventType" binding:"required,oneof=payment.captured payment.refunded"`
	OrderRef       string                `json:"orderRef" binding:"required"`
	AmountCaptured decimal.Decimal       `json:"amountCaptured"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	FeeAmount      decimal.Decimal       `json:"feeAmount"`
	RefundAmount   decimal.Decimal       `json:"refundAmount"`
	TaxComponents  []TaxComponentPayload `json:"taxComponents"`
	OccurredAt     *time.Time            `json:"occurredAt,omitempty"`
}

func (r PaymentWebhookRequest) taxComponents() []domain.TaxComponent {
	components := make([]domain.TaxComponent, len(r.TaxComponents))
	for i, t := range r.TaxComponents {
		components[i] = domain.TaxComponent{AccountCode: t.AccountCode, Amount: t.Amount}
	}
	return components
}

func (r PaymentWebhookRequest) occurredAt(now time.Time) time.Time {
	if r.OccurredAt != nil {
		return *r.OccurredAt
	}
	return now
}

// ToPaymentCaptured maps the envelope onto the capture domain event.
func (r PaymentWebhookRequest) ToPaymentCaptured(now time.Time) domain.PaymentCaptured {
	return domain.PaymentCaptured{
		OrderRef:       r.OrderRef,
		AmountCaptured: r.AmountCaptured,
		Subtotal:       r.Subtotal,
		FeeAmount:      r.FeeAmount,
		TaxComponents:  r.taxComponents(),
		CapturedAt:     r.occurredAt(now),
	}
}

// ToPaymentRefunded maps the envelope onto the refund domain event.
func (r PaymentWebhookRequest) ToPaymentRefunded(now time.Time) domain.PaymentRefunded {
	return domain.PaymentRefunded{
		OrderRef:      r.OrderRef,
		RefundAmount:  r.RefundAmount,
		TaxComponents: r.taxComponents(),
		RefundedAt:    r.occurredAt(now),
	}
}
