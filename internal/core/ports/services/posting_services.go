package services

import (
	"context"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
)

// CaptureResult reports what a payment-captured event produced.
type CaptureResult struct {
	SaleEntry    *domain.JournalEntry
	FeeEntry     *domain.JournalEntry
	COGSEntry    *domain.JournalEntry
	Reservations []domain.Reservation
	// COGSDeferred is set when the cost-basis policy blocked the COGS posting
	// because the WAC was zero at sale time. The sale itself stands.
	COGSDeferred bool
}

// RefundResult reports what a payment-refunded event produced.
type RefundResult struct {
	RefundEntry *domain.JournalEntry
	Returns     []domain.InventoryTransaction
}

// PostingSvcFacade translates order lifecycle events into balanced journal
// entries and the inventory side effects that go with them.
type PostingSvcFacade interface {
	// HandlePaymentCaptured consumes the order's reservations, then posts the
	// AUTO_SALE, AUTO_STRIPE_FEE and COGS entries. Runs as a saga: completed
	// steps are compensated in reverse order if a later step fails.
	HandlePaymentCaptured(ctx context.Context, event domain.PaymentCaptured, userID string) (*CaptureResult, error)

	// HandlePaymentRefunded posts the AUTO_REFUND mirror entry and restores
	// stock via RETURN transactions for each original sale movement.
	HandlePaymentRefunded(ctx context.Context, event domain.PaymentRefunded, userID string) (*RefundResult, error)
}
