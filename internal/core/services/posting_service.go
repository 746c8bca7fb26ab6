package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/merchantkit/fulfillment_ledger/internal/apperrors"
	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	portssvc "github.com/merchantkit/fulfillment_ledger/internal/core/ports/services"
	"github.com/merchantkit/fulfillment_ledger/internal/middleware"
	"github.com/merchantkit/fulfillment_ledger/internal/utils/accounting"
	"github.com/merchantkit/fulfillment_ledger/pkg/config"
)

// PostingAccounts names the chart accounts the automatic posting rules use.
type PostingAccounts struct {
	ProcessorCash string
	Revenue       string
	FeeExpense    string
	COGS          string
	Inventory     string
}

// PostingAccountsFromConfig pulls the posting accounts out of app config.
func PostingAccountsFromConfig(cfg *config.Config) PostingAccounts {
	return PostingAccounts{
		ProcessorCash: cfg.ProcessorCashAccount,
		Revenue:       cfg.RevenueAccount,
		FeeExpense:    cfg.FeeExpenseAccount,
		COGS:          cfg.COGSAccount,
		Inventory:     cfg.InventoryAccount,
	}
}

// postingService translates order lifecycle events into balanced entries and
// the inventory side effects that accompany them.
type postingService struct {
	reservationSvc  portssvc.ReservationSvcFacade
	inventorySvc    portssvc.InventorySvcFacade
	ledgerSvc       portssvc.LedgerSvcFacade
	accounts        PostingAccounts
	costBasisPolicy config.CostBasisPolicy
}

// NewPostingService creates a new posting rules engine.
func NewPostingService(
	reservationSvc portssvc.ReservationSvcFacade,
	inventorySvc portssvc.InventorySvcFacade,
	ledgerSvc portssvc.LedgerSvcFacade,
	accounts PostingAccounts,
	policy config.CostBasisPolicy,
) portssvc.PostingSvcFacade {
	return &postingService{
		reservationSvc:  reservationSvc,
		inventorySvc:    inventorySvc,
		ledgerSvc:       ledgerSvc,
		accounts:        accounts,
		costBasisPolicy: policy,
	}
}

var _ portssvc.PostingSvcFacade = (*postingService)(nil)

// compensation is one undo step of a multi-step business operation.
type compensation struct {
	describe string
	run      func(ctx context.Context) error
}

// saga collects compensations as steps succeed and runs them in reverse
// order if a later step fails. Compensation failures are not retried here;
// they are logged for manual reconciliation.
type saga struct {
	compensations []compensation
}

func (s *saga) push(describe string, run func(ctx context.Context) error) {
	s.compensations = append(s.compensations, compensation{describe: describe, run: run})
}

func (s *saga) rollback(ctx context.Context) {
	logger := middleware.GetLoggerFromCtx(ctx)
	for i := len(s.compensations) - 1; i >= 0; i-- {
		c := s.compensations[i]
		if err := c.run(ctx); err != nil {
			logger.Error("Compensation failed; manual reconciliation required",
				slog.String("step", c.describe),
				slog.String("error", err.Error()))
		} else {
			logger.Info("Compensation applied", slog.String("step", c.describe))
		}
	}
}

// HandlePaymentCaptured runs the capture pipeline: consume the order's
// reservations, then post AUTO_SALE, AUTO_STRIPE_FEE and the COGS entry.
func (s *postingService) HandlePaymentCaptured(ctx context.Context, event domain.PaymentCaptured, userID string) (*portssvc.CaptureResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("order_ref", event.OrderRef))

	taxTotal := event.TaxTotal()
	if !event.AmountCaptured.Equal(event.Subtotal.Add(taxTotal)) {
		return nil, fmt.Errorf("%w: captured %s != subtotal %s + tax %s",
			apperrors.ErrValidation, event.AmountCaptured, event.Subtotal, taxTotal)
	}

	sg := &saga{}
	result := &portssvc.CaptureResult{}

	// 1. Consume the checkout holds; this decrements stock and records the
	// SALE transactions the COGS entry is derived from. The cart carries the
	// order reference through checkout.
	reservations, saleTxns, err := s.reservationSvc.ConsumeCart(ctx, event.OrderRef, event.OrderRef, userID)
	if err != nil {
		return nil, fmt.Errorf("capture for order %s: %w", event.OrderRef, err)
	}
	result.Reservations = reservations
	for _, txn := range saleTxns {
		txn := txn
		qty := -txn.Quantity
		sg.push(fmt.Sprintf("restore stock for sale txn %s", txn.TransactionID), func(ctx context.Context) error {
			_, err := s.inventorySvc.RecordReturn(ctx, txn.TransactionID, qty, userID)
			return err
		})
	}

	// 2. AUTO_SALE: debit processor cash for the full capture, credit revenue
	// for the subtotal and each nonzero tax component. Balanced by
	// construction since total = subtotal + sum(tax).
	saleLines := accounting.NewEntryBuilder().
		Debit(s.accounts.ProcessorCash, event.AmountCaptured, "Payment captured").
		Credit(s.accounts.Revenue, event.Subtotal, "Sale revenue")
	for _, tax := range event.TaxComponents {
		saleLines.Credit(tax.AccountCode, tax.Amount, "Tax collected")
	}
	saleEntry, err := s.ledgerSvc.Post(ctx, portssvc.PostEntryInput{
		Kind:        domain.AutoSale,
		Date:        event.CapturedAt,
		Description: fmt.Sprintf("Sale for order %s", event.OrderRef),
		Reference:   event.OrderRef,
		OrderRef:    event.OrderRef,
		Lines:       saleLines.Lines(),
	}, userID)
	if err != nil {
		sg.rollback(ctx)
		return nil, fmt.Errorf("capture for order %s: sale entry: %w", event.OrderRef, err)
	}
	result.SaleEntry = saleEntry
	sg.push(fmt.Sprintf("reverse sale entry %s", saleEntry.EntryNumber), s.reversalOf(saleEntry, userID))

	// 3. AUTO_STRIPE_FEE: the fee is computed upstream by the gateway.
	if event.FeeAmount.IsPositive() {
		feeLines := accounting.NewEntryBuilder().
			Debit(s.accounts.FeeExpense, event.FeeAmount, "Processor fee").
			Credit(s.accounts.ProcessorCash, event.FeeAmount, "Processor fee withheld")
		feeEntry, err := s.ledgerSvc.Post(ctx, portssvc.PostEntryInput{
			Kind:        domain.AutoStripeFee,
			Date:        event.CapturedAt,
			Description: fmt.Sprintf("Processor fee for order %s", event.OrderRef),
			Reference:   event.OrderRef,
			OrderRef:    event.OrderRef,
			Lines:       feeLines.Lines(),
		}, userID)
		if err != nil {
			sg.rollback(ctx)
			return nil, fmt.Errorf("capture for order %s: fee entry: %w", event.OrderRef, err)
		}
		result.FeeEntry = feeEntry
		sg.push(fmt.Sprintf("reverse fee entry %s", feeEntry.EntryNumber), s.reversalOf(feeEntry, userID))
	}

	// 4. COGS from the sale transactions' cost basis.
	totalCOGS := decimal.Zero
	for _, txn := range saleTxns {
		totalCOGS = totalCOGS.Add(txn.CostBasis())
	}
	if !totalCOGS.IsPositive() {
		// Sale preceded any purchase. The sale stands; whether COGS posting
		// is blocked or merely reported is a policy decision.
		logger.Warn("COGS has no cost basis for order", slog.String("policy", string(s.costBasisPolicy)))
		result.COGSDeferred = true
		if s.costBasisPolicy == config.PolicyBlockCOGS {
			return result, nil
		}
		return result, nil
	}

	cogsLines := accounting.NewEntryBuilder().
		Debit(s.accounts.COGS, totalCOGS, "Cost of goods sold").
		Credit(s.accounts.Inventory, totalCOGS, "Inventory relieved")
	cogsEntry, err := s.ledgerSvc.Post(ctx, portssvc.PostEntryInput{
		Kind:        domain.AutoSale,
		Date:        event.CapturedAt,
		Description: fmt.Sprintf("COGS for order %s", event.OrderRef),
		Reference:   event.OrderRef,
		OrderRef:    event.OrderRef,
		Lines:       cogsLines.Lines(),
	}, userID)
	if err != nil {
		sg.rollback(ctx)
		return nil, fmt.Errorf("capture for order %s: cogs entry: %w", event.OrderRef, err)
	}
	result.COGSEntry = cogsEntry

	logger.Info("Payment capture posted",
		slog.String("sale_entry", saleEntry.EntryNumber),
		slog.String("total_cogs", totalCOGS.String()))
	return result, nil
}

// HandlePaymentRefunded posts the AUTO_REFUND mirror of the original sale and
// restores stock via RETURN transactions.
func (s *postingService) HandlePaymentRefunded(ctx context.Context, event domain.PaymentRefunded, userID string) (*portssvc.RefundResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("order_ref", event.OrderRef))

	taxTotal := event.TaxTotal()
	netOfTax := event.RefundAmount.Sub(taxTotal)
	if netOfTax.IsNegative() {
		return nil, fmt.Errorf("%w: refund %s is less than its tax components %s",
			apperrors.ErrValidation, event.RefundAmount, taxTotal)
	}

	// Mirror image of the sale entry: debits and credits swap sides.
	refundLines := accounting.NewEntryBuilder().
		Debit(s.accounts.Revenue, netOfTax, "Refund, revenue reversed")
	for _, tax := range event.TaxComponents {
		refundLines.Debit(tax.AccountCode, tax.Amount, "Refund, tax reversed")
	}
	refundLines.Credit(s.accounts.ProcessorCash, event.RefundAmount, "Refund paid out")

	refundEntry, err := s.ledgerSvc.Post(ctx, portssvc.PostEntryInput{
		Kind:        domain.AutoRefund,
		Date:        event.RefundedAt,
		Description: fmt.Sprintf("Refund for order %s", event.OrderRef),
		Reference:   event.OrderRef,
		OrderRef:    event.OrderRef,
		Lines:       refundLines.Lines(),
	}, userID)
	if err != nil {
		return nil, fmt.Errorf("refund for order %s: refund entry: %w", event.OrderRef, err)
	}

	result := &portssvc.RefundResult{RefundEntry: refundEntry}

	// Restore stock from each original sale movement. Returns never perturb
	// the WAC. A failed return does not undo the refund entry; it is logged
	// for manual reconciliation and surfaced to the caller.
	saleTxns, err := s.inventorySvc.SaleTransactionsForOrder(ctx, event.OrderRef)
	if err != nil {
		return result, fmt.Errorf("refund for order %s: %w", event.OrderRef, err)
	}
	var firstErr error
	for _, txn := range saleTxns {
		ret, err := s.inventorySvc.RecordReturn(ctx, txn.TransactionID, -txn.Quantity, userID)
		if err != nil {
			logger.Error("Stock restore failed; manual reconciliation required",
				slog.String("sale_transaction_id", txn.TransactionID),
				slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		result.Returns = append(result.Returns, *ret)
	}
	if firstErr != nil {
		return result, fmt.Errorf("refund for order %s: stock restore incomplete: %w", event.OrderRef, firstErr)
	}

	logger.Info("Refund posted", slog.String("refund_entry", refundEntry.EntryNumber), slog.Int("returns", len(result.Returns)))
	return result, nil
}

// reversalOf builds a compensation that posts the mirror image of entry.
func (s *postingService) reversalOf(entry *domain.JournalEntry, userID string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		builder := accounting.NewEntryBuilder()
		for _, l := range entry.Lines {
			builder.Debit(l.AccountCode, l.Credit, "Reversal: "+l.Description)
			builder.Credit(l.AccountCode, l.Debit, "Reversal: "+l.Description)
		}
		_, err := s.ledgerSvc.Post(ctx, portssvc.PostEntryInput{
			Kind:        domain.Manual,
			Date:        time.Now().UTC(),
			Description: fmt.Sprintf("Reversal of %s", entry.EntryNumber),
			Reference:   entry.EntryNumber,
			OrderRef:    entry.OrderRef,
			Lines:       builder.Lines(),
		}, userID)
		return err
	}
}
