package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/merchantkit/fulfillment_ledger/internal/core/ports/services"
	"github.com/merchantkit/fulfillment_ledger/internal/dto"
	"github.com/merchantkit/fulfillment_ledger/internal/middleware"
)

// webhookHandler receives payment lifecycle events from the payment
// collaborator and feeds them into the posting rules.
type webhookHandler struct {
	postingService portssvc.PostingSvcFacade
}

// registerWebhookRoutes registers the payment webhook endpoint.
func registerWebhookRoutes(rg *gin.RouterGroup, postingService portssvc.PostingSvcFacade, rateLimit gin.HandlerFunc) {
	h := &webhookHandler{postingService: postingService}
	rg.POST("/webhooks/payments", rateLimit, h.handlePaymentEvent)
}

func (h *webhookHandler) handlePaymentEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.PaymentWebhookRequest
	if !bindJSON(c, &req) {
		return
	}

	logger = logger.With(
		slog.String("event_type", req.EventType),
		slog.String("order_ref", req.OrderRef))
	actor := middleware.ActorFromRequest(c)
	now := timeNow()

	switch req.EventType {
	case dto.EventPaymentCaptured:
		result, err := h.postingService.HandlePaymentCaptured(c.Request.Context(), req.ToPaymentCaptured(now), actor)
		if err != nil {
			respondError(c, err, "Failed to process payment capture")
			return
		}
		logger.Info("Payment capture processed", slog.Bool("cogs_deferred", result.COGSDeferred))
		c.JSON(http.StatusOK, captureResponse(result))

	case dto.EventPaymentRefunded:
		result, err := h.postingService.HandlePaymentRefunded(c.Request.Context(), req.ToPaymentRefunded(now), actor)
		if err != nil {
			respondError(c, err, "Failed to process payment refund")
			return
		}
		logger.Info("Payment refund processed", slog.Int("returns", len(result.Returns)))
		c.JSON(http.StatusOK, refundResponse(result))

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported event type: " + req.EventType})
	}
}

func captureResponse(result *portssvc.CaptureResult) gin.H {
	resp := gin.H{"cogsDeferred": result.COGSDeferred}
	if result.SaleEntry != nil {
		resp["saleEntry"] = dto.ToJournalEntryResponse(result.SaleEntry)
	}
	if result.FeeEntry != nil {
		resp["feeEntry"] = dto.ToJournalEntryResponse(result.FeeEntry)
	}
	if result.COGSEntry != nil {
		resp["cogsEntry"] = dto.ToJournalEntryResponse(result.COGSEntry)
	}
	return resp
}

func refundResponse(result *portssvc.RefundResult) gin.H {
	return gin.H{
		"refundEntry": dto.ToJournalEntryResponse(result.RefundEntry),
		"returns":     dto.ToInventoryTransactionResponses(result.Returns),
	}
}
