package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/merchantkit/fulfillment_ledger/internal/core/ports/services"
	"github.com/merchantkit/fulfillment_ledger/internal/dto"
	"github.com/merchantkit/fulfillment_ledger/internal/middleware"
)

// reservationHandler handles HTTP requests for checkout holds.
type reservationHandler struct {
	reservationService portssvc.ReservationSvcFacade
}

// registerReservationRoutes registers routes related to reservations.
func registerReservationRoutes(rg *gin.RouterGroup, reservationService portssvc.ReservationSvcFacade) {
	h := &reservationHandler{reservationService: reservationService}

	reservations := rg.Group("/reservations")
	{
		reservations.POST("", h.reserve)
		reservations.GET("/:id", h.getReservation)
		reservations.POST("/:id/consume", h.consume)
		reservations.POST("/:id/release", h.release)
	}
}

func (h *reservationHandler) reserve(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ReserveRequest
	if !bindJSON(c, &req) {
		return
	}

	reservation, err := h.reservationService.Reserve(c.Request.Context(), req, middleware.ActorFromRequest(c))
	if err != nil {
		respondError(c, err, "Failed to create reservation")
		return
	}

	logger.Info("Reservation placed",
		slog.String("reservation_id", reservation.ReservationID),
		slog.String("cart_ref", reservation.CartRef))
	c.JSON(http.StatusCreated, dto.ToReservationResponse(reservation))
}

func (h *reservationHandler) getReservation(c *gin.Context) {
	reservation, err := h.reservationService.GetReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve reservation")
		return
	}
	c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *reservationHandler) consume(c *gin.Context) {
	var req dto.ConsumeReservationRequest
	if !bindJSON(c, &req) {
		return
	}

	reservation, saleTxn, err := h.reservationService.Consume(c.Request.Context(), c.Param("id"), req.OrderRef, middleware.ActorFromRequest(c))
	if err != nil {
		respondError(c, err, "Failed to consume reservation")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reservation":     dto.ToReservationResponse(reservation),
		"saleTransaction": dto.ToInventoryTransactionResponse(saleTxn),
	})
}

func (h *reservationHandler) release(c *gin.Context) {
	if err := h.reservationService.Release(c.Request.Context(), c.Param("id"), middleware.ActorFromRequest(c)); err != nil {
		respondError(c, err, "Failed to release reservation")
		return
	}
	c.Status(http.StatusNoContent)
}
