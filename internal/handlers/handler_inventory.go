package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/merchantkit/fulfillment_ledger/internal/core/ports/services"
	"github.com/merchantkit/fulfillment_ledger/internal/dto"
	"github.com/merchantkit/fulfillment_ledger/internal/middleware"
)

// inventoryHandler handles HTTP requests for stock items and movements.
type inventoryHandler struct {
	inventoryService   portssvc.InventorySvcFacade
	reservationService portssvc.ReservationSvcFacade
}

// registerInventoryRoutes registers routes related to stock.
func registerInventoryRoutes(rg *gin.RouterGroup, inventoryService portssvc.InventorySvcFacade, reservationService portssvc.ReservationSvcFacade) {
	h := &inventoryHandler{inventoryService: inventoryService, reservationService: reservationService}

	stock := rg.Group("/stock-items")
	{
		stock.POST("", h.createStockItem)
		stock.GET("", h.listStockItems)
		stock.GET("/:id", h.getStockItem)
		stock.GET("/:id/sellable", h.getSellableQuantity)
		stock.GET("/:id/transactions", h.listTransactions)
		stock.POST("/:id/purchases", h.recordPurchase)
		stock.POST("/:id/sales", h.recordSale)
		stock.POST("/:id/adjustments", h.recordAdjustment)
	}
	rg.POST("/returns", h.recordReturn)
}

func (h *inventoryHandler) createStockItem(c *gin.Context) {
	var req dto.CreateStockItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.inventoryService.CreateStockItem(c.Request.Context(), req, middleware.ActorFromRequest(c))
	if err != nil {
		respondError(c, err, "Failed to create stock item")
		return
	}
	c.JSON(http.StatusCreated, dto.ToStockItemResponse(item))
}

func (h *inventoryHandler) getStockItem(c *gin.Context) {
	item, err := h.inventoryService.GetStockItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve stock item")
		return
	}
	c.JSON(http.StatusOK, dto.ToStockItemResponse(item))
}

func (h *inventoryHandler) getSellableQuantity(c *gin.Context) {
	sellable, err := h.reservationService.SellableQuantity(c.Request.Context(), c.Param("id"), timeNow())
	if err != nil {
		respondError(c, err, "Failed to compute sellable quantity")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sellableQuantity": sellable})
}

func (h *inventoryHandler) listStockItems(c *gin.Context) {
	limit, nextToken := paginationParams(c)
	items, next, err := h.inventoryService.ListStockItems(c.Request.Context(), limit, nextToken)
	if err != nil {
		respondError(c, err, "Failed to list stock items")
		return
	}
	c.JSON(http.StatusOK, dto.ListStockItemsResponse{StockItems: dto.ToStockItemResponses(items), NextToken: next})
}

func (h *inventoryHandler) listTransactions(c *gin.Context) {
	limit, nextToken := paginationParams(c)
	txns, next, err := h.inventoryService.ListTransactions(c.Request.Context(), c.Param("id"), limit, nextToken)
	if err != nil {
		respondError(c, err, "Failed to list inventory transactions")
		return
	}
	c.JSON(http.StatusOK, dto.ListTransactionsResponse{Transactions: dto.ToInventoryTransactionResponses(txns), NextToken: next})
}

func (h *inventoryHandler) recordPurchase(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RecordPurchaseRequest
	if !bindJSON(c, &req) {
		return
	}

	txn, err := h.inventoryService.RecordPurchase(c.Request.Context(), c.Param("id"), req.Quantity, req.UnitCost, middleware.ActorFromRequest(c))
	if err != nil {
		respondError(c, err, "Failed to record purchase")
		return
	}

	logger.Info("Purchase recorded",
		slog.String("stock_item_id", txn.StockItemID),
		slog.Int64("quantity", txn.Quantity),
		slog.String("new_wac", txn.RunningWACAfter.String()))
	c.JSON(http.StatusCreated, dto.ToInventoryTransactionResponse(txn))
}

func (h *inventoryHandler) recordSale(c *gin.Context) {
	var req dto.RecordSaleRequest
	if !bindJSON(c, &req) {
		return
	}

	txn, err := h.inventoryService.RecordSale(c.Request.Context(), c.Param("id"), req.Quantity, req.OrderRef, middleware.ActorFromRequest(c))
	if err != nil {
		respondError(c, err, "Failed to record sale")
		return
	}
	c.JSON(http.StatusCreated, dto.ToInventoryTransactionResponse(txn))
}

func (h *inventoryHandler) recordAdjustment(c *gin.Context) {
	var req dto.RecordAdjustmentRequest
	if !bindJSON(c, &req) {
		return
	}

	txn, err := h.inventoryService.RecordAdjustment(c.Request.Context(), c.Param("id"), req.QuantityDelta, req.Reason, middleware.ActorFromRequest(c))
	if err != nil {
		respondError(c, err, "Failed to record adjustment")
		return
	}
	c.JSON(http.StatusCreated, dto.ToInventoryTransactionResponse(txn))
}

func (h *inventoryHandler) recordReturn(c *gin.Context) {
	var req dto.RecordReturnRequest
	if !bindJSON(c, &req) {
		return
	}

	txn, err := h.inventoryService.RecordReturn(c.Request.Context(), req.OriginalSaleTransactionID, req.Quantity, middleware.ActorFromRequest(c))
	if err != nil {
		respondError(c, err, "Failed to record return")
		return
	}
	c.JSON(http.StatusCreated, dto.ToInventoryTransactionResponse(txn))
}
