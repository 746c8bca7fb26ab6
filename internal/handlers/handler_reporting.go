package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/merchantkit/fulfillment_ledger/internal/core/ports/services"
)

// reportingHandler handles HTTP requests for financial statements.
type reportingHandler struct {
	reportingService portssvc.ReportingSvcFacade
}

// registerReportingRoutes registers the statement routes.
func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingSvcFacade) {
	h := &reportingHandler{reportingService: reportingService}

	reports := rg.Group("/reports")
	{
		reports.GET("/trial-balance", h.trialBalance)
		reports.GET("/income-statement", h.incomeStatement)
		reports.GET("/balance-sheet", h.balanceSheet)
		reports.GET("/cash-flow", h.cashFlow)
	}
}

func (h *reportingHandler) trialBalance(c *gin.Context) {
	asOf, ok := asOfParam(c)
	if !ok {
		return
	}

	rows, err := h.reportingService.TrialBalance(c.Request.Context(), asOf)
	if err != nil {
		respondError(c, err, "Failed to build trial balance")
		return
	}
	c.JSON(http.StatusOK, gin.H{"asOf": asOf, "rows": rows})
}

func (h *reportingHandler) incomeStatement(c *gin.Context) {
	from, to, ok := periodParams(c)
	if !ok {
		return
	}

	stmt, err := h.reportingService.IncomeStatement(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err, "Failed to build income statement")
		return
	}
	c.JSON(http.StatusOK, stmt)
}

func (h *reportingHandler) balanceSheet(c *gin.Context) {
	asOf, ok := asOfParam(c)
	if !ok {
		return
	}

	stmt, err := h.reportingService.BalanceSheet(c.Request.Context(), asOf)
	if err != nil {
		respondError(c, err, "Failed to build balance sheet")
		return
	}
	c.JSON(http.StatusOK, stmt)
}

func (h *reportingHandler) cashFlow(c *gin.Context) {
	from, to, ok := periodParams(c)
	if !ok {
		return
	}

	stmt, err := h.reportingService.CashFlow(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err, "Failed to build cash flow statement")
		return
	}
	c.JSON(http.StatusOK, stmt)
}

func asOfParam(c *gin.Context) (time.Time, bool) {
	asOf, ok := parseDateQuery(c, "asOf")
	if !ok {
		return time.Time{}, false
	}
	if asOf == nil {
		return timeNow(), true
	}
	return *asOf, true
}

// periodParams reads from/to, defaulting to the current month to date.
func periodParams(c *gin.Context) (time.Time, time.Time, bool) {
	from, ok := parseDateQuery(c, "from")
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	to, ok := parseDateQuery(c, "to")
	if !ok {
		return time.Time{}, time.Time{}, false
	}

	now := timeNow()
	if to == nil {
		to = &now
	}
	if from == nil {
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		from = &monthStart
	}
	return *from, *to, true
}
