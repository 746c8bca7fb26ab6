package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/merchantkit/fulfillment_ledger/internal/core/ports/services"
	"github.com/merchantkit/fulfillment_ledger/internal/dto"
	"github.com/merchantkit/fulfillment_ledger/internal/middleware"
)

// recurringHandler handles HTTP requests for recurring entry templates.
type recurringHandler struct {
	recurringService portssvc.RecurringSvcFacade
}

// registerRecurringRoutes registers routes related to recurring templates.
func registerRecurringRoutes(rg *gin.RouterGroup, recurringService portssvc.RecurringSvcFacade) {
	h := &recurringHandler{recurringService: recurringService}

	templates := rg.Group("/recurring-templates")
	{
		templates.POST("", h.createTemplate)
		templates.GET("", h.listTemplates)
		templates.GET("/:id", h.getTemplate)
		templates.DELETE("/:id", h.deactivateTemplate)
		templates.POST("/run-due", h.runDue)
	}
}

func (h *recurringHandler) createTemplate(c *gin.Context) {
	var req dto.CreateRecurringTemplateRequest
	if !bindJSON(c, &req) {
		return
	}

	template, err := h.recurringService.CreateTemplate(c.Request.Context(), req, middleware.ActorFromRequest(c))
	if err != nil {
		respondError(c, err, "Failed to create recurring template")
		return
	}
	c.JSON(http.StatusCreated, dto.ToRecurringTemplateResponse(template))
}

func (h *recurringHandler) getTemplate(c *gin.Context) {
	template, err := h.recurringService.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve recurring template")
		return
	}
	c.JSON(http.StatusOK, dto.ToRecurringTemplateResponse(template))
}

func (h *recurringHandler) listTemplates(c *gin.Context) {
	activeOnly := c.Query("activeOnly") == "true"
	templates, err := h.recurringService.ListTemplates(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, err, "Failed to list recurring templates")
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": dto.ToRecurringTemplateResponses(templates)})
}

func (h *recurringHandler) deactivateTemplate(c *gin.Context) {
	if err := h.recurringService.Deactivate(c.Request.Context(), c.Param("id"), middleware.ActorFromRequest(c)); err != nil {
		respondError(c, err, "Failed to deactivate recurring template")
		return
	}
	c.Status(http.StatusNoContent)
}

// runDue triggers a scheduler pass immediately; the worker runs the same
// operation on a cron cadence.
func (h *recurringHandler) runDue(c *gin.Context) {
	summary, err := h.recurringService.RunDue(c.Request.Context(), timeNow(), middleware.ActorFromRequest(c))
	if err != nil {
		respondError(c, err, "Failed to run due recurring templates")
		return
	}
	c.JSON(http.StatusOK, summary)
}
