package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	portsrepo "github.com/merchantkit/fulfillment_ledger/internal/core/ports/repositories"
	portssvc "github.com/merchantkit/fulfillment_ledger/internal/core/ports/services"
	"github.com/merchantkit/fulfillment_ledger/internal/dto"
	"github.com/merchantkit/fulfillment_ledger/internal/middleware"
)

// journalHandler handles HTTP requests for journal entries.
type journalHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// registerJournalRoutes registers routes related to journal entries.
func registerJournalRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := &journalHandler{ledgerService: ledgerService}

	entries := rg.Group("/journal-entries")
	{
		entries.POST("", h.createEntry)
		entries.GET("", h.listEntries)
		entries.GET("/:id", h.getEntry)
		entries.POST("/:id/post", h.postDraft)
	}
	rg.GET("/orders/:orderRef/journal-entries", h.getEntriesByOrder)
}

func (h *journalHandler) createEntry(c *gin.Context) {
	var req dto.CreateEntryRequest
	if !bindJSON(c, &req) {
		return
	}

	in := portssvc.PostEntryInput{
		Kind:        domain.Manual,
		Date:        req.Date,
		Description: req.Description,
		Reference:   req.Reference,
		OrderRef:    req.OrderRef,
		Lines:       req.ToJournalLines(),
	}

	actor := middleware.ActorFromRequest(c)
	var entry *domain.JournalEntry
	var err error
	if req.Draft {
		entry, err = h.ledgerService.SaveDraft(c.Request.Context(), in, actor)
	} else {
		entry, err = h.ledgerService.Post(c.Request.Context(), in, actor)
	}
	if err != nil {
		respondError(c, err, "Failed to create journal entry")
		return
	}
	c.JSON(http.StatusCreated, dto.ToJournalEntryResponse(entry))
}

func (h *journalHandler) postDraft(c *gin.Context) {
	if err := h.ledgerService.PostDraft(c.Request.Context(), c.Param("id"), middleware.ActorFromRequest(c)); err != nil {
		respondError(c, err, "Failed to post draft entry")
		return
	}
	c.Status(http.StatusNoContent)
}

// getEntry fetches by entry id, or by JV number when the path value looks
// like one.
func (h *journalHandler) getEntry(c *gin.Context) {
	id := c.Param("id")

	var err error
	var entry *domain.JournalEntry
	if len(id) > 3 && id[:3] == "JV-" {
		entry, err = h.ledgerService.GetEntryByNumber(c.Request.Context(), id)
	} else {
		entry, err = h.ledgerService.GetEntryByID(c.Request.Context(), id)
	}
	if err != nil {
		respondError(c, err, "Failed to retrieve journal entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

func (h *journalHandler) getEntriesByOrder(c *gin.Context) {
	entries, err := h.ledgerService.GetEntriesByOrderRef(c.Request.Context(), c.Param("orderRef"))
	if err != nil {
		respondError(c, err, "Failed to retrieve journal entries for order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": dto.ToJournalEntryResponses(entries)})
}

func (h *journalHandler) listEntries(c *gin.Context) {
	limit, nextToken := paginationParams(c)
	filter := portsrepo.ListEntriesFilter{Limit: limit, NextToken: nextToken}

	if raw := c.Query("kind"); raw != "" {
		kind := domain.EntryKind(raw)
		filter.Kind = &kind
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.EntryStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("orderRef"); raw != "" {
		filter.OrderRef = &raw
	}
	if raw := c.Query("numberPrefix"); raw != "" {
		filter.NumberPrefix = &raw
	}
	if from, ok := parseDateQuery(c, "from"); ok {
		filter.From = from
	} else {
		return
	}
	if to, ok := parseDateQuery(c, "to"); ok {
		filter.To = to
	} else {
		return
	}

	entries, next, err := h.ledgerService.ListEntries(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to list journal entries")
		return
	}
	c.JSON(http.StatusOK, dto.ListEntriesResponse{Entries: dto.ToJournalEntryResponses(entries), NextToken: next})
}
