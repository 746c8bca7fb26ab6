package dto

import (
	"time"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateRecurringTemplateRequest defines the payload for a recurring template.
type CreateRecurringTemplateRequest struct {
	Name              string          `json:"name" binding:"required"`
	Description       string          `json:"description"`
	Frequency         string          `json:"frequency" binding:"required,oneof=DAILY WEEKLY MONTHLY QUARTERLY YEARLY"`
	DayOfMonth        *int            `json:"dayOfMonth,omitempty" binding:"omitempty,min=1,max=31"`
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	DebitAccountCode  string          `json:"debitAccountCode" binding:"required"`
	CreditAccountCode string          `json:"creditAccountCode" binding:"required"`
	FirstRunDate      time.Time       `json:"firstRunDate" binding:"required"`
	AutoPost          bool            `json:"autoPost"`
}

// RecurringTemplateResponse defines the data returned for a template.
type RecurringTemplateResponse struct {
	TemplateID        string          `json:"templateID"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Frequency         string          `json:"frequency"`
	DayOfMonth        *int            `json:"dayOfMonth,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	DebitAccountCode  string          `json:"debitAccountCode"`
	CreditAccountCode string          `json:"creditAccountCode"`
	NextRunDate       time.Time       `json:"nextRunDate"`
	LastRunDate       *time.Time      `json:"lastRunDate,omitempty"`
	IsActive          bool            `json:"isActive"`
	AutoPost          bool            `json:"autoPost"`
	TotalRuns         int             `json:"totalRuns"`
}

// ToRecurringTemplateResponse converts a domain template to its response DTO.
func ToRecurringTemplateResponse(t *domain.RecurringTemplate) RecurringTemplateResponse {
	return RecurringTemplateResponse{
		TemplateID:        t.TemplateID,
		Name:              t.Name,
		Description:       t.Description,
		Frequency:         string(t.Frequency),
		DayOfMonth:        t.DayOfMonth,
		Amount:            t.Amount,
		DebitAccountCode:  t.DebitAccountCode,
		CreditAccountCode: t.CreditAccountCode,
		NextRunDate:       t.NextRunDate,
		LastRunDate:       t.LastRunDate,
		IsActive:          t.IsActive,
		AutoPost:          t.AutoPost,
		TotalRuns:         t.TotalRuns,
	}
}

// ToRecurringTemplateResponses converts a slice of templates.
func ToRecurringTemplateResponses(templates []domain.RecurringTemplate) []RecurringTemplateResponse {
	responses := make([]RecurringTemplateResponse, len(templates))
	for i := range templates {
		responses[i] = ToRecurringTemplateResponse(&templates[i])
	}
	return responses
}
