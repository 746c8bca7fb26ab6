package services

import (
	"context"
	"time"

	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	"github.com/merchantkit/fulfillment_ledger/internal/dto"
)

// RunDueSummary reports one scheduler pass.
type RunDueSummary struct {
	Examined int `json:"examined"`
	Posted   int `json:"posted"`
	Drafted  int `json:"drafted"`
	Skipped  int `json:"skipped"`
}

// RecurringSvcFacade manages recurring entry templates and their due runs.
type RecurringSvcFacade interface {
	// CreateTemplate validates and persists a recurring template.
	CreateTemplate(ctx context.Context, req dto.CreateRecurringTemplateRequest, creatorUserID string) (*domain.RecurringTemplate, error)

	// GetTemplate retrieves a template by id.
	GetTemplate(ctx context.Context, templateID string) (*domain.RecurringTemplate, error)

	// ListTemplates retrieves templates, optionally only active ones.
	ListTemplates(ctx context.Context, activeOnly bool) ([]domain.RecurringTemplate, error)

	// Deactivate turns a template off.
	Deactivate(ctx context.Context, templateID, userID string) error

	// RunDue generates entries for every active template due at now. Each
	// template is advanced with a conditional write first, so a second run in
	// the same period is a no-op rather than a double post.
	RunDue(ctx context.Context, now time.Time, userID string) (*RunDueSummary, error)
}
