package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/merchantkit/fulfillment_ledger/internal/apperrors"
	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	portsrepo "github.com/merchantkit/fulfillment_ledger/internal/core/ports/repositories"
	portssvc "github.com/merchantkit/fulfillment_ledger/internal/core/ports/services"
	"github.com/merchantkit/fulfillment_ledger/internal/dto"
	"github.com/merchantkit/fulfillment_ledger/internal/middleware"
	"github.com/merchantkit/fulfillment_ledger/internal/utils/accounting"
)

const dueTemplateBatchSize = 100

// recurringService owns recurring templates and the scheduler pass that turns
// due templates into journal entries.
type recurringService struct {
	recurringRepo portsrepo.RecurringRepositoryFacade
	accountSvc    portssvc.AccountSvcFacade
	ledgerSvc     portssvc.LedgerSvcFacade
}

// NewRecurringService creates a new recurring entry scheduler.
func NewRecurringService(recurringRepo portsrepo.RecurringRepositoryFacade, accountSvc portssvc.AccountSvcFacade, ledgerSvc portssvc.LedgerSvcFacade) portssvc.RecurringSvcFacade {
	return &recurringService{
		recurringRepo: recurringRepo,
		accountSvc:    accountSvc,
		ledgerSvc:     ledgerSvc,
	}
}

var _ portssvc.RecurringSvcFacade = (*recurringService)(nil)

// CreateTemplate validates and persists a recurring template.
func (s *recurringService) CreateTemplate(ctx context.Context, req dto.CreateRecurringTemplateRequest, creatorUserID string) (*domain.RecurringTemplate, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: template amount must be positive, got %s", apperrors.ErrValidation, req.Amount)
	}
	if req.DebitAccountCode == req.CreditAccountCode {
		return nil, fmt.Errorf("%w: debit and credit accounts must differ", apperrors.ErrValidation)
	}
	if _, err := s.accountSvc.ResolveAccounts(ctx, []string{req.DebitAccountCode, req.CreditAccountCode}); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	template := domain.RecurringTemplate{
		TemplateID:        uuid.NewString(),
		Name:              req.Name,
		Description:       req.Description,
		Frequency:         domain.RecurringFrequency(req.Frequency),
		DayOfMonth:        req.DayOfMonth,
		Amount:            req.Amount,
		DebitAccountCode:  req.DebitAccountCode,
		CreditAccountCode: req.CreditAccountCode,
		NextRunDate:       req.FirstRunDate,
		IsActive:          true,
		AutoPost:          req.AutoPost,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.recurringRepo.SaveTemplate(ctx, template); err != nil {
		logger.Error("Failed to save recurring template", slog.String("error", err.Error()), slog.String("name", req.Name))
		return nil, fmt.Errorf("failed to save recurring template %s: %w", req.Name, err)
	}

	logger.Info("Recurring template created",
		slog.String("template_id", template.TemplateID),
		slog.String("frequency", string(template.Frequency)),
		slog.Time("next_run", template.NextRunDate))
	return &template, nil
}

// GetTemplate retrieves a template by id.
func (s *recurringService) GetTemplate(ctx context.Context, templateID string) (*domain.RecurringTemplate, error) {
	template, err := s.recurringRepo.FindTemplateByID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to find recurring template %s: %w", templateID, err)
	}
	return template, nil
}

// ListTemplates retrieves templates, optionally only active ones.
func (s *recurringService) ListTemplates(ctx context.Context, activeOnly bool) ([]domain.RecurringTemplate, error) {
	templates, err := s.recurringRepo.ListTemplates(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring templates: %w", err)
	}
	return templates, nil
}

// Deactivate turns a template off.
func (s *recurringService) Deactivate(ctx context.Context, templateID, userID string) error {
	if err := s.recurringRepo.SetTemplateActive(ctx, templateID, false, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to deactivate recurring template %s: %w", templateID, err)
	}
	return nil
}

// RunDue generates entries for every active template due at now. The template
// is advanced before its entry is generated; the conditional advance means a
// concurrent or repeated run skips instead of double-posting, and a template
// that advances but then fails to post misses one period rather than posting
// twice.
func (s *recurringService) RunDue(ctx context.Context, now time.Time, userID string) (*portssvc.RunDueSummary, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	summary := &portssvc.RunDueSummary{}

	templates, err := s.recurringRepo.FindDueTemplates(ctx, now, dueTemplateBatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to find due recurring templates: %w", err)
	}

	for _, t := range templates {
		summary.Examined++

		runDate := t.NextRunDate
		next := t.NextAfter(runDate)
		advanced, err := s.recurringRepo.AdvanceTemplate(ctx, t.TemplateID, runDate, next, now, userID)
		if err != nil {
			logger.Error("Failed to advance recurring template",
				slog.String("error", err.Error()), slog.String("template_id", t.TemplateID))
			summary.Skipped++
			continue
		}
		if !advanced {
			summary.Skipped++
			continue
		}

		if err := s.generateEntry(ctx, t, runDate, userID); err != nil {
			logger.Error("Failed to generate recurring entry",
				slog.String("error", err.Error()),
				slog.String("template_id", t.TemplateID),
				slog.Time("run_date", runDate))
			summary.Skipped++
			continue
		}
		if t.AutoPost {
			summary.Posted++
		} else {
			summary.Drafted++
		}
	}

	logger.Info("Recurring run complete",
		slog.Int("examined", summary.Examined),
		slog.Int("posted", summary.Posted),
		slog.Int("drafted", summary.Drafted),
		slog.Int("skipped", summary.Skipped))
	return summary, nil
}

func (s *recurringService) generateEntry(ctx context.Context, t domain.RecurringTemplate, runDate time.Time, userID string) error {
	lines := accounting.NewEntryBuilder().
		Debit(t.DebitAccountCode, t.Amount, t.Name).
		Credit(t.CreditAccountCode, t.Amount, t.Name).
		Lines()

	in := portssvc.PostEntryInput{
		Kind:        domain.Recurring,
		Date:        runDate,
		Description: fmt.Sprintf("%s (%s)", t.Name, runDate.Format("2006-01-02")),
		Reference:   t.TemplateID,
		Lines:       lines,
	}

	var err error
	if t.AutoPost {
		_, err = s.ledgerSvc.Post(ctx, in, userID)
	} else {
		_, err = s.ledgerSvc.SaveDraft(ctx, in, userID)
	}
	return err
}
