package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/merchantkit/fulfillment_ledger/internal/apperrors"
	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	portsrepo "github.com/merchantkit/fulfillment_ledger/internal/core/ports/repositories"
	portssvc "github.com/merchantkit/fulfillment_ledger/internal/core/ports/services"
	"github.com/merchantkit/fulfillment_ledger/internal/core/services"
	"github.com/merchantkit/fulfillment_ledger/internal/dto"
)

// --- Mock RecurringRepository ---
type MockRecurringRepository struct {
	mock.Mock
}

var _ portsrepo.RecurringRepositoryFacade = (*MockRecurringRepository)(nil)

func (m *MockRecurringRepository) FindTemplateByID(ctx context.Context, templateID string) (*domain.RecurringTemplate, error) {
	args := m.Called(ctx, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecurringTemplate), args.Error(1)
}

func (m *MockRecurringRepository) ListTemplates(ctx context.Context, activeOnly bool) ([]domain.RecurringTemplate, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RecurringTemplate), args.Error(1)
}

func (m *MockRecurringRepository) FindDueTemplates(ctx context.Context, now time.Time, limit int) ([]domain.RecurringTemplate, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RecurringTemplate), args.Error(1)
}

func (m *MockRecurringRepository) SaveTemplate(ctx context.Context, template domain.RecurringTemplate) error {
	args := m.Called(ctx, template)
	return args.Error(0)
}

func (m *MockRecurringRepository) AdvanceTemplate(ctx context.Context, templateID string, expectedNextRun, newNextRun, ranAt time.Time, updatedBy string) (bool, error) {
	args := m.Called(ctx, templateID, expectedNextRun, newNextRun, ranAt, updatedBy)
	return args.Bool(0), args.Error(1)
}

func (m *MockRecurringRepository) SetTemplateActive(ctx context.Context, templateID string, active bool, updatedBy string, now time.Time) error {
	args := m.Called(ctx, templateID, active, updatedBy, now)
	return args.Error(0)
}

// --- Test Suite Setup ---
type RecurringServiceTestSuite struct {
	suite.Suite
	mockRepo       *MockRecurringRepository
	mockAccountSvc *MockAccountService
	mockLedgerSvc  *MockLedgerService
	service        portssvc.RecurringSvcFacade
	userID         string
	accountsMap    map[string]domain.Account
	rentTemplate   domain.RecurringTemplate
}

func (suite *RecurringServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockRecurringRepository)
	suite.mockAccountSvc = new(MockAccountService)
	suite.mockLedgerSvc = new(MockLedgerService)
	suite.service = services.NewRecurringService(suite.mockRepo, suite.mockAccountSvc, suite.mockLedgerSvc)
	suite.userID = uuid.NewString()

	suite.accountsMap = map[string]domain.Account{
		"6200": {Code: "6200", NormalBalance: domain.DebitNormal, IsActive: true},
		"1100": {Code: "1100", NormalBalance: domain.DebitNormal, IsActive: true},
	}
	suite.rentTemplate = domain.RecurringTemplate{
		TemplateID:        uuid.NewString(),
		Name:              "Office rent",
		Frequency:         domain.Monthly,
		Amount:            decimal.RequireFromString("1200"),
		DebitAccountCode:  "6200",
		CreditAccountCode: "1100",
		NextRunDate:       time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		IsActive:          true,
		AutoPost:          true,
	}
}

// --- Test Cases ---

func (suite *RecurringServiceTestSuite) TestCreateTemplate_Success() {
	ctx := context.Background()
	req := dto.CreateRecurringTemplateRequest{
		Name:              "Office rent",
		Frequency:         "MONTHLY",
		Amount:            decimal.RequireFromString("1200"),
		DebitAccountCode:  "6200",
		CreditAccountCode: "1100",
		FirstRunDate:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		AutoPost:          true,
	}

	suite.mockAccountSvc.On("ResolveAccounts", ctx, []string{"6200", "1100"}).Return(suite.accountsMap, nil).Once()
	suite.mockRepo.On("SaveTemplate", ctx, mock.AnythingOfType("domain.RecurringTemplate")).Return(nil).Once()

	template, err := suite.service.CreateTemplate(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(template)
	suite.NotEmpty(template.TemplateID)
	suite.True(template.IsActive)
	suite.Equal(req.FirstRunDate, template.NextRunDate)
	suite.Equal(0, template.TotalRuns)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *RecurringServiceTestSuite) TestCreateTemplate_NonPositiveAmount() {
	ctx := context.Background()
	req := dto.CreateRecurringTemplateRequest{
		Name:              "Bad",
		Frequency:         "MONTHLY",
		Amount:            decimal.Zero,
		DebitAccountCode:  "6200",
		CreditAccountCode: "1100",
	}

	_, err := suite.service.CreateTemplate(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveTemplate", mock.Anything, mock.Anything)
}

func (suite *RecurringServiceTestSuite) TestCreateTemplate_SameDebitAndCreditAccount() {
	ctx := context.Background()
	req := dto.CreateRecurringTemplateRequest{
		Name:              "Bad",
		Frequency:         "MONTHLY",
		Amount:            decimal.RequireFromString("10"),
		DebitAccountCode:  "6200",
		CreditAccountCode: "6200",
	}

	_, err := suite.service.CreateTemplate(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *RecurringServiceTestSuite) TestCreateTemplate_UnknownAccount() {
	ctx := context.Background()
	req := dto.CreateRecurringTemplateRequest{
		Name:              "Bad",
		Frequency:         "MONTHLY",
		Amount:            decimal.RequireFromString("10"),
		DebitAccountCode:  "6200",
		CreditAccountCode: "9999",
	}

	suite.mockAccountSvc.On("ResolveAccounts", ctx, []string{"6200", "9999"}).Return(nil, apperrors.ErrUnknownAccount).Once()

	_, err := suite.service.CreateTemplate(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnknownAccount)
}

func (suite *RecurringServiceTestSuite) TestRunDue_PostsAutoPostTemplate() {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 6, 5, 0, 0, time.UTC)
	t := suite.rentTemplate
	expectedNext := t.NextAfter(t.NextRunDate)

	suite.mockRepo.On("FindDueTemplates", ctx, now, 100).Return([]domain.RecurringTemplate{t}, nil).Once()
	suite.mockRepo.On("AdvanceTemplate", ctx, t.TemplateID, t.NextRunDate, expectedNext, now, suite.userID).Return(true, nil).Once()

	var input portssvc.PostEntryInput
	suite.mockLedgerSvc.On("Post", ctx, mock.AnythingOfType("services.PostEntryInput"), suite.userID).
		Run(func(args mock.Arguments) { input = args.Get(1).(portssvc.PostEntryInput) }).
		Return(&domain.JournalEntry{EntryID: uuid.NewString(), Kind: domain.Recurring, Status: domain.Posted}, nil).Once()

	summary, err := suite.service.RunDue(ctx, now, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(1, summary.Examined)
	suite.Equal(1, summary.Posted)
	suite.Equal(0, summary.Drafted)
	suite.Equal(0, summary.Skipped)

	suite.Equal(domain.Recurring, input.Kind)
	suite.Equal(t.NextRunDate, input.Date)
	suite.Equal("Office rent (2026-08-01)", input.Description)
	suite.Equal(t.TemplateID, input.Reference)
	suite.Require().Len(input.Lines, 2)
	suite.True(input.Lines[0].Debit.Equal(t.Amount))
	suite.True(input.Lines[1].Credit.Equal(t.Amount))

	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockLedgerSvc.AssertExpectations(suite.T())
}

func (suite *RecurringServiceTestSuite) TestRunDue_DraftsWhenAutoPostOff() {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 6, 5, 0, 0, time.UTC)
	t := suite.rentTemplate
	t.AutoPost = false

	suite.mockRepo.On("FindDueTemplates", ctx, now, 100).Return([]domain.RecurringTemplate{t}, nil).Once()
	suite.mockRepo.On("AdvanceTemplate", ctx, t.TemplateID, t.NextRunDate, t.NextAfter(t.NextRunDate), now, suite.userID).Return(true, nil).Once()
	suite.mockLedgerSvc.On("SaveDraft", ctx, mock.AnythingOfType("services.PostEntryInput"), suite.userID).
		Return(&domain.JournalEntry{EntryID: uuid.NewString(), Status: domain.Draft}, nil).Once()

	summary, err := suite.service.RunDue(ctx, now, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(1, summary.Drafted)
	suite.Equal(0, summary.Posted)
	suite.mockLedgerSvc.AssertNotCalled(suite.T(), "Post", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RecurringServiceTestSuite) TestRunDue_SkipsWhenAnotherRunnerAdvanced() {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 6, 5, 0, 0, time.UTC)
	t := suite.rentTemplate

	suite.mockRepo.On("FindDueTemplates", ctx, now, 100).Return([]domain.RecurringTemplate{t}, nil).Once()
	suite.mockRepo.On("AdvanceTemplate", ctx, t.TemplateID, t.NextRunDate, t.NextAfter(t.NextRunDate), now, suite.userID).Return(false, nil).Once()

	summary, err := suite.service.RunDue(ctx, now, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(1, summary.Examined)
	suite.Equal(1, summary.Skipped)
	suite.Equal(0, summary.Posted)
	suite.mockLedgerSvc.AssertNotCalled(suite.T(), "Post", mock.Anything, mock.Anything, mock.Anything)
	suite.mockLedgerSvc.AssertNotCalled(suite.T(), "SaveDraft", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RecurringServiceTestSuite) TestRunDue_PostFailureCountsAsSkipped() {
	// The template advances before the entry is generated, so a posting
	// failure misses one period instead of double-posting on the next run.
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 6, 5, 0, 0, time.UTC)
	t := suite.rentTemplate

	suite.mockRepo.On("FindDueTemplates", ctx, now, 100).Return([]domain.RecurringTemplate{t}, nil).Once()
	suite.mockRepo.On("AdvanceTemplate", ctx, t.TemplateID, t.NextRunDate, t.NextAfter(t.NextRunDate), now, suite.userID).Return(true, nil).Once()
	suite.mockLedgerSvc.On("Post", ctx, mock.AnythingOfType("services.PostEntryInput"), suite.userID).
		Return(nil, assert.AnError).Once()

	summary, err := suite.service.RunDue(ctx, now, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(1, summary.Skipped)
	suite.Equal(0, summary.Posted)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *RecurringServiceTestSuite) TestRunDue_MixedBatch() {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 6, 5, 0, 0, time.UTC)
	auto := suite.rentTemplate
	drafted := suite.rentTemplate
	drafted.TemplateID = uuid.NewString()
	drafted.Name = "Insurance accrual"
	drafted.AutoPost = false

	suite.mockRepo.On("FindDueTemplates", ctx, now, 100).Return([]domain.RecurringTemplate{auto, drafted}, nil).Once()
	suite.mockRepo.On("AdvanceTemplate", ctx, auto.TemplateID, auto.NextRunDate, auto.NextAfter(auto.NextRunDate), now, suite.userID).Return(true, nil).Once()
	suite.mockRepo.On("AdvanceTemplate", ctx, drafted.TemplateID, drafted.NextRunDate, drafted.NextAfter(drafted.NextRunDate), now, suite.userID).Return(true, nil).Once()
	suite.mockLedgerSvc.On("Post", ctx, mock.AnythingOfType("services.PostEntryInput"), suite.userID).
		Return(&domain.JournalEntry{Status: domain.Posted}, nil).Once()
	suite.mockLedgerSvc.On("SaveDraft", ctx, mock.AnythingOfType("services.PostEntryInput"), suite.userID).
		Return(&domain.JournalEntry{Status: domain.Draft}, nil).Once()

	summary, err := suite.service.RunDue(ctx, now, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(2, summary.Examined)
	suite.Equal(1, summary.Posted)
	suite.Equal(1, summary.Drafted)
	suite.Equal(0, summary.Skipped)
}

func (suite *RecurringServiceTestSuite) TestDeactivate() {
	ctx := context.Background()
	templateID := uuid.NewString()

	suite.mockRepo.On("SetTemplateActive", ctx, templateID, false, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.Deactivate(ctx, templateID, suite.userID)

	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestRecurringServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RecurringServiceTestSuite))
}
