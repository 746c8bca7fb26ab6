package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/merchantkit/fulfillment_ledger/internal/apperrors"
	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	portssvc "github.com/merchantkit/fulfillment_ledger/internal/core/ports/services"
	"github.com/merchantkit/fulfillment_ledger/internal/middleware"
)

// --- Mock PostingService ---
type MockPostingService struct {
	mock.Mock
}

var _ portssvc.PostingSvcFacade = (*MockPostingService)(nil)

func (m *MockPostingService) HandlePaymentCaptured(ctx context.Context, event domain.PaymentCaptured, userID string) (*portssvc.CaptureResult, error) {
	args := m.Called(ctx, event, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.CaptureResult), args.Error(1)
}

func (m *MockPostingService) HandlePaymentRefunded(ctx context.Context, event domain.PaymentRefunded, userID string) (*portssvc.RefundResult, error) {
	args := m.Called(ctx, event, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.RefundResult), args.Error(1)
}

// --- Test Suite Setup ---
type WebhookHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockService *MockPostingService
}

func (suite *WebhookHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.mockService = new(MockPostingService)

	passthrough := func(c *gin.Context) { c.Next() }
	v1 := suite.router.Group("/api/v1")
	registerWebhookRoutes(v1, suite.mockService, passthrough)
}

func (suite *WebhookHandlerTestSuite) serve(body any, headers map[string]string) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	suite.Require().NoError(err)
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func captureBody() map[string]any {
	return map[string]any{
		"eventType":      "payment.captured",
		"orderRef":       "ord_2001",
		"amountCaptured": "75.60",
		"subtotal":       "70.00",
		"feeAmount":      "2.49",
		"taxComponents": []map[string]any{
			{"accountCode": "2100", "amount": "5.60"},
		},
	}
}

// --- Test Cases ---

func (suite *WebhookHandlerTestSuite) TestPaymentCaptured_Success() {
	result := &portssvc.CaptureResult{
		SaleEntry: &domain.JournalEntry{
			EntryNumber: "JV-2026-0042",
			Kind:        domain.AutoSale,
			Status:      domain.Posted,
			OrderRef:    "ord_2001",
		},
		FeeEntry: &domain.JournalEntry{
			EntryNumber: "JV-2026-0043",
			Kind:        domain.AutoStripeFee,
			Status:      domain.Posted,
		},
		COGSEntry: &domain.JournalEntry{
			EntryNumber: "JV-2026-0044",
			Kind:        domain.AutoSale,
			Status:      domain.Posted,
		},
	}

	var captured domain.PaymentCaptured
	suite.mockService.On("HandlePaymentCaptured", mock.Anything, mock.AnythingOfType("domain.PaymentCaptured"), "ops-user").
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(domain.PaymentCaptured)
		}).
		Return(result, nil).Once()

	w := suite.serve(captureBody(), map[string]string{"X-Actor-ID": "ops-user"})

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("ord_2001", captured.OrderRef)
	suite.True(captured.AmountCaptured.Equal(decimal.RequireFromString("75.60")))
	suite.True(captured.FeeAmount.Equal(decimal.RequireFromString("2.49")))
	suite.Require().Len(captured.TaxComponents, 1)
	suite.Equal("2100", captured.TaxComponents[0].AccountCode)

	var resp map[string]json.RawMessage
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Contains(resp, "saleEntry")
	suite.Contains(resp, "feeEntry")
	suite.Contains(resp, "cogsEntry")
	suite.JSONEq(`false`, string(resp["cogsDeferred"]))
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *WebhookHandlerTestSuite) TestPaymentCaptured_DeferredCOGSOmitsEntry() {
	result := &portssvc.CaptureResult{
		SaleEntry: &domain.JournalEntry{
			EntryNumber: "JV-2026-0042",
			Kind:        domain.AutoSale,
			Status:      domain.Posted,
		},
		COGSDeferred: true,
	}
	suite.mockService.On("HandlePaymentCaptured", mock.Anything, mock.Anything, middleware.DefaultActor).
		Return(result, nil).Once()

	w := suite.serve(captureBody(), nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp map[string]json.RawMessage
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.JSONEq(`true`, string(resp["cogsDeferred"]))
	suite.NotContains(resp, "cogsEntry")
	suite.NotContains(resp, "feeEntry")
}

func (suite *WebhookHandlerTestSuite) TestPaymentCaptured_ValidationErrorMapsTo400() {
	suite.mockService.On("HandlePaymentCaptured", mock.Anything, mock.Anything, middleware.DefaultActor).
		Return(nil, apperrors.ErrValidation).Once()

	w := suite.serve(captureBody(), nil)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *WebhookHandlerTestSuite) TestPaymentRefunded_Success() {
	result := &portssvc.RefundResult{
		RefundEntry: &domain.JournalEntry{
			EntryNumber: "JV-2026-0050",
			Kind:        domain.AutoRefund,
			Status:      domain.Posted,
		},
		Returns: []domain.InventoryTransaction{
			{TransactionID: "itx_9", Kind: domain.Return, Quantity: 2, UnitCost: decimal.RequireFromString("12.50"), CreatedAt: time.Now()},
		},
	}

	var refunded domain.PaymentRefunded
	suite.mockService.On("HandlePaymentRefunded", mock.Anything, mock.AnythingOfType("domain.PaymentRefunded"), middleware.DefaultActor).
		Run(func(args mock.Arguments) {
			refunded = args.Get(1).(domain.PaymentRefunded)
		}).
		Return(result, nil).Once()

	body := map[string]any{
		"eventType":    "payment.refunded",
		"orderRef":     "ord_2001",
		"refundAmount": "75.60",
		"taxComponents": []map[string]any{
			{"accountCode": "2100", "amount": "5.60"},
		},
	}
	w := suite.serve(body, nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("ord_2001", refunded.OrderRef)
	suite.True(refunded.RefundAmount.Equal(decimal.RequireFromString("75.60")))

	var resp struct {
		RefundEntry json.RawMessage   `json:"refundEntry"`
		Returns     []json.RawMessage `json:"returns"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.NotEmpty(resp.RefundEntry)
	suite.Len(resp.Returns, 1)
	suite.mockService.AssertExpectations(suite.T())
}

func (suite *WebhookHandlerTestSuite) TestUnsupportedEventType() {
	body := captureBody()
	body["eventType"] = "payment.disputed"

	w := suite.serve(body, nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockService.AssertNotCalled(suite.T(), "HandlePaymentCaptured", mock.Anything, mock.Anything, mock.Anything)
	suite.mockService.AssertNotCalled(suite.T(), "HandlePaymentRefunded", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(WebhookHandlerTestSuite))
}
