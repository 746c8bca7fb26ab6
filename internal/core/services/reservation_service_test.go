package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/merchantkit/fulfillment_ledger/internal/apperrors"
	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
	portsrepo "github.com/merchantkit/fulfillment_ledger/internal/core/ports/repositories"
	portssvc "github.com/merchantkit/fulfillment_ledger/internal/core/ports/services"
	"github.com/merchantkit/fulfillment_ledger/internal/core/services"
	"github.com/merchantkit/fulfillment_ledger/internal/dto"
)

// --- Mock ReservationRepository ---
type MockReservationRepository struct {
	mock.Mock
}

var _ portsrepo.ReservationRepositoryFacade = (*MockReservationRepository)(nil)

func (m *MockReservationRepository) FindReservationByID(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) FindReservationsByCart(ctx context.Context, cartRef string) ([]domain.Reservation, error) {
	args := m.Called(ctx, cartRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) FindConsumedByOrderRef(ctx context.Context, orderRef string) ([]domain.Reservation, error) {
	args := m.Called(ctx, orderRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) SellableQuantity(ctx context.Context, stockItemID string, now time.Time) (int64, error) {
	args := m.Called(ctx, stockItemID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReservationRepository) CreateReservation(ctx context.Context, reservation domain.Reservation, now time.Time) error {
	args := m.Called(ctx, reservation, now)
	return args.Error(0)
}

func (m *MockReservationRepository) TransitionReservation(ctx context.Context, reservationID string, to domain.ReservationStatus, updatedBy string, now time.Time) (int64, error) {
	args := m.Called(ctx, reservationID, to, updatedBy, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReservationRepository) ConsumeReservation(ctx context.Context, reservationID, orderRef string, now time.Time, fn portsrepo.StockMutator) (*domain.Reservation, *domain.InventoryTransaction, error) {
	args := m.Called(ctx, reservationID, orderRef, now, fn)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Reservation), args.Get(1).(*domain.InventoryTransaction), args.Error(2)
}

func (m *MockReservationRepository) SweepExpired(ctx context.Context, now time.Time, limit int) (int64, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock InventoryService (as used by the reservation manager) ---
type MockInventoryService struct {
	mock.Mock
}

var _ portssvc.InventorySvcFacade = (*MockInventoryService)(nil)

func (m *MockInventoryService) CreateStockItem(ctx context.Context, req dto.CreateStockItemRequest, creatorUserID string) (*domain.StockItem, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StockItem), args.Error(1)
}

func (m *MockInventoryService) RecordPurchase(ctx context.Context, stockItemID string, quantity int64, unitCost decimal.Decimal, userID string) (*domain.InventoryTransaction, error) {
	args := m.Called(ctx, stockItemID, quantity, unitCost, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InventoryTransaction), args.Error(1)
}

func (m *MockInventoryService) RecordSale(ctx context.Context, stockItemID string, quantity int64, orderRef, userID string) (*domain.InventoryTransaction, error) {
	args := m.Called(ctx, stockItemID, quantity, orderRef, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InventoryTransaction), args.Error(1)
}

func (m *MockInventoryService) RecordReturn(ctx context.Context, originalSaleTransactionID string, quantity int64, userID string) (*domain.InventoryTransaction, error) {
	args := m.Called(ctx, originalSaleTransactionID, quantity, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InventoryTransaction), args.Error(1)
}

func (m *MockInventoryService) RecordAdjustment(ctx context.Context, stockItemID string, quantityDelta int64, reason, userID string) (*domain.InventoryTransaction, error) {
	args := m.Called(ctx, stockItemID, quantityDelta, reason, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InventoryTransaction), args.Error(1)
}

func (m *MockInventoryService) SaleMutator(quantity int64, orderRef, userID string) portsrepo.StockMutator {
	args := m.Called(quantity, orderRef, userID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(portsrepo.StockMutator)
}

func (m *MockInventoryService) GetStockItem(ctx context.Context, stockItemID string) (*domain.StockItem, error) {
	args := m.Called(ctx, stockItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StockItem), args.Error(1)
}

func (m *MockInventoryService) GetStockItemByProduct(ctx context.Context, productRef, format string) (*domain.StockItem, error) {
	args := m.Called(ctx, productRef, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StockItem), args.Error(1)
}

func (m *MockInventoryService) ListStockItems(ctx context.Context, limit int, nextToken *string) ([]domain.StockItem, *string, error) {
	args := m.Called(ctx, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]domain.StockItem), nil, args.Error(2)
}

func (m *MockInventoryService) ListTransactions(ctx context.Context, stockItemID string, limit int, nextToken *string) ([]domain.InventoryTransaction, *string, error) {
	args := m.Called(ctx, stockItemID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]domain.InventoryTransaction), nil, args.Error(2)
}

func (m *MockInventoryService) SaleTransactionsForOrder(ctx context.Context, orderRef string) ([]domain.InventoryTransaction, error) {
	args := m.Called(ctx, orderRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InventoryTransaction), args.Error(1)
}

// --- Test Suite Setup ---
type ReservationServiceTestSuite struct {
	suite.Suite
	mockRepo         *MockReservationRepository
	mockInventorySvc *MockInventoryService
	service          portssvc.ReservationSvcFacade
	userID           string
	stockItemID      string
	noopMutator      portsrepo.StockMutator
}

const reservationTestTTL = 15 * time.Minute

func (suite *ReservationServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockReservationRepository)
	suite.mockInventorySvc = new(MockInventoryService)
	suite.service = services.NewReservationService(suite.mockRepo, suite.mockInventorySvc, reservationTestTTL)
	suite.userID = uuid.NewString()
	suite.stockItemID = uuid.NewString()
	suite.noopMutator = func(item domain.StockItem) (domain.StockItem, domain.InventoryTransaction, error) {
		return item, domain.InventoryTransaction{}, nil
	}
}

func (suite *ReservationServiceTestSuite) liveReservation(cartRef string) domain.Reservation {
	now := time.Now().UTC()
	return domain.Reservation{
		ReservationID: uuid.NewString(),
		StockItemID:   suite.stockItemID,
		Quantity:      2,
		CartRef:       cartRef,
		Status:        domain.Reserved,
		ExpiresAt:     now.Add(reservationTestTTL),
		AuditFields:   domain.AuditFields{CreatedAt: now, CreatedBy: suite.userID},
	}
}

// --- Test Cases ---

func (suite *ReservationServiceTestSuite) TestReserve_Success() {
	ctx := context.Background()
	req := dto.ReserveRequest{StockItemID: suite.stockItemID, Quantity: 2, CartRef: "cart-33"}
	before := time.Now().UTC()

	suite.mockRepo.On("CreateReservation", ctx, mock.AnythingOfType("domain.Reservation"), mock.AnythingOfType("time.Time")).Return(nil).Once()

	reservation, err := suite.service.Reserve(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(reservation)
	suite.NotEmpty(reservation.ReservationID)
	suite.Equal(domain.Reserved, reservation.Status)
	suite.Equal(int64(2), reservation.Quantity)
	suite.False(reservation.ExpiresAt.Before(before.Add(reservationTestTTL)))
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ReservationServiceTestSuite) TestReserve_TTLOverride() {
	ctx := context.Background()
	ttl := int64(60)
	req := dto.ReserveRequest{StockItemID: suite.stockItemID, Quantity: 1, CartRef: "cart-34", TTLSeconds: &ttl}

	suite.mockRepo.On("CreateReservation", ctx, mock.AnythingOfType("domain.Reservation"), mock.AnythingOfType("time.Time")).Return(nil).Once()

	reservation, err := suite.service.Reserve(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.WithinDuration(time.Now().UTC().Add(time.Minute), reservation.ExpiresAt, 5*time.Second)
}

func (suite *ReservationServiceTestSuite) TestReserve_NonPositiveQuantity() {
	ctx := context.Background()
	req := dto.ReserveRequest{StockItemID: suite.stockItemID, Quantity: 0, CartRef: "cart-35"}

	_, err := suite.service.Reserve(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidQuantity)
	suite.mockRepo.AssertNotCalled(suite.T(), "CreateReservation", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReservationServiceTestSuite) TestReserve_InsufficientAvailability() {
	ctx := context.Background()
	req := dto.ReserveRequest{StockItemID: suite.stockItemID, Quantity: 99, CartRef: "cart-36"}

	suite.mockRepo.On("CreateReservation", ctx, mock.AnythingOfType("domain.Reservation"), mock.AnythingOfType("time.Time")).
		Return(apperrors.ErrInsufficientAvailability).Once()

	_, err := suite.service.Reserve(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInsufficientAvailability)
}

func (suite *ReservationServiceTestSuite) TestConsume_Success() {
	ctx := context.Background()
	reservation := suite.liveReservation("cart-40")
	consumedAt := time.Now().UTC()
	consumed := reservation
	consumed.Status = domain.Consumed
	consumed.OrderRef = "order-900"
	consumed.ConsumedAt = &consumedAt
	saleTxn := &domain.InventoryTransaction{
		TransactionID: uuid.NewString(),
		StockItemID:   suite.stockItemID,
		Kind:          domain.Sale,
		Quantity:      -reservation.Quantity,
		OrderRef:      "order-900",
	}

	suite.mockRepo.On("FindReservationByID", ctx, reservation.ReservationID).Return(&reservation, nil).Once()
	suite.mockInventorySvc.On("SaleMutator", reservation.Quantity, "order-900", suite.userID).Return(suite.noopMutator).Once()
	suite.mockRepo.On("ConsumeReservation", ctx, reservation.ReservationID, "order-900", mock.AnythingOfType("time.Time"), mock.AnythingOfType("repositories.StockMutator")).
		Return(&consumed, saleTxn, nil).Once()

	gotReservation, gotTxn, err := suite.service.Consume(ctx, reservation.ReservationID, "order-900", suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.Consumed, gotReservation.Status)
	suite.Equal("order-900", gotReservation.OrderRef)
	suite.Equal(int64(-2), gotTxn.Quantity)
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockInventorySvc.AssertExpectations(suite.T())
}

func (suite *ReservationServiceTestSuite) TestConsume_Expired() {
	ctx := context.Background()
	reservation := suite.liveReservation("cart-41")

	suite.mockRepo.On("FindReservationByID", ctx, reservation.ReservationID).Return(&reservation, nil).Once()
	suite.mockInventorySvc.On("SaleMutator", reservation.Quantity, "order-901", suite.userID).Return(suite.noopMutator).Once()
	suite.mockRepo.On("ConsumeReservation", ctx, reservation.ReservationID, "order-901", mock.AnythingOfType("time.Time"), mock.AnythingOfType("repositories.StockMutator")).
		Return(nil, nil, apperrors.ErrReservationExpired).Once()

	_, _, err := suite.service.Consume(ctx, reservation.ReservationID, "order-901", suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrReservationExpired)
}

func (suite *ReservationServiceTestSuite) TestConsumeCart_SkipsTerminalHolds() {
	ctx := context.Background()
	live := suite.liveReservation("cart-42")
	released := suite.liveReservation("cart-42")
	released.Status = domain.Released

	consumedAt := time.Now().UTC()
	consumed := live
	consumed.Status = domain.Consumed
	consumed.OrderRef = "order-902"
	consumed.ConsumedAt = &consumedAt
	saleTxn := &domain.InventoryTransaction{TransactionID: uuid.NewString(), Kind: domain.Sale, Quantity: -2, OrderRef: "order-902"}

	suite.mockRepo.On("FindReservationsByCart", ctx, "cart-42").Return([]domain.Reservation{released, live}, nil).Once()
	suite.mockRepo.On("FindReservationByID", ctx, live.ReservationID).Return(&live, nil).Once()
	suite.mockInventorySvc.On("SaleMutator", live.Quantity, "order-902", suite.userID).Return(suite.noopMutator).Once()
	suite.mockRepo.On("ConsumeReservation", ctx, live.ReservationID, "order-902", mock.AnythingOfType("time.Time"), mock.AnythingOfType("repositories.StockMutator")).
		Return(&consumed, saleTxn, nil).Once()

	reservations, txns, err := suite.service.ConsumeCart(ctx, "cart-42", "order-902", suite.userID)

	suite.Require().NoError(err)
	suite.Len(reservations, 1)
	suite.Len(txns, 1)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ReservationServiceTestSuite) TestConsumeCart_NoLiveHolds() {
	ctx := context.Background()
	released := suite.liveReservation("cart-43")
	released.Status = domain.Released

	suite.mockRepo.On("FindReservationsByCart", ctx, "cart-43").Return([]domain.Reservation{released}, nil).Once()

	_, _, err := suite.service.ConsumeCart(ctx, "cart-43", "order-903", suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *ReservationServiceTestSuite) TestRelease_Success() {
	ctx := context.Background()
	reservationID := uuid.NewString()

	suite.mockRepo.On("TransitionReservation", ctx, reservationID, domain.Released, suite.userID, mock.AnythingOfType("time.Time")).
		Return(int64(1), nil).Once()

	err := suite.service.Release(ctx, reservationID, suite.userID)

	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ReservationServiceTestSuite) TestRelease_AlreadyTerminalIsNoop() {
	ctx := context.Background()
	reservationID := uuid.NewString()

	suite.mockRepo.On("TransitionReservation", ctx, reservationID, domain.Released, suite.userID, mock.AnythingOfType("time.Time")).
		Return(int64(0), nil).Once()

	err := suite.service.Release(ctx, reservationID, suite.userID)

	suite.Require().NoError(err)
}

func (suite *ReservationServiceTestSuite) TestExpire_Success() {
	ctx := context.Background()
	reservationID := uuid.NewString()

	suite.mockRepo.On("TransitionReservation", ctx, reservationID, domain.Expired, suite.userID, mock.AnythingOfType("time.Time")).
		Return(int64(1), nil).Once()

	err := suite.service.Expire(ctx, reservationID, suite.userID)

	suite.Require().NoError(err)
}

func (suite *ReservationServiceTestSuite) TestSweepExpired() {
	ctx := context.Background()

	suite.mockRepo.On("SweepExpired", ctx, mock.AnythingOfType("time.Time"), 500).Return(int64(3), nil).Once()

	swept, err := suite.service.SweepExpired(ctx, 500)

	suite.Require().NoError(err)
	suite.Equal(int64(3), swept)
}

func (suite *ReservationServiceTestSuite) TestSellableQuantity() {
	ctx := context.Background()
	now := time.Now().UTC()

	suite.mockRepo.On("SellableQuantity", ctx, suite.stockItemID, now).Return(int64(48), nil).Once()

	got, err := suite.service.SellableQuantity(ctx, suite.stockItemID, now)

	suite.Require().NoError(err)
	suite.Equal(int64(48), got)
}

func TestReservationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReservationServiceTestSuite))
}
