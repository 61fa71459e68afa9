package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/babulakterfsd/gizmobuy-backend/internal/domain"
	"github.com/babulakterfsd/gizmobuy-backend/internal/event"
	"github.com/babulakterfsd/gizmobuy-backend/internal/gateway"
	"github.com/babulakterfsd/gizmobuy-backend/internal/repository"
	apperrors "github.com/babulakterfsd/gizmobuy-backend/pkg/errors"
	pkgkafka "github.com/babulakterfsd/gizmobuy-backend/pkg/kafka"
)

// --- Mock Repository ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) MarkPaid(ctx context.Context, orderID, paymentToken string) (repository.MarkPaidResult, error) {
	args := m.Called(ctx, orderID, paymentToken)
	return args.Get(0).(repository.MarkPaidResult), args.Error(1)
}

func (m *mockOrderRepository) DeleteByToken(ctx context.Context, orderID, paymentToken string) (int64, error) {
	args := m.Called(ctx, orderID, paymentToken)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOrderRepository) DeleteUnpaidByCustomer(ctx context.Context, email string) (int64, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) PaidTotals(ctx context.Context, filter repository.OrderFilter) (int64, float64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Get(1).(float64), args.Error(2)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id string, fromStatus, toStatus string) error {
	args := m.Called(ctx, id, fromStatus, toStatus)
	return args.Error(0)
}

// --- Mock Readers ---

type mockProductReader struct {
	mock.Mock
}

func (m *mockProductReader) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockProductReader) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockUserReader struct {
	mock.Mock
}

func (m *mockUserReader) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserReader) CountByRole(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

// --- Mock Gateway ---

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Name() string { return "sslcommerz" }

func (m *mockGateway) InitiateSession(ctx context.Context, input *gateway.InitiateInput) (*gateway.Session, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Session), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testDeps struct {
	repo     *mockOrderRepository
	products *mockProductReader
	users    *mockUserReader
	gateway  *mockGateway
}

func newTestService(t *testing.T) (*OrderService, *testDeps) {
	t.Helper()
	logger := newTestLogger()
	// A Kafka producer pointed at nothing fails silently in tests.
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	producer := event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)

	deps := &testDeps{
		repo:     new(mockOrderRepository),
		products: new(mockProductReader),
		users:    new(mockUserReader),
		gateway:  new(mockGateway),
	}

	svc := NewOrderService(deps.repo, deps.products, deps.users, deps.gateway, producer, logger, Config{
		CallbackBaseURL:    "https://api.gizmobuy.com",
		SuccessRedirectURL: "https://gizmobuy.com/order-successful",
		FailRedirectURL:    "https://gizmobuy.com/order-failed",
		CancelRedirectURL:  "https://gizmobuy.com/order-cancelled",
		Currency:           "USD",
	})
	return svc, deps
}

func customerIdentity() domain.Identity {
	return domain.Identity{
		ID:    "u-001",
		Name:  "Jane Buyer",
		Email: "buyer@example.com",
		Role:  domain.RoleCustomer,
	}
}

func sampleInitiateInput() InitiatePaymentInput {
	return InitiatePaymentInput{
		OrderID:      "ord-2024-001",
		CustomerName: "Jane Buyer",
		Products: []LineItemInput{
			{ProductRef: "prod-1", Title: "Widget", UnitPrice: 49.99, Quantity: 1},
			{ProductRef: "prod-2", Title: "Gadget", UnitPrice: 55.00, Quantity: 2},
		},
		ShippingInfo: domain.ShippingInfo{
			Address: "123 Main St", City: "Dhaka", State: "Dhaka",
			Country: "Bangladesh", PostalCode: "1207", Mobile: "+8801712345678",
		},
		BillForThisOrder: 159.99,
		DiscountGiven:    10.00,
		AppliedCoupon:    "WELCOME10",
		TotalBill:        149.99,
	}
}

// --- InitiatePayment Tests ---

func TestInitiatePayment_Success(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.products.On("Exists", ctx, "prod-1").Return(true, nil)
	deps.products.On("Exists", ctx, "prod-2").Return(true, nil)

	var created *domain.Order
	deps.repo.On("Create", ctx, mock.AnythingOfType("*domain.Order")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Order) }).
		Return(nil)

	deps.gateway.On("InitiateSession", ctx, mock.AnythingOfType("*gateway.InitiateInput")).
		Return(&gateway.Session{RedirectURL: "https://sandbox.sslcommerz.com/gw/pay/abc"}, nil)

	redirectURL, err := svc.InitiatePayment(ctx, customerIdentity(), sampleInitiateInput())

	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.sslcommerz.com/gw/pay/abc", redirectURL)

	require.NotNil(t, created)
	assert.Equal(t, "ord-2024-001", created.OrderID)
	assert.Equal(t, "buyer@example.com", created.OrderBy)
	assert.NotEmpty(t, created.PaymentToken)
	assert.False(t, created.IsPaid)
	assert.Equal(t, domain.OrderStatusProcessing, created.OrderStatus)
	assert.InDelta(t, 149.99, created.TotalBill, 1e-9)
	require.Len(t, created.Products, 2)
	assert.InDelta(t, 110.00, created.Products[1].LineTotal, 1e-9)

	deps.repo.AssertExpectations(t)
	deps.gateway.AssertExpectations(t)
}

func TestInitiatePayment_CallbackURLsCarryTokens(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.products.On("Exists", ctx, mock.Anything).Return(true, nil)
	deps.repo.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)

	var gwInput *gateway.InitiateInput
	deps.gateway.On("InitiateSession", ctx, mock.AnythingOfType("*gateway.InitiateInput")).
		Run(func(args mock.Arguments) { gwInput = args.Get(1).(*gateway.InitiateInput) }).
		Return(&gateway.Session{RedirectURL: "https://pay"}, nil)

	_, err := svc.InitiatePayment(ctx, customerIdentity(), sampleInitiateInput())
	require.NoError(t, err)

	require.NotNil(t, gwInput)
	assert.Contains(t, gwInput.SuccessURL, "https://api.gizmobuy.com/api/orders/success?orderId=ord-2024-001&token=")
	assert.Contains(t, gwInput.FailURL, "/api/orders/fail?orderId=")
	assert.Contains(t, gwInput.CancelURL, "/api/orders/cancel?orderId=")
	assert.Equal(t, "USD", gwInput.Currency)
	assert.InDelta(t, 149.99, gwInput.Amount, 1e-9)
	assert.NotEmpty(t, gwInput.TranID)
}

func TestInitiatePayment_EmptyProducts(t *testing.T) {
	svc, deps := newTestService(t)

	input := sampleInitiateInput()
	input.Products = nil

	_, err := svc.InitiatePayment(context.Background(), customerIdentity(), input)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	deps.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInitiatePayment_TotalBillMismatch(t *testing.T) {
	svc, deps := newTestService(t)

	input := sampleInitiateInput()
	input.TotalBill = 140.00 // should be 149.99

	_, err := svc.InitiatePayment(context.Background(), customerIdentity(), input)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	deps.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInitiatePayment_UnknownProduct_NoPersistence(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.products.On("Exists", ctx, "prod-1").Return(true, nil)
	deps.products.On("Exists", ctx, "prod-2").Return(false, nil)

	_, err := svc.InitiatePayment(ctx, customerIdentity(), sampleInitiateInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "prod-2")

	deps.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	deps.gateway.AssertNotCalled(t, "InitiateSession", mock.Anything, mock.Anything)
}

func TestInitiatePayment_PersistFailure(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.products.On("Exists", ctx, mock.Anything).Return(true, nil)
	deps.repo.On("Create", ctx, mock.AnythingOfType("*domain.Order")).
		Return(errors.New("deadlock detected"))

	_, err := svc.InitiatePayment(ctx, customerIdentity(), sampleInitiateInput())
	assert.ErrorIs(t, err, apperrors.ErrPersistence)

	deps.gateway.AssertNotCalled(t, "InitiateSession", mock.Anything, mock.Anything)
}

func TestInitiatePayment_GatewayFailure(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.products.On("Exists", ctx, mock.Anything).Return(true, nil)
	deps.repo.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)
	deps.gateway.On("InitiateSession", ctx, mock.AnythingOfType("*gateway.InitiateInput")).
		Return(nil, errors.New("connection timed out"))

	_, err := svc.InitiatePayment(ctx, customerIdentity(), sampleInitiateInput())
	assert.ErrorIs(t, err, apperrors.ErrGateway)
}

// --- transactionID Tests ---

func TestTransactionID_Format(t *testing.T) {
	now := time.UnixMilli(1712345678901).UTC()
	id := transactionID("buyer@example.com", now)

	// 3-digit prefix + first 10 chars of email + ms digits 7..11.
	require.Len(t, id, 3+10+4)
	assert.Equal(t, "buyer@exam", id[3:13])
	assert.Equal(t, "6789", id[13:])
}

func TestTransactionID_ShortEmail(t *testing.T) {
	now := time.UnixMilli(1712345678901).UTC()
	id := transactionID("a@b.c", now)
	assert.Equal(t, "a@b.c", id[3:8])
}

// --- Callback Tests ---

func TestHandlePaymentSuccess_Applied(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.repo.On("MarkPaid", ctx, "ord-1", "tok-1").
		Return(repository.MarkPaidResult{
			Outcome:   repository.MarkPaidApplied,
			OrderBy:   "buyer@example.com",
			TotalBill: 149.99,
		}, nil)

	url := svc.HandlePaymentSuccess(ctx, "ord-1", "tok-1")
	assert.Equal(t, "https://gizmobuy.com/order-successful", url)

	deps.repo.AssertExpectations(t)
}

func TestHandlePaymentSuccess_Duplicate(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.repo.On("MarkPaid", ctx, "ord-1", "tok-1").
		Return(repository.MarkPaidResult{Outcome: repository.MarkPaidAlreadyPaid}, nil)

	url := svc.HandlePaymentSuccess(ctx, "ord-1", "tok-1")
	assert.Equal(t, "https://gizmobuy.com/order-successful", url)
}

func TestHandlePaymentSuccess_OrphanStillRedirects(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.repo.On("MarkPaid", ctx, "ord-ghost", "tok-wrong").
		Return(repository.MarkPaidResult{Outcome: repository.MarkPaidNotFound}, nil)

	url := svc.HandlePaymentSuccess(ctx, "ord-ghost", "tok-wrong")
	assert.Equal(t, "https://gizmobuy.com/order-successful", url)
}

func TestHandlePaymentSuccess_RepoErrorStillRedirects(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.repo.On("MarkPaid", ctx, "ord-1", "tok-1").
		Return(repository.MarkPaidResult{}, errors.New("connection lost"))

	url := svc.HandlePaymentSuccess(ctx, "ord-1", "tok-1")
	assert.Equal(t, "https://gizmobuy.com/order-successful", url)
}

func TestHandlePaymentFail_DeletesOrder(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.repo.On("DeleteByToken", ctx, "ord-1", "tok-1").Return(int64(1), nil)

	url := svc.HandlePaymentFail(ctx, "ord-1", "tok-1")
	assert.Equal(t, "https://gizmobuy.com/order-failed", url)

	deps.repo.AssertExpectations(t)
}

func TestHandlePaymentFail_OrphanStillRedirects(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.repo.On("DeleteByToken", ctx, "ord-ghost", "tok-wrong").Return(int64(0), nil)

	url := svc.HandlePaymentFail(ctx, "ord-ghost", "tok-wrong")
	assert.Equal(t, "https://gizmobuy.com/order-failed", url)
}

func TestHandlePaymentCancel_DeletesOrder(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.repo.On("DeleteByToken", ctx, "ord-1", "tok-1").Return(int64(1), nil)

	url := svc.HandlePaymentCancel(ctx, "ord-1", "tok-1")
	assert.Equal(t, "https://gizmobuy.com/order-cancelled", url)
}

// --- SellsHistory Tests ---

func TestSellsHistory_AllTime(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	orders := []domain.Order{{OrderID: "ord-1", IsPaid: true, TotalBill: 100}}

	deps.repo.On("List", ctx, mock.MatchedBy(func(f repository.OrderFilter) bool {
		return f.CreatedAfter.IsZero() && f.OrderBy == nil && f.Page == 1 && f.PerPage == 20
	})).Return(orders, 1, nil)

	deps.repo.On("PaidTotals", ctx, mock.AnythingOfType("repository.OrderFilter")).
		Return(int64(1), 100.0, nil)

	result, err := svc.SellsHistory(ctx, SellsHistoryInput{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, int64(1), result.Summary.PaidOrders)
	assert.InDelta(t, 100.0, result.Summary.TotalSells, 1e-9)
	assert.InDelta(t, 5.0, result.Summary.GizmobuyProfit, 1e-9)
}

func TestSellsHistory_WeeklyWindow(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	matchWindow := mock.MatchedBy(func(f repository.OrderFilter) bool {
		if f.CreatedAfter.IsZero() {
			return false
		}
		// Roughly seven days back from now.
		age := time.Since(f.CreatedAfter)
		return age > 6*24*time.Hour && age < 8*24*time.Hour
	})

	deps.repo.On("List", ctx, matchWindow).Return([]domain.Order{}, 0, nil)
	deps.repo.On("PaidTotals", ctx, matchWindow).Return(int64(0), 0.0, nil)

	result, err := svc.SellsHistory(ctx, SellsHistoryInput{Timeframe: domain.TimeframeWeekly})
	require.NoError(t, err)
	assert.Zero(t, result.Summary.PaidOrders)
}

func TestSellsHistory_CustomerFilter(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	matchEmail := mock.MatchedBy(func(f repository.OrderFilter) bool {
		return f.OrderBy != nil && *f.OrderBy == "buyer@example.com"
	})

	deps.repo.On("List", ctx, matchEmail).Return([]domain.Order{}, 0, nil)
	deps.repo.On("PaidTotals", ctx, matchEmail).Return(int64(0), 0.0, nil)

	_, err := svc.SellsHistory(ctx, SellsHistoryInput{CustomersEmail: "buyer@example.com"})
	require.NoError(t, err)

	deps.repo.AssertExpectations(t)
}

func TestSellsHistory_ListError(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.repo.On("List", ctx, mock.AnythingOfType("repository.OrderFilter")).
		Return([]domain.Order{}, 0, errors.New("timeout"))

	_, err := svc.SellsHistory(ctx, SellsHistoryInput{})
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
}

// --- MyOrders Tests ---

func TestMyOrders_GarbageCollectsFirst(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.repo.On("DeleteUnpaidByCustomer", ctx, "buyer@example.com").Return(int64(2), nil)

	deps.repo.On("List", ctx, mock.MatchedBy(func(f repository.OrderFilter) bool {
		return f.OrderBy != nil && *f.OrderBy == "buyer@example.com"
	})).Return([]domain.Order{{OrderID: "ord-1", IsPaid: true}}, 1, nil)

	orders, total, err := svc.MyOrders(ctx, customerIdentity(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, orders, 1)

	deps.repo.AssertExpectations(t)
}

func TestMyOrders_GCError(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.repo.On("DeleteUnpaidByCustomer", ctx, "buyer@example.com").
		Return(int64(0), errors.New("lock timeout"))

	_, _, err := svc.MyOrders(ctx, customerIdentity(), 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)

	deps.repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

// --- UpdateOrderStatus Tests ---

func adminIdentity() domain.Identity {
	return domain.Identity{
		ID:    "u-admin",
		Name:  "Site Admin",
		Email: "admin@gizmobuy.com",
		Role:  domain.RoleAdmin,
	}
}

func adminUser() *domain.User {
	return &domain.User{
		ID:    "u-admin",
		Name:  "Site Admin",
		Email: "admin@gizmobuy.com",
		Role:  domain.RoleAdmin,
	}
}

func TestUpdateOrderStatus_Success(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.users.On("GetByEmail", ctx, "admin@gizmobuy.com").Return(adminUser(), nil)
	deps.repo.On("GetByID", ctx, "pk-1").
		Return(&domain.Order{ID: "pk-1", OrderID: "ord-1", OrderStatus: domain.OrderStatusProcessing}, nil)
	deps.repo.On("UpdateStatus", ctx, "pk-1", domain.OrderStatusProcessing, domain.OrderStatusDelivered).Return(nil)

	order, err := svc.UpdateOrderStatus(ctx, adminIdentity(), "pk-1", domain.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, order.OrderStatus)

	deps.repo.AssertExpectations(t)
	deps.users.AssertExpectations(t)
}

func TestUpdateOrderStatus_LostRaceToConcurrentUpdate(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.users.On("GetByEmail", ctx, "admin@gizmobuy.com").Return(adminUser(), nil)
	deps.repo.On("GetByID", ctx, "pk-1").
		Return(&domain.Order{ID: "pk-1", OrderID: "ord-1", OrderStatus: domain.OrderStatusProcessing}, nil)
	deps.repo.On("UpdateStatus", ctx, "pk-1", domain.OrderStatusProcessing, domain.OrderStatusDelivered).
		Return(apperrors.Conflict(`order status is "cancelled", expected "processing"`))

	_, err := svc.UpdateOrderStatus(ctx, adminIdentity(), "pk-1", domain.OrderStatusDelivered)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestUpdateOrderStatus_CallerNotRegistered(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.users.On("GetByEmail", ctx, "admin@gizmobuy.com").Return(nil, apperrors.ErrNotFound)

	_, err := svc.UpdateOrderStatus(ctx, adminIdentity(), "pk-1", domain.OrderStatusDelivered)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	deps.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateOrderStatus_CallerDemotedSinceTokenIssued(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	demoted := adminUser()
	demoted.Role = domain.RoleCustomer
	deps.users.On("GetByEmail", ctx, "admin@gizmobuy.com").Return(demoted, nil)

	_, err := svc.UpdateOrderStatus(ctx, adminIdentity(), "pk-1", domain.OrderStatusDelivered)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestUpdateOrderStatus_InvalidStatus(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.users.On("GetByEmail", ctx, "admin@gizmobuy.com").Return(adminUser(), nil)

	_, err := svc.UpdateOrderStatus(ctx, adminIdentity(), "pk-1", "shipped")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUpdateOrderStatus_InvalidTransition(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.users.On("GetByEmail", ctx, "admin@gizmobuy.com").Return(adminUser(), nil)
	deps.repo.On("GetByID", ctx, "pk-1").
		Return(&domain.Order{ID: "pk-1", OrderID: "ord-1", OrderStatus: domain.OrderStatusDelivered}, nil)

	_, err := svc.UpdateOrderStatus(ctx, adminIdentity(), "pk-1", domain.OrderStatusCancelled)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	deps.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateOrderStatus_OrderNotFound(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.users.On("GetByEmail", ctx, "admin@gizmobuy.com").Return(adminUser(), nil)
	deps.repo.On("GetByID", ctx, "pk-ghost").Return(nil, apperrors.ErrNotFound)

	_, err := svc.UpdateOrderStatus(ctx, adminIdentity(), "pk-ghost", domain.OrderStatusDelivered)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- Dashboard Tests ---

func TestDashboard_Aggregates(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.users.On("CountByRole", ctx).Return(map[string]int64{
		"customer": 120, "vendor": 8, "admin": 2,
	}, nil)
	deps.products.On("Count", ctx).Return(int64(42), nil)
	deps.repo.On("PaidTotals", ctx, repository.OrderFilter{}).Return(int64(10), 1000.0, nil)

	data, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(120), data.UsersByRole["customer"])
	assert.Equal(t, int64(42), data.ProductCount)
	assert.Equal(t, int64(10), data.Sales.PaidOrders)
	assert.InDelta(t, 50.0, data.Sales.GizmobuyProfit, 1e-9)
}

func TestDashboard_UserCountError(t *testing.T) {
	svc, deps := newTestService(t)
	ctx := context.Background()

	deps.users.On("CountByRole", ctx).Return(nil, errors.New("timeout"))

	_, err := svc.Dashboard(ctx)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
}
