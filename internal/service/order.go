package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/babulakterfsd/gizmobuy-backend/internal/domain"
	"github.com/babulakterfsd/gizmobuy-backend/internal/event"
	"github.com/babulakterfsd/gizmobuy-backend/internal/gateway"
	"github.com/babulakterfsd/gizmobuy-backend/internal/repository"
	apperrors "github.com/babulakterfsd/gizmobuy-backend/pkg/errors"
)

// billTolerance absorbs float representation noise when checking the
// client-declared total against billForThisOrder - discountGiven.
const billTolerance = 0.01

// Config holds the orchestrator's redirect targets and gateway defaults.
type Config struct {
	// CallbackBaseURL is this backend's public origin; the three gateway
	// callback URLs are built on it.
	CallbackBaseURL string
	// Storefront pages the customer lands on after each callback.
	SuccessRedirectURL string
	FailRedirectURL    string
	CancelRedirectURL  string
	Currency           string
}

// OrderService implements the business logic for the order lifecycle.
type OrderService struct {
	repo     repository.OrderRepository
	products repository.ProductReader
	users    repository.UserReader
	gateway  gateway.Gateway
	producer *event.Producer
	logger   *slog.Logger
	cfg      Config
}

// NewOrderService creates a new order service.
func NewOrderService(
	repo repository.OrderRepository,
	products repository.ProductReader,
	users repository.UserReader,
	gw gateway.Gateway,
	producer *event.Producer,
	logger *slog.Logger,
	cfg Config,
) *OrderService {
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return &OrderService{
		repo:     repo,
		products: products,
		users:    users,
		gateway:  gw,
		producer: producer,
		logger:   logger,
		cfg:      cfg,
	}
}

// LineItemInput holds the parameters for an order line item.
type LineItemInput struct {
	ProductRef string  `json:"productRef" validate:"required"`
	Title      string  `json:"title" validate:"required"`
	UnitPrice  float64 `json:"unitPrice" validate:"gte=0"`
	Quantity   int     `json:"quantity" validate:"gt=0"`
}

// InitiatePaymentInput holds the parameters for starting a checkout.
type InitiatePaymentInput struct {
	OrderID          string              `json:"orderId" validate:"required"`
	Products         []LineItemInput     `json:"products"`
	CustomerName     string              `json:"customerName" validate:"required"`
	ShippingInfo     domain.ShippingInfo `json:"shippingInfo"`
	PaymentMethod    string              `json:"paymentMethod"`
	BillForThisOrder float64             `json:"billForThisOrder" validate:"gte=0"`
	DiscountGiven    float64             `json:"discountGiven" validate:"gte=0"`
	AppliedCoupon    string              `json:"appliedCoupon"`
	TotalBill        float64             `json:"totalBill" validate:"gte=0"`
}

// InitiatePayment validates the cart, persists the order in unpaid state and
// opens a hosted-checkout session. It returns the gateway page URL the
// customer must be redirected to.
func (s *OrderService) InitiatePayment(ctx context.Context, caller domain.Identity, input InitiatePaymentInput) (string, error) {
	if len(input.Products) == 0 {
		return "", apperrors.Validation("order must contain at least one product")
	}

	if math.Abs(input.TotalBill-(input.BillForThisOrder-input.DiscountGiven)) > billTolerance {
		return "", apperrors.Validation("totalBill must equal billForThisOrder minus discountGiven")
	}

	// Every product reference is checked before anything is written, so a
	// single bad reference leaves no partial order behind.
	for _, item := range input.Products {
		exists, err := s.products.Exists(ctx, item.ProductRef)
		if err != nil {
			return "", apperrors.Persistence(err)
		}
		if !exists {
			return "", apperrors.Validation(fmt.Sprintf("product %s not found", item.ProductRef))
		}
	}

	now := time.Now().UTC()
	items := make([]domain.LineItem, len(input.Products))
	for i, item := range input.Products {
		items[i] = domain.LineItem{
			ProductRef: item.ProductRef,
			Title:      item.Title,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
			LineTotal:  item.UnitPrice * float64(item.Quantity),
		}
	}

	order := &domain.Order{
		ID:               uuid.New().String(),
		OrderID:          input.OrderID,
		PaymentToken:     uuid.New().String(),
		Products:         items,
		OrderBy:          caller.Email,
		CustomerName:     input.CustomerName,
		ShippingInfo:     input.ShippingInfo,
		PaymentInfo:      domain.PaymentInfo{Method: s.gateway.Name(), Amount: input.TotalBill},
		IsPaid:           false,
		OrderStatus:      domain.OrderStatusProcessing,
		BillForThisOrder: input.BillForThisOrder,
		DiscountGiven:    input.DiscountGiven,
		AppliedCoupon:    input.AppliedCoupon,
		TotalBill:        input.TotalBill,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if input.PaymentMethod != "" {
		order.PaymentInfo.Method = input.PaymentMethod
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return "", apperrors.Persistence(err)
	}

	session, err := s.gateway.InitiateSession(ctx, &gateway.InitiateInput{
		TranID:     transactionID(caller.Email, now),
		Amount:     order.TotalBill,
		Currency:   s.cfg.Currency,
		Order:      order,
		SuccessURL: s.callbackURL("success", order),
		FailURL:    s.callbackURL("fail", order),
		CancelURL:  s.callbackURL("cancel", order),
	})
	if err != nil {
		// The unpaid order stays behind; my-orders garbage collection
		// removes it on the customer's next visit.
		return "", apperrors.Gateway("failed to initiate payment session", err)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.OrderID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "payment session initiated",
		slog.String("order_id", order.OrderID),
		slog.String("order_by", order.OrderBy),
		slog.Float64("total_bill", order.TotalBill),
	)

	return session.RedirectURL, nil
}

// transactionID builds the gateway transaction reference: a random 3-digit
// prefix, the first ten characters of the purchaser email, and digits 7..11
// of the millisecond timestamp.
func transactionID(email string, now time.Time) string {
	prefix := 100 + rand.IntN(900)

	emailPart := email
	if len(emailPart) > 10 {
		emailPart = emailPart[:10]
	}

	ms := strconv.FormatInt(now.UnixMilli(), 10)
	msPart := ""
	if len(ms) >= 11 {
		msPart = ms[7:11]
	}

	return strconv.Itoa(prefix) + emailPart + msPart
}

func (s *OrderService) callbackURL(kind string, order *domain.Order) string {
	return fmt.Sprintf("%s/api/orders/%s?orderId=%s&token=%s",
		strings.TrimRight(s.cfg.CallbackBaseURL, "/"),
		kind,
		url.QueryEscape(order.OrderID),
		url.QueryEscape(order.PaymentToken),
	)
}

// HandlePaymentSuccess finalizes a won payment. It always returns the
// storefront success page; a callback that matches no order is tolerated,
// logged and counted so the divergence is visible without breaking the
// customer's redirect hop.
func (s *OrderService) HandlePaymentSuccess(ctx context.Context, orderID, token string) string {
	result, err := s.repo.MarkPaid(ctx, orderID, token)
	if err != nil {
		s.logger.ErrorContext(ctx, "mark paid failed",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
		return s.cfg.SuccessRedirectURL
	}

	switch result.Outcome {
	case repository.MarkPaidApplied:
		if err := s.producer.PublishOrderPaid(ctx, orderID, result.OrderBy, result.TotalBill); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish order.paid event",
				slog.String("order_id", orderID),
				slog.String("error", err.Error()),
			)
		}
		s.logger.InfoContext(ctx, "order paid",
			slog.String("order_id", orderID),
			slog.Float64("total_bill", result.TotalBill),
		)
	case repository.MarkPaidAlreadyPaid:
		s.logger.InfoContext(ctx, "duplicate success callback ignored",
			slog.String("order_id", orderID),
		)
	case repository.MarkPaidNotFound:
		orphanedCallbacks.WithLabelValues("success").Inc()
		s.logger.WarnContext(ctx, "success callback matched no order",
			slog.String("order_id", orderID),
		)
	}

	return s.cfg.SuccessRedirectURL
}

// HandlePaymentFail removes the failed order and returns the storefront
// fail page.
func (s *OrderService) HandlePaymentFail(ctx context.Context, orderID, token string) string {
	s.discardOrder(ctx, "fail", orderID, token)
	return s.cfg.FailRedirectURL
}

// HandlePaymentCancel removes the abandoned order and returns the storefront
// cancel page.
func (s *OrderService) HandlePaymentCancel(ctx context.Context, orderID, token string) string {
	s.discardOrder(ctx, "cancel", orderID, token)
	return s.cfg.CancelRedirectURL
}

func (s *OrderService) discardOrder(ctx context.Context, kind, orderID, token string) {
	deleted, err := s.repo.DeleteByToken(ctx, orderID, token)
	if err != nil {
		s.logger.ErrorContext(ctx, "delete order on callback failed",
			slog.String("callback", kind),
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
		return
	}
	if deleted == 0 {
		orphanedCallbacks.WithLabelValues(kind).Inc()
		s.logger.WarnContext(ctx, "callback matched no order",
			slog.String("callback", kind),
			slog.String("order_id", orderID),
		)
		return
	}

	if err := s.producer.PublishOrderDeleted(ctx, orderID, kind); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.deleted event",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order discarded on callback",
		slog.String("callback", kind),
		slog.String("order_id", orderID),
	)
}

// SellsHistoryInput holds the admin reporting query.
type SellsHistoryInput struct {
	Page           int
	Limit          int
	Timeframe      domain.Timeframe
	CustomersEmail string
}

// SellsHistoryResult carries the windowed order page and the paid-order
// aggregate over the same window and filter.
type SellsHistoryResult struct {
	Orders  []domain.Order
	Total   int
	Summary domain.SalesSummary
}

// SellsHistory returns orders in the requested window, paid or not, plus the
// sales summary over paid orders in that window.
func (s *OrderService) SellsHistory(ctx context.Context, input SellsHistoryInput) (*SellsHistoryResult, error) {
	filter := repository.OrderFilter{
		Page:    normalizePage(input.Page),
		PerPage: normalizePerPage(input.Limit),
	}

	if cutoff := input.Timeframe.Cutoff(time.Now().UTC()); cutoff.Unix() > 0 {
		filter.CreatedAfter = cutoff
	}
	if input.CustomersEmail != "" {
		email := input.CustomersEmail
		filter.OrderBy = &email
	}

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}

	paidCount, paidTotal, err := s.repo.PaidTotals(ctx, filter)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}

	return &SellsHistoryResult{
		Orders:  orders,
		Total:   total,
		Summary: domain.NewSalesSummary(paidCount, paidTotal),
	}, nil
}

// MyOrders lists the caller's orders newest first. Unpaid leftovers from
// abandoned checkouts are garbage collected before the read so the customer
// only ever sees orders that went through.
func (s *OrderService) MyOrders(ctx context.Context, caller domain.Identity, page, limit int) ([]domain.Order, int, error) {
	removed, err := s.repo.DeleteUnpaidByCustomer(ctx, caller.Email)
	if err != nil {
		return nil, 0, apperrors.Persistence(err)
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "garbage collected unpaid orders",
			slog.String("order_by", caller.Email),
			slog.Int64("removed", removed),
		)
	}

	email := caller.Email
	filter := repository.OrderFilter{
		OrderBy: &email,
		Page:    normalizePage(page),
		PerPage: normalizePerPage(limit),
	}

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.Persistence(err)
	}
	return orders, total, nil
}

// UpdateOrderStatus transitions the order to a new status. The caller's
// token is not trusted on its own: the account is re-resolved and must still
// be an admin at the moment of the change.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, caller domain.Identity, id string, newStatus string) (*domain.Order, error) {
	admin, err := s.users.GetByEmail(ctx, caller.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Forbidden("caller is not a registered admin")
		}
		return nil, apperrors.Persistence(err)
	}
	if admin.Role != domain.RoleAdmin {
		return nil, apperrors.Forbidden("caller is not a registered admin")
	}

	if !domain.IsValidStatus(newStatus) {
		return nil, apperrors.Validation(fmt.Sprintf("invalid status %q, must be one of: %s",
			newStatus, strings.Join(domain.ValidStatuses(), ", ")))
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, apperrors.Persistence(err)
	}

	if !order.CanTransitionTo(newStatus) {
		return nil, apperrors.Validation(fmt.Sprintf("cannot transition from %q to %q", order.OrderStatus, newStatus))
	}

	oldStatus := order.OrderStatus

	if err := s.repo.UpdateStatus(ctx, id, oldStatus, newStatus); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("order", id)
		}
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		return nil, apperrors.Persistence(err)
	}

	if err := s.producer.PublishOrderStatusChanged(ctx, order.OrderID, oldStatus, newStatus); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", order.OrderID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", order.OrderID),
		slog.String("old_status", oldStatus),
		slog.String("new_status", newStatus),
	)

	order.OrderStatus = newStatus
	return order, nil
}

// DashboardData is the admin overview payload.
type DashboardData struct {
	UsersByRole  map[string]int64    `json:"usersByRole"`
	ProductCount int64               `json:"productCount"`
	Sales        domain.SalesSummary `json:"sales"`
}

// Dashboard aggregates account counts, catalog size and all-time paid sales.
func (s *OrderService) Dashboard(ctx context.Context) (*DashboardData, error) {
	usersByRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}

	productCount, err := s.products.Count(ctx)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}

	paidCount, paidTotal, err := s.repo.PaidTotals(ctx, repository.OrderFilter{})
	if err != nil {
		return nil, apperrors.Persistence(err)
	}

	return &DashboardData{
		UsersByRole:  usersByRole,
		ProductCount: productCount,
		Sales:        domain.NewSalesSummary(paidCount, paidTotal),
	}, nil
}

func normalizePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

func normalizePerPage(perPage int) int {
	switch {
	case perPage <= 0:
		return 20
	case perPage > 100:
		return 100
	default:
		return perPage
	}
}
