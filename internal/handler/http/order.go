package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/babulakterfsd/gizmobuy-backend/internal/domain"
	"github.com/babulakterfsd/gizmobuy-backend/internal/service"
	"github.com/babulakterfsd/gizmobuy-backend/pkg/httputil"
	"github.com/babulakterfsd/gizmobuy-backend/pkg/middleware"
	"github.com/babulakterfsd/gizmobuy-backend/pkg/validator"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// LineItemRequest is the JSON request body for an order line item.
type LineItemRequest struct {
	ProductRef string  `json:"productRef" validate:"required"`
	Title      string  `json:"title" validate:"required"`
	UnitPrice  float64 `json:"unitPrice" validate:"gte=0"`
	Quantity   int     `json:"quantity" validate:"required,gte=1"`
}

// InitPaymentRequest is the JSON request body for starting a checkout.
type InitPaymentRequest struct {
	OrderID          string              `json:"orderId" validate:"required"`
	Products         []LineItemRequest   `json:"products" validate:"required,min=1,dive"`
	CustomerName     string              `json:"customerName" validate:"required"`
	ShippingInfo     domain.ShippingInfo `json:"shippingInfo"`
	PaymentMethod    string              `json:"paymentMethod"`
	BillForThisOrder float64             `json:"billForThisOrder" validate:"gte=0"`
	DiscountGiven    float64             `json:"discountGiven" validate:"gte=0"`
	AppliedCoupon    string              `json:"appliedCoupon"`
	TotalBill        float64             `json:"totalBill" validate:"gte=0"`
}

// UpdateStatusRequest is the JSON request body for updating order status.
type UpdateStatusRequest struct {
	OrderStatus string `json:"orderStatus" validate:"required"`
}

// SellsHistoryResponse is the payload for the sells-history report.
type SellsHistoryResponse struct {
	Orders  httputil.PaginatedData[domain.Order] `json:"orders"`
	Summary domain.SalesSummary                  `json:"summary"`
}

func callerIdentity(r *http.Request) (domain.Identity, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return domain.Identity{}, false
	}
	return domain.Identity{
		ID:        claims.UserID,
		Name:      claims.Name,
		Email:     claims.Email,
		Role:      claims.Role,
		IsBlocked: claims.IsBlocked,
		IssuedAt:  claims.IssuedAt,
	}, true
}

// --- Handlers ---

// InitPayment handles POST /api/orders/init-payment
func (h *OrderHandler) InitPayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(r)
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			StatusCode: http.StatusUnauthorized,
			Success:    false,
			Message:    "authentication required",
		})
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req InitPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			StatusCode: http.StatusBadRequest,
			Success:    false,
			Message:    "invalid request body: " + err.Error(),
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	items := make([]service.LineItemInput, len(req.Products))
	for i, item := range req.Products {
		items[i] = service.LineItemInput{
			ProductRef: item.ProductRef,
			Title:      item.Title,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
		}
	}

	input := service.InitiatePaymentInput{
		OrderID:          req.OrderID,
		Products:         items,
		CustomerName:     req.CustomerName,
		ShippingInfo:     req.ShippingInfo,
		PaymentMethod:    req.PaymentMethod,
		BillForThisOrder: req.BillForThisOrder,
		DiscountGiven:    req.DiscountGiven,
		AppliedCoupon:    req.AppliedCoupon,
		TotalBill:        req.TotalBill,
	}

	redirectURL, err := h.service.InitiatePayment(r.Context(), caller, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "payment session initiated successfully", map[string]string{
		"redirectUrl": redirectURL,
	})
}

// PaymentSuccess handles GET and POST /api/orders/success. The gateway and
// the customer's browser both land here; the response is always a redirect to
// the storefront, never JSON.
func (h *OrderHandler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("orderId")
	token := r.URL.Query().Get("token")
	url := h.service.HandlePaymentSuccess(r.Context(), orderID, token)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// PaymentFail handles GET and POST /api/orders/fail
func (h *OrderHandler) PaymentFail(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("orderId")
	token := r.URL.Query().Get("token")
	url := h.service.HandlePaymentFail(r.Context(), orderID, token)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// PaymentCancel handles GET and POST /api/orders/cancel
func (h *OrderHandler) PaymentCancel(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("orderId")
	token := r.URL.Query().Get("token")
	url := h.service.HandlePaymentCancel(r.Context(), orderID, token)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// SellsHistory handles GET /api/orders/sells-history
func (h *OrderHandler) SellsHistory(w http.ResponseWriter, r *http.Request) {
	input := service.SellsHistoryInput{
		Timeframe:      domain.Timeframe(r.URL.Query().Get("timeframe")),
		CustomersEmail: r.URL.Query().Get("customersEmail"),
	}

	page, limit, ok := parsePagination(w, r)
	if !ok {
		return
	}
	input.Page = page
	input.Limit = limit

	result, err := h.service.SellsHistory(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "sells history fetched successfully", SellsHistoryResponse{
		Orders:  httputil.NewPaginatedData(result.Orders, result.Total, normalized(page, 1), normalized(limit, 20)),
		Summary: result.Summary,
	})
}

// MyOrders handles GET /api/orders/my-orders
func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(r)
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			StatusCode: http.StatusUnauthorized,
			Success:    false,
			Message:    "authentication required",
		})
		return
	}

	page, limit, ok := parsePagination(w, r)
	if !ok {
		return
	}

	orders, total, err := h.service.MyOrders(r.Context(), caller, page, limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "orders fetched successfully",
		httputil.NewPaginatedData(orders, total, normalized(page, 1), normalized(limit, 20)))
}

// UpdateOrderStatus handles PUT /api/orders/{id}
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(r)
	if !ok {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			StatusCode: http.StatusUnauthorized,
			Success:    false,
			Message:    "authentication required",
		})
		return
	}

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			StatusCode: http.StatusBadRequest,
			Success:    false,
			Message:    "invalid request body: " + err.Error(),
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), caller, id.String(), req.OrderStatus)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "order status updated successfully", order)
}

// Dashboard handles GET /api/orders/dashboard
func (h *OrderHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Dashboard(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "dashboard data fetched successfully", data)
}

// parsePagination reads page and limit query parameters. A missing parameter
// is reported as zero so the service can apply its defaults.
func parsePagination(w http.ResponseWriter, r *http.Request) (page, limit int, ok bool) {
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				StatusCode: http.StatusBadRequest,
				Success:    false,
				Message:    "page must be a valid positive integer",
			})
			return 0, 0, false
		}
		page = n
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				StatusCode: http.StatusBadRequest,
				Success:    false,
				Message:    "limit must be a valid integer between 1 and 100",
			})
			return 0, 0, false
		}
		limit = n
	}
	return page, limit, true
}

func normalized(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
