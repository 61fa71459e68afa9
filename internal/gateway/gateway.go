package gateway

import (
	"context"

	"github.com/babulakterfsd/gizmobuy-backend/internal/domain"
)

// InitiateInput holds the parameters for opening a hosted-checkout session.
type InitiateInput struct {
	TranID     string
	Amount     float64
	Currency   string
	Order      *domain.Order
	SuccessURL string
	FailURL    string
	CancelURL  string
}

// Session is the result of a successful initiation: the hosted payment page
// the customer must be sent to.
type Session struct {
	RedirectURL string
}

// Gateway defines the interface for hosted-checkout payment gateways.
type Gateway interface {
	// Name returns the gateway name (e.g., "sslcommerz").
	Name() string

	// InitiateSession opens a payment session and returns the hosted page
	// URL. The call is synchronous and never retried; the caller decides
	// how a failure surfaces.
	InitiateSession(ctx context.Context, input *InitiateInput) (*Session, error)
}
