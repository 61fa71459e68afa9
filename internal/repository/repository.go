package repository

import (
	"context"
	"time"

	"github.com/babulakterfsd/gizmobuy-backend/internal/domain"
)

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	// OrderBy restricts results to a single purchaser email when set.
	OrderBy *string
	// CreatedAfter is the inclusive lower bound of the reporting window.
	// The zero value means no lower bound.
	CreatedAfter time.Time
	Page         int
	PerPage      int
}

// MarkPaidOutcome reports what a mark-paid attempt did.
type MarkPaidOutcome int

const (
	// MarkPaidApplied means this call flipped the order to paid.
	MarkPaidApplied MarkPaidOutcome = iota
	// MarkPaidAlreadyPaid means the order was paid before this call.
	MarkPaidAlreadyPaid
	// MarkPaidNotFound means no order matched the correlation token pair.
	MarkPaidNotFound
)

// MarkPaidResult carries the outcome of a mark-paid attempt plus the order
// fields needed for the paid event when the attempt wins.
type MarkPaidResult struct {
	Outcome   MarkPaidOutcome
	OrderBy   string
	TotalBill float64
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts a new order and its line items into the store atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by its primary id, including line items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// MarkPaid flips is_paid to true for the order matching both the
	// correlation token and the payment token, only if it is still unpaid.
	// The compare-and-swap guarantees at most one caller wins.
	MarkPaid(ctx context.Context, orderID, paymentToken string) (MarkPaidResult, error)

	// DeleteByToken removes the order matching both tokens. Returns the
	// number of rows removed (0 or 1).
	DeleteByToken(ctx context.Context, orderID, paymentToken string) (int64, error)

	// DeleteUnpaidByCustomer removes all unpaid orders belonging to the
	// given purchaser email and returns how many were removed.
	DeleteUnpaidByCustomer(ctx context.Context, email string) (int64, error)

	// List returns orders matching the given filter, newest first, along
	// with the total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// PaidTotals aggregates paid orders matching the filter window:
	// count of paid orders and the sum of their total bills.
	PaidTotals(ctx context.Context, filter OrderFilter) (int64, float64, error)

	// UpdateStatus transitions an order from one status to another. The
	// current status guards the update so concurrent transitions out of the
	// same state cannot both win; the loser gets a conflict error.
	UpdateStatus(ctx context.Context, id string, fromStatus, toStatus string) error
}

// ProductReader exposes the read-only catalog views the order subsystem needs.
type ProductReader interface {
	// Exists reports whether a catalog product with the given id exists.
	Exists(ctx context.Context, id string) (bool, error)

	// Count returns the number of catalog products.
	Count(ctx context.Context) (int64, error)
}

// UserReader exposes the read-only account views the order subsystem needs.
type UserReader interface {
	// GetByEmail retrieves an account by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// CountByRole returns the number of accounts per role.
	CountByRole(ctx context.Context) (map[string]int64, error)
}
