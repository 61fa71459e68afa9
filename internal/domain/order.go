package domain

import "time"

// Order status constants.
const (
	OrderStatusProcessing = "processing"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Order represents a single checkout attempt. JSON field names mirror the
// stored order document. PaymentToken is server-only and never serialized.
type Order struct {
	ID               string       `json:"id"`
	OrderID          string       `json:"orderId"`
	PaymentToken     string       `json:"-"`
	Products         []LineItem   `json:"products"`
	OrderBy          string       `json:"orderBy"`
	CustomerName     string       `json:"customerName"`
	ShippingInfo     ShippingInfo `json:"shippingInfo"`
	PaymentInfo      PaymentInfo  `json:"paymentInfo"`
	IsPaid           bool         `json:"isPaid"`
	OrderStatus      string       `json:"orderStatus"`
	BillForThisOrder float64      `json:"billForThisOrder"`
	DiscountGiven    float64      `json:"discountGiven"`
	AppliedCoupon    string       `json:"appliedCoupon,omitempty"`
	TotalBill        float64      `json:"totalBill"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// ShippingInfo is the postal and contact snapshot captured at order time.
type ShippingInfo struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
	Mobile     string `json:"mobile"`
}

// PaymentInfo describes how the order is to be paid.
type PaymentInfo struct {
	Method string  `json:"method"`
	Amount float64 `json:"amount"`
}

// ValidStatuses returns all valid order statuses.
func ValidStatuses() []string {
	return []string{
		OrderStatusProcessing,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// AllowedTransitions defines which status transitions are valid.
// Delivered and cancelled are terminal.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusProcessing: {OrderStatusDelivered, OrderStatusCancelled},
		OrderStatusDelivered:  {},
		OrderStatusCancelled:  {},
	}
}

// CanTransitionTo checks if the order can transition to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[o.OrderStatus]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}
