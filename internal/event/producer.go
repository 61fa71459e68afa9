package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/babulakterfsd/gizmobuy-backend/internal/domain"
	pkgkafka "github.com/babulakterfsd/gizmobuy-backend/pkg/kafka"
)

// Kafka topics for order domain events.
var (
	TopicOrderCreated       = pkgkafka.Topic("order", "created")
	TopicOrderPaid          = pkgkafka.Topic("order", "paid")
	TopicOrderDeleted       = pkgkafka.Topic("order", "deleted")
	TopicOrderStatusChanged = pkgkafka.Topic("order", "status_changed")
)

// Aggregate type constant.
const AggregateTypeOrder = "order"

// Source identifier for events originating from this backend.
const SourceOrderBackend = "gizmobuy-backend"

// OrderCreatedData is the payload for an order.created event (full order snapshot).
type OrderCreatedData struct {
	ID               string            `json:"id"`
	OrderID          string            `json:"orderId"`
	OrderBy          string            `json:"orderBy"`
	CustomerName     string            `json:"customerName"`
	Products         []LineItemData    `json:"products"`
	BillForThisOrder float64           `json:"billForThisOrder"`
	DiscountGiven    float64           `json:"discountGiven"`
	TotalBill        float64           `json:"totalBill"`
	PaymentMethod    string            `json:"paymentMethod"`
}

// LineItemData is the event payload for an order line item.
type LineItemData struct {
	ProductRef string  `json:"productRef"`
	Title      string  `json:"title"`
	UnitPrice  float64 `json:"unitPrice"`
	Quantity   int     `json:"quantity"`
}

// OrderPaidData is the payload for an order.paid event.
type OrderPaidData struct {
	OrderID   string  `json:"orderId"`
	OrderBy   string  `json:"orderBy"`
	TotalBill float64 `json:"totalBill"`
}

// OrderDeletedData is the payload for an order.deleted event.
type OrderDeletedData struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason"`
}

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID   string `json:"orderId"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
}

// Producer publishes order domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the order subsystem.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderCreated publishes an order.created event with the full order snapshot.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	products := make([]LineItemData, len(order.Products))
	for i, item := range order.Products {
		products[i] = LineItemData{
			ProductRef: item.ProductRef,
			Title:      item.Title,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
		}
	}

	data := OrderCreatedData{
		ID:               order.ID,
		OrderID:          order.OrderID,
		OrderBy:          order.OrderBy,
		CustomerName:     order.CustomerName,
		Products:         products,
		BillForThisOrder: order.BillForThisOrder,
		DiscountGiven:    order.DiscountGiven,
		TotalBill:        order.TotalBill,
		PaymentMethod:    order.PaymentInfo.Method,
	}

	event, err := pkgkafka.NewEvent(TopicOrderCreated, order.OrderID, AggregateTypeOrder, SourceOrderBackend, data)
	if err != nil {
		return fmt.Errorf("create order.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderCreated, event); err != nil {
		return fmt.Errorf("publish order.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.created event",
		slog.String("order_id", order.OrderID),
		slog.String("order_by", order.OrderBy),
	)

	return nil
}

// PublishOrderPaid publishes an order.paid event after a success callback wins.
func (p *Producer) PublishOrderPaid(ctx context.Context, orderID, orderBy string, totalBill float64) error {
	data := OrderPaidData{
		OrderID:   orderID,
		OrderBy:   orderBy,
		TotalBill: totalBill,
	}

	event, err := pkgkafka.NewEvent(TopicOrderPaid, orderID, AggregateTypeOrder, SourceOrderBackend, data)
	if err != nil {
		return fmt.Errorf("create order.paid event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderPaid, event); err != nil {
		return fmt.Errorf("publish order.paid event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.paid event",
		slog.String("order_id", orderID),
	)

	return nil
}

// PublishOrderDeleted publishes an order.deleted event after a fail or cancel
// callback removes the row.
func (p *Producer) PublishOrderDeleted(ctx context.Context, orderID, reason string) error {
	data := OrderDeletedData{
		OrderID: orderID,
		Reason:  reason,
	}

	event, err := pkgkafka.NewEvent(TopicOrderDeleted, orderID, AggregateTypeOrder, SourceOrderBackend, data)
	if err != nil {
		return fmt.Errorf("create order.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderDeleted, event); err != nil {
		return fmt.Errorf("publish order.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.deleted event",
		slog.String("order_id", orderID),
		slog.String("reason", reason),
	)

	return nil
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, orderID, oldStatus, newStatus string) error {
	data := OrderStatusChangedData{
		OrderID:   orderID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	}

	event, err := pkgkafka.NewEvent(TopicOrderStatusChanged, orderID, AggregateTypeOrder, SourceOrderBackend, data)
	if err != nil {
		return fmt.Errorf("create order.status_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderStatusChanged, event); err != nil {
		return fmt.Errorf("publish order.status_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.status_changed event",
		slog.String("order_id", orderID),
		slog.String("old_status", oldStatus),
		slog.String("new_status", newStatus),
	)

	return nil
}
