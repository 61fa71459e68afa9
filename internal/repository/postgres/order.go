package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/babulakterfsd/gizmobuy-backend/internal/domain"
	"github.com/babulakterfsd/gizmobuy-backend/internal/repository"
	"github.com/babulakterfsd/gizmobuy-backend/pkg/database"
	apperrors "github.com/babulakterfsd/gizmobuy-backend/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new order and its line items atomically within a transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	shippingJSON, err := json.Marshal(o.ShippingInfo)
	if err != nil {
		return fmt.Errorf("marshal shipping info: %w", err)
	}
	paymentJSON, err := json.Marshal(o.PaymentInfo)
	if err != nil {
		return fmt.Errorf("marshal payment info: %w", err)
	}

	orderQuery := `
		INSERT INTO orders (id, order_id, payment_token, order_by, customer_name, shipping_info, payment_info, is_paid, order_status, bill_for_this_order, discount_given, applied_coupon, total_bill, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = tx.Exec(ctx, orderQuery,
		o.ID,
		o.OrderID,
		o.PaymentToken,
		o.OrderBy,
		o.CustomerName,
		shippingJSON,
		paymentJSON,
		o.IsPaid,
		o.OrderStatus,
		o.BillForThisOrder,
		o.DiscountGiven,
		o.AppliedCoupon,
		o.TotalBill,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_pk, product_ref, title, unit_price, quantity, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, item := range o.Products {
		_, err = tx.Exec(ctx, itemQuery,
			o.ID,
			item.ProductRef,
			item.Title,
			item.UnitPrice,
			item.Quantity,
			item.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

const orderColumns = `o.id, o.order_id, o.payment_token, o.order_by, o.customer_name, o.shipping_info, o.payment_info, o.is_paid, o.order_status, o.bill_for_this_order, o.discount_given, o.applied_coupon, o.total_bill, o.created_at, o.updated_at`

// GetByID retrieves an order by its primary id, eagerly loading its line items.
// Order and items come back in a single query via LEFT JOIN + JSONB_AGG.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT
			%s,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'productRef', oi.product_ref,
						'title', oi.title,
						'unitPrice', oi.unit_price,
						'quantity', oi.quantity,
						'lineTotal', oi.line_total
					) ORDER BY oi.id
				) FILTER (WHERE oi.id IS NOT NULL),
				'[]'::jsonb
			) AS products
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_pk
		WHERE o.id = $1
		GROUP BY o.id`, orderColumns)

	var (
		o            domain.Order
		shippingJSON []byte
		paymentJSON  []byte
		itemsJSON    []byte
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID,
		&o.OrderID,
		&o.PaymentToken,
		&o.OrderBy,
		&o.CustomerName,
		&shippingJSON,
		&paymentJSON,
		&o.IsPaid,
		&o.OrderStatus,
		&o.BillForThisOrder,
		&o.DiscountGiven,
		&o.AppliedCoupon,
		&o.TotalBill,
		&o.CreatedAt,
		&o.UpdatedAt,
		&itemsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if err := unmarshalOrderDocs(&o, shippingJSON, paymentJSON); err != nil {
		return nil, err
	}

	if len(itemsJSON) > 0 && string(itemsJSON) != "null" && string(itemsJSON) != "[]" {
		if err := json.Unmarshal(itemsJSON, &o.Products); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	} else {
		o.Products = []domain.LineItem{}
	}

	return &o, nil
}

// MarkPaid flips is_paid for the order matching both tokens if it is still
// unpaid. The is_paid = FALSE guard makes the update a compare-and-swap, so
// duplicate or racing success callbacks cannot both win.
func (r *OrderRepository) MarkPaid(ctx context.Context, orderID, paymentToken string) (repository.MarkPaidResult, error) {
	query := `
		UPDATE orders
		SET is_paid = TRUE, updated_at = $3
		WHERE order_id = $1 AND payment_token = $2 AND is_paid = FALSE
		RETURNING order_by, total_bill`

	var result repository.MarkPaidResult
	err := r.pool.QueryRow(ctx, query, orderID, paymentToken, time.Now().UTC()).
		Scan(&result.OrderBy, &result.TotalBill)
	if err == nil {
		result.Outcome = repository.MarkPaidApplied
		return result, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return result, fmt.Errorf("mark order paid: %w", err)
	}

	// Distinguish a duplicate callback from a dangling one.
	var isPaid bool
	err = r.pool.QueryRow(ctx,
		`SELECT is_paid FROM orders WHERE order_id = $1 AND payment_token = $2`,
		orderID, paymentToken,
	).Scan(&isPaid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			result.Outcome = repository.MarkPaidNotFound
			return result, nil
		}
		return result, fmt.Errorf("check order paid state: %w", err)
	}
	if isPaid {
		result.Outcome = repository.MarkPaidAlreadyPaid
		return result, nil
	}
	result.Outcome = repository.MarkPaidNotFound
	return result, nil
}

// DeleteByToken removes the order matching both tokens. Line items go with it
// via ON DELETE CASCADE.
func (r *OrderRepository) DeleteByToken(ctx context.Context, orderID, paymentToken string) (int64, error) {
	ct, err := r.pool.Exec(ctx,
		`DELETE FROM orders WHERE order_id = $1 AND payment_token = $2`,
		orderID, paymentToken,
	)
	if err != nil {
		return 0, fmt.Errorf("delete order: %w", err)
	}
	return ct.RowsAffected(), nil
}

// DeleteUnpaidByCustomer removes all unpaid orders for the given purchaser.
func (r *OrderRepository) DeleteUnpaidByCustomer(ctx context.Context, email string) (int64, error) {
	ct, err := r.pool.Exec(ctx,
		`DELETE FROM orders WHERE order_by = $1 AND is_paid = FALSE`,
		email,
	)
	if err != nil {
		return 0, fmt.Errorf("delete unpaid orders: %w", err)
	}
	return ct.RowsAffected(), nil
}

func buildOrderFilter(filter repository.OrderFilter) (string, []any) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.OrderBy != nil {
		conditions = append(conditions, fmt.Sprintf("order_by = $%d", argIndex))
		args = append(args, *filter.OrderBy)
		argIndex++
	}

	if !filter.CreatedAfter.IsZero() {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIndex))
		args = append(args, filter.CreatedAfter)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}
	return whereClause, args
}

// List returns orders matching the given filter with the total count,
// newest first.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	whereClause, args := buildOrderFilter(filter)
	argIndex := len(args) + 1

	// count(*) OVER() gives the total count in the same query.
	query := fmt.Sprintf(`
		SELECT %s,
			   count(*) OVER() AS total_count
		FROM orders o
		%s
		ORDER BY o.created_at DESC
		LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)

	for rows.Next() {
		var (
			o            domain.Order
			shippingJSON []byte
			paymentJSON  []byte
		)

		if err := rows.Scan(
			&o.ID,
			&o.OrderID,
			&o.PaymentToken,
			&o.OrderBy,
			&o.CustomerName,
			&shippingJSON,
			&paymentJSON,
			&o.IsPaid,
			&o.OrderStatus,
			&o.BillForThisOrder,
			&o.DiscountGiven,
			&o.AppliedCoupon,
			&o.TotalBill,
			&o.CreatedAt,
			&o.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}

		if err := unmarshalOrderDocs(&o, shippingJSON, paymentJSON); err != nil {
			return nil, 0, err
		}

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	// Batch-load line items for all orders in a single query to avoid N+1.
	if len(orders) > 0 {
		orderIDs := make([]string, len(orders))
		indexByID := make(map[string]int, len(orders))
		for i := range orders {
			orderIDs[i] = orders[i].ID
			indexByID[orders[i].ID] = i
			orders[i].Products = []domain.LineItem{}
		}

		itemsQuery := `
			SELECT order_pk, product_ref, title, unit_price, quantity, line_total
			FROM order_items
			WHERE order_pk = ANY($1)
			ORDER BY id`

		itemRows, err := r.pool.Query(ctx, itemsQuery, orderIDs)
		if err != nil {
			return nil, 0, fmt.Errorf("batch load order items: %w", err)
		}
		defer itemRows.Close()

		for itemRows.Next() {
			var (
				orderPK string
				item    domain.LineItem
			)
			if err := itemRows.Scan(
				&orderPK,
				&item.ProductRef,
				&item.Title,
				&item.UnitPrice,
				&item.Quantity,
				&item.LineTotal,
			); err != nil {
				return nil, 0, fmt.Errorf("scan order item: %w", err)
			}
			if i, ok := indexByID[orderPK]; ok {
				orders[i].Products = append(orders[i].Products, item)
			}
		}
		if err := itemRows.Err(); err != nil {
			return nil, 0, fmt.Errorf("iterate batch order item rows: %w", err)
		}
	}

	return orders, totalCount, nil
}

// PaidTotals aggregates paid orders in the filter window: count and gross sum.
func (r *OrderRepository) PaidTotals(ctx context.Context, filter repository.OrderFilter) (int64, float64, error) {
	whereClause, args := buildOrderFilter(filter)
	if whereClause == "" {
		whereClause = "WHERE o.is_paid = TRUE"
	} else {
		whereClause += " AND o.is_paid = TRUE"
	}

	query := fmt.Sprintf(`
		SELECT count(*), COALESCE(SUM(o.total_bill), 0)
		FROM orders o
		%s`, whereClause)

	var (
		count int64
		total float64
	)
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count, &total); err != nil {
		return 0, 0, fmt.Errorf("aggregate paid orders: %w", err)
	}
	return count, total, nil
}

// UpdateStatus transitions an order from one status to another. The current
// status is part of the WHERE clause so two interleaved updates cannot both
// move the order out of the same state; the loser gets a conflict.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, fromStatus, toStatus string) error {
	query := `
		UPDATE orders
		SET order_status = $1, updated_at = $2
		WHERE id = $3 AND order_status = $4`

	ct, err := r.pool.Exec(ctx, query, toStatus, time.Now().UTC(), id, fromStatus)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		// Distinguish a vanished order from a concurrent status change.
		var current string
		err := r.pool.QueryRow(ctx, `SELECT order_status FROM orders WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("order", id)
		}
		if err != nil {
			return fmt.Errorf("check order status: %w", err)
		}
		return apperrors.Conflict(fmt.Sprintf("order status is %q, expected %q", current, fromStatus))
	}

	return nil
}

func unmarshalOrderDocs(o *domain.Order, shippingJSON, paymentJSON []byte) error {
	if len(shippingJSON) > 0 && string(shippingJSON) != "null" {
		if err := json.Unmarshal(shippingJSON, &o.ShippingInfo); err != nil {
			return fmt.Errorf("unmarshal shipping info: %w", err)
		}
	}
	if len(paymentJSON) > 0 && string(paymentJSON) != "null" {
		if err := json.Unmarshal(paymentJSON, &o.PaymentInfo); err != nil {
			return fmt.Errorf("unmarshal payment info: %w", err)
		}
	}
	return nil
}
