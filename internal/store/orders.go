package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/safar/store-admin/internal/database"
	"github.com/safar/store-admin/internal/models"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Orders is the PostgreSQL-backed orders collection.
type Orders struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewOrders(db *sql.DB) *Orders {
	return &Orders{db: db, tracer: otel.Tracer("store/orders")}
}

const orderColumns = `id, status, total_amount, notes, customer_details,
	created_at, updated_at, approved_at, approved_by, cancelled_at`

func (s *Orders) Create(ctx context.Context, o *models.Order) error {
	ctx, span := s.tracer.Start(ctx, "Orders.Create")
	defer span.End()

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	if !o.Status.Valid() {
		return fmt.Errorf("create order: invalid status %q", o.Status)
	}

	customer, err := json.Marshal(o.CustomerDetails)
	if err != nil {
		return fmt.Errorf("encode customer details: %w", err)
	}

	return database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO orders (id, status, total_amount, notes, customer_details, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			 RETURNING created_at, updated_at`,
			o.ID, o.Status, o.TotalAmount, o.Notes, customer).Scan(&o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for i, item := range o.Items {
			var variantName, variantValue sql.NullString
			if item.Variant != nil {
				variantName = sql.NullString{String: item.Variant.Name, Valid: true}
				variantValue = sql.NullString{String: item.Variant.Value, Valid: true}
			}

			_, err = tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, position, product_id, product_name, quantity,
				                          unit_price, final_price, variant_name, variant_value)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				o.ID, i, item.ProductID, item.ProductName, item.Quantity,
				item.UnitPrice, item.FinalPrice, variantName, variantValue)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}

		return nil
	})
}

func (s *Orders) Fetch(ctx context.Context, id string) (*models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "Orders.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", id))

	order, err := scanOrder(s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := s.itemsFor(ctx, []string{order.ID})
	if err != nil {
		return nil, err
	}
	if its, ok := items[order.ID]; ok {
		order.Items = its
	}

	return order, nil
}

// SetApproved writes the approved status unconditionally; callers check the
// prior status.
func (s *Orders) SetApproved(ctx context.Context, id string, at time.Time, by string) error {
	ctx, span := s.tracer.Start(ctx, "Orders.SetApproved")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", id))

	return s.exec(ctx,
		`UPDATE orders
		 SET status = $1, approved_at = $2, approved_by = $3, updated_at = NOW()
		 WHERE id = $4`,
		models.OrderStatusApproved, at, by, id)
}

func (s *Orders) SetCancelled(ctx context.Context, id string, at time.Time) error {
	ctx, span := s.tracer.Start(ctx, "Orders.SetCancelled")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", id))

	return s.exec(ctx,
		`UPDATE orders
		 SET status = $1, cancelled_at = $2, updated_at = NOW()
		 WHERE id = $3`,
		models.OrderStatusCancelled, at, id)
}

// Revert puts an order back to pending and clears its transition stamps.
func (s *Orders) Revert(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "Orders.Revert")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", id))

	return s.exec(ctx,
		`UPDATE orders
		 SET status = $1, approved_at = NULL, approved_by = '', cancelled_at = NULL, updated_at = NOW()
		 WHERE id = $2`,
		models.OrderStatusPending, id)
}

func (s *Orders) exec(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrOrderNotFound
	}

	return nil
}

// List pages through orders newest first. An empty status lists every order.
func (s *Orders) List(ctx context.Context, status models.OrderStatus, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::text = '' OR status = $1::text)
		  AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := s.db.QueryContext(ctx, query, string(status), cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := s.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if its, ok := items[o.ID]; ok {
			o.Items = its
		}
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		last := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// TotalsByStatus returns order count and summed total_amount per status.
func (s *Orders) TotalsByStatus(ctx context.Context) (map[models.OrderStatus]models.OrderTotals, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("order totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[models.OrderStatus]models.OrderTotals)
	for rows.Next() {
		var status models.OrderStatus
		var t models.OrderTotals
		if err := rows.Scan(&status, &t.Count, &t.Amount); err != nil {
			return nil, fmt.Errorf("scan order totals: %w", err)
		}
		totals[status] = t
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return totals, nil
}

func (s *Orders) itemsFor(ctx context.Context, orderIDs []string) (map[string][]models.LineItem, error) {
	out := make(map[string][]models.LineItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT order_id, product_id, product_name, quantity, unit_price, final_price, variant_name, variant_value
		 FROM order_items
		 WHERE order_id = ANY($1)
		 ORDER BY order_id, position`,
		pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var item models.LineItem
		var variantName, variantValue sql.NullString
		err := rows.Scan(
			&orderID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.UnitPrice,
			&item.FinalPrice,
			&variantName,
			&variantValue,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if variantName.Valid {
			item.Variant = &models.Variant{Name: variantName.String, Value: variantValue.String}
		}
		out[orderID] = append(out[orderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	order := &models.Order{Items: []models.LineItem{}}
	var customer []byte
	var approvedAt, cancelledAt sql.NullTime
	var total decimal.Decimal

	err := row.Scan(
		&order.ID,
		&order.Status,
		&total,
		&order.Notes,
		&customer,
		&order.CreatedAt,
		&order.UpdatedAt,
		&approvedAt,
		&order.ApprovedBy,
		&cancelledAt,
	)
	if err != nil {
		return nil, err
	}

	order.TotalAmount = total
	if approvedAt.Valid {
		order.ApprovedAt = &approvedAt.Time
	}
	if cancelledAt.Valid {
		order.CancelledAt = &cancelledAt.Time
	}
	if len(customer) > 0 {
		if err := json.Unmarshal(customer, &order.CustomerDetails); err != nil {
			return nil, fmt.Errorf("decode customer details: %w", err)
		}
	}

	return order, nil
}
