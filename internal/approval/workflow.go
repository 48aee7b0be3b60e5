// Package approval moves orders out of pending and adjusts inventory for the
// approved line items.
package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/safar/store-admin/internal/auth"
	"github.com/safar/store-admin/internal/database"
	"github.com/safar/store-admin/internal/events"
	"github.com/safar/store-admin/internal/logger"
	"github.com/safar/store-admin/internal/metrics"
	"github.com/safar/store-admin/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// OrderRecords is the order store as seen by the workflow. SetApproved and
// SetCancelled do not check the prior status.
type OrderRecords interface {
	Fetch(ctx context.Context, id string) (*models.Order, error)
	SetApproved(ctx context.Context, id string, at time.Time, by string) error
	SetCancelled(ctx context.Context, id string, at time.Time) error
	Revert(ctx context.Context, id string) error
}

// Ledger adjusts product stock. DecrementStock floors at zero and returns the
// quantity actually removed.
type Ledger interface {
	DecrementStock(ctx context.Context, productID string, amount int) (int, error)
	RestoreStock(ctx context.Context, productID string, amount int) error
}

type Mode string

const (
	// ModeBestEffort keeps the approval when some stock adjustments fail and
	// reports them in Result.ItemErrors.
	ModeBestEffort Mode = "best-effort"
	// ModeStrict undoes applied decrements and reverts the order to pending
	// when any stock adjustment fails.
	ModeStrict Mode = "strict"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBestEffort, ModeStrict:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown approval mode %q", s)
}

type Result struct {
	Order      *models.Order
	ItemErrors []ItemError
}

type Workflow struct {
	orders    OrderRecords
	ledger    Ledger
	mode      Mode
	publisher events.Publisher
	log       *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	tracer    trace.Tracer
}

type Option func(*Workflow)

func WithMode(m Mode) Option {
	return func(w *Workflow) { w.mode = m }
}

func WithPublisher(p events.Publisher) Option {
	return func(w *Workflow) { w.publisher = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(w *Workflow) { w.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Workflow) { w.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

func New(orders OrderRecords, ledger Ledger, opts ...Option) *Workflow {
	w := &Workflow{
		orders:    orders,
		ledger:    ledger,
		mode:      ModeBestEffort,
		publisher: events.Nop{},
		log:       zap.NewNop(),
		now:       func() time.Time { return time.Now().UTC() },
		tracer:    otel.Tracer("approval"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type adjustment struct {
	productID string
	applied   int
}

// Approve transitions a pending order to approved, then decrements stock for
// each line item in order. Item failures never undo the approval in
// best-effort mode; callers must inspect Result.ItemErrors.
func (w *Workflow) Approve(ctx context.Context, orderID string) (*Result, error) {
	ctx, span := w.tracer.Start(ctx, "Workflow.Approve", trace.WithAttributes(
		attribute.String("order_id", orderID),
		attribute.String("mode", string(w.mode)),
	))
	defer span.End()

	order, err := w.pending(ctx, orderID, "approve")
	if err != nil {
		fail(span, err)
		return nil, err
	}

	at := w.now()
	var by string
	if id, ok := auth.FromContext(ctx); ok {
		by = id.AdminID
	}

	if err := w.orders.SetApproved(ctx, order.ID, at, by); err != nil {
		w.count("approve", "error")
		err = fmt.Errorf("%w: order %s: %w", ErrStatusWriteFailed, order.ID, err)
		fail(span, err)
		return nil, err
	}

	result := &Result{Order: order}
	var applied []adjustment

	for _, item := range order.Items {
		n, err := w.ledger.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			ie := ItemError{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Err:       fmt.Errorf("%w: %w", ErrStockAdjustmentFailed, err),
			}
			result.ItemErrors = append(result.ItemErrors, ie)
			if w.metrics != nil {
				w.metrics.ItemFailures.Inc()
			}
			logger.Warn(ctx, w.log, "stock decrement failed",
				zap.String("order_id", order.ID),
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err),
			)
			continue
		}
		if n > 0 {
			applied = append(applied, adjustment{productID: item.ProductID, applied: n})
		}
	}

	if len(result.ItemErrors) > 0 && w.mode == ModeStrict {
		err := w.rollback(ctx, order.ID, applied, result.ItemErrors)
		w.count("approve", "rolled_back")
		fail(span, err)
		return result, err
	}

	order.Status = models.OrderStatusApproved
	order.ApprovedAt = &at
	order.ApprovedBy = by

	outcome := "ok"
	if len(result.ItemErrors) > 0 {
		outcome = "partial"
	}
	w.count("approve", outcome)
	span.SetAttributes(attribute.Int("item_errors", len(result.ItemErrors)))

	logger.Info(ctx, w.log, "order approved",
		zap.String("order_id", order.ID),
		zap.String("approved_by", by),
		zap.Int("items", len(order.Items)),
		zap.Int("item_errors", len(result.ItemErrors)),
	)

	w.publish(ctx, events.TypeOrderApproved, order.ID, approvedPayload(order, result.ItemErrors))

	return result, nil
}

// Cancel transitions a pending order to cancelled. Stock is not touched.
func (w *Workflow) Cancel(ctx context.Context, orderID string) (*models.Order, error) {
	ctx, span := w.tracer.Start(ctx, "Workflow.Cancel", trace.WithAttributes(
		attribute.String("order_id", orderID),
	))
	defer span.End()

	order, err := w.pending(ctx, orderID, "cancel")
	if err != nil {
		fail(span, err)
		return nil, err
	}

	at := w.now()
	if err := w.orders.SetCancelled(ctx, order.ID, at); err != nil {
		w.count("cancel", "error")
		err = fmt.Errorf("%w: order %s: %w", ErrStatusWriteFailed, order.ID, err)
		fail(span, err)
		return nil, err
	}

	order.Status = models.OrderStatusCancelled
	order.CancelledAt = &at
	w.count("cancel", "ok")

	logger.Info(ctx, w.log, "order cancelled", zap.String("order_id", order.ID))

	w.publish(ctx, events.TypeOrderCancelled, order.ID, nil)

	return order, nil
}

// pending fetches the order and checks that it can leave the pending state.
func (w *Workflow) pending(ctx context.Context, orderID, action string) (*models.Order, error) {
	order, err := w.orders.Fetch(ctx, orderID)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			w.count(action, "not_found")
			return nil, fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
		}
		w.count(action, "error")
		return nil, fmt.Errorf("fetch order %s: %w", orderID, err)
	}

	if order.Status != models.OrderStatusPending {
		w.count(action, "invalid_transition")
		past := "approved"
		if action == "cancel" {
			past = "cancelled"
		}
		return nil, fmt.Errorf("%w: only pending orders can be %s (order %s is %s)",
			ErrInvalidStateTransition, past, order.ID, order.Status)
	}

	return order, nil
}

// rollback restores applied decrements newest first and puts the order back
// to pending. The returned error joins the rollback sentinel, every item
// error and any compensation failure.
func (w *Workflow) rollback(ctx context.Context, orderID string, applied []adjustment, itemErrs []ItemError) error {
	errs := []error{ErrApprovalRolledBack}
	for _, ie := range itemErrs {
		errs = append(errs, ie)
	}

	for i := len(applied) - 1; i >= 0; i-- {
		adj := applied[i]
		if err := w.ledger.RestoreStock(ctx, adj.productID, adj.applied); err != nil {
			logger.Error(ctx, w.log, "restore stock failed",
				zap.String("order_id", orderID),
				zap.String("product_id", adj.productID),
				zap.Int("quantity", adj.applied),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("restore product %s: %w", adj.productID, err))
		}
	}

	if err := w.orders.Revert(ctx, orderID); err != nil {
		logger.Error(ctx, w.log, "revert order failed", zap.String("order_id", orderID), zap.Error(err))
		errs = append(errs, fmt.Errorf("revert order %s: %w", orderID, err))
	}

	logger.Warn(ctx, w.log, "approval rolled back",
		zap.String("order_id", orderID),
		zap.Int("item_errors", len(itemErrs)),
		zap.Int("restored", len(applied)),
	)

	return errors.Join(errs...)
}

func (w *Workflow) publish(ctx context.Context, eventType, orderID string, payload any) {
	if err := w.publisher.Publish(ctx, events.NewOrderEvent(eventType, orderID, payload)); err != nil {
		logger.Warn(ctx, w.log, "publish event failed",
			zap.String("type", eventType),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}
}

func (w *Workflow) count(action, outcome string) {
	if w.metrics != nil {
		w.metrics.Approvals.WithLabelValues(action, outcome).Inc()
	}
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

type approvedItemError struct {
	ProductID string `json:"product_id"`
	Error     string `json:"error"`
}

func approvedPayload(order *models.Order, itemErrs []ItemError) map[string]any {
	failed := make([]approvedItemError, len(itemErrs))
	for i, ie := range itemErrs {
		failed[i] = approvedItemError{ProductID: ie.ProductID, Error: ie.Err.Error()}
	}
	return map[string]any{
		"approved_by":  order.ApprovedBy,
		"approved_at":  order.ApprovedAt,
		"total_amount": order.TotalAmount,
		"items":        order.Items,
		"item_errors":  failed,
	}
}
