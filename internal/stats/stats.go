// Package stats computes the dashboard summary figures.
package stats

import (
	"context"

	"github.com/safar/store-admin/internal/models"
	"github.com/shopspring/decimal"
)

type ProductCounter interface {
	Count(ctx context.Context) (int64, error)
}

type OrderTotaler interface {
	TotalsByStatus(ctx context.Context) (map[models.OrderStatus]models.OrderTotals, error)
}

// Summary is the dashboard header. Revenue figures sum order total_amount
// and include cancelled orders in the overall total.
type Summary struct {
	TotalProducts   int64           `json:"total_products"`
	TotalOrders     int64           `json:"total_orders"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	ApprovedOrders  int64           `json:"approved_orders"`
	ApprovedRevenue decimal.Decimal `json:"approved_revenue"`
	PendingOrders   int64           `json:"pending_orders"`
	PendingRevenue  decimal.Decimal `json:"pending_revenue"`
	CancelledOrders int64           `json:"cancelled_orders"`
}

type Service struct {
	products ProductCounter
	orders   OrderTotaler
}

func NewService(products ProductCounter, orders OrderTotaler) *Service {
	return &Service{products: products, orders: orders}
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	products, err := s.products.Count(ctx)
	if err != nil {
		return nil, err
	}

	totals, err := s.orders.TotalsByStatus(ctx)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		TotalProducts:   products,
		TotalRevenue:    decimal.Zero,
		ApprovedRevenue: decimal.Zero,
		PendingRevenue:  decimal.Zero,
	}
	for status, t := range totals {
		sum.TotalOrders += t.Count
		sum.TotalRevenue = sum.TotalRevenue.Add(t.Amount)

		switch status {
		case models.OrderStatusApproved:
			sum.ApprovedOrders = t.Count
			sum.ApprovedRevenue = t.Amount
		case models.OrderStatusPending:
			sum.PendingOrders = t.Count
			sum.PendingRevenue = t.Amount
		case models.OrderStatusCancelled:
			sum.CancelledOrders = t.Count
		}
	}

	return sum, nil
}
