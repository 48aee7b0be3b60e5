package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/safar/store-admin/internal/models"
	"github.com/safar/store-admin/internal/store/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummary(t *testing.T) {
	ctx := context.Background()
	products := memory.NewProducts()
	orders := memory.NewOrders()

	require.NoError(t, products.Create(ctx, &models.Product{Name: "a"}))
	require.NoError(t, products.Create(ctx, &models.Product{Name: "b"}))

	for _, o := range []*models.Order{
		{Status: models.OrderStatusPending, TotalAmount: decimal.NewFromInt(100)},
		{Status: models.OrderStatusPending, TotalAmount: decimal.NewFromInt(50)},
		{Status: models.OrderStatusApproved, TotalAmount: decimal.RequireFromString("20.25")},
		{Status: models.OrderStatusCancelled, TotalAmount: decimal.NewFromInt(5)},
	} {
		require.NoError(t, orders.Create(ctx, o))
	}

	sum, err := NewService(products, orders).Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), sum.TotalProducts)
	assert.Equal(t, int64(4), sum.TotalOrders)
	assert.True(t, sum.TotalRevenue.Equal(decimal.RequireFromString("175.25")), sum.TotalRevenue.String())
	assert.Equal(t, int64(2), sum.PendingOrders)
	assert.True(t, sum.PendingRevenue.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, int64(1), sum.ApprovedOrders)
	assert.True(t, sum.ApprovedRevenue.Equal(decimal.RequireFromString("20.25")))
	assert.Equal(t, int64(1), sum.CancelledOrders)
}

func TestSummaryEmpty(t *testing.T) {
	sum, err := NewService(memory.NewProducts(), memory.NewOrders()).Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.TotalOrders)
	assert.True(t, sum.TotalRevenue.IsZero())
}

type brokenCounter struct{}

func (brokenCounter) Count(context.Context) (int64, error) { return 0, errors.New("db down") }

func TestSummaryPropagatesErrors(t *testing.T) {
	_, err := NewService(brokenCounter{}, memory.NewOrders()).Summary(context.Background())
	assert.EqualError(t, err, "db down")
}
