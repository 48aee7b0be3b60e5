// Package checkout records new pending orders, pricing each line from the
// current catalog.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/safar/store-admin/internal/database"
	"github.com/safar/store-admin/internal/models"
	"github.com/safar/store-admin/internal/validation"
	"github.com/shopspring/decimal"
)

type ProductReader interface {
	Get(ctx context.Context, id string) (*models.Product, error)
}

type OrderWriter interface {
	Create(ctx context.Context, o *models.Order) error
}

type ItemInput struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	Variant   *models.Variant `json:"selected_variant"`
}

type CustomerInput struct {
	FullName    string `json:"full_name" validate:"required"`
	CompanyName string `json:"company_name"`
	Phone       string `json:"phone" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Address     string `json:"address" validate:"required"`
}

type OrderInput struct {
	Items    []ItemInput   `json:"items" validate:"required,min=1,dive"`
	Customer CustomerInput `json:"customer_details"`
	Notes    string        `json:"notes" validate:"max=2000"`
}

type Service struct {
	products ProductReader
	orders   OrderWriter
}

func NewService(products ProductReader, orders OrderWriter) *Service {
	return &Service{products: products, orders: orders}
}

// Place prices every line at the product's current price and stores a pending
// order. Stock is only reserved once the order is approved.
func (s *Service) Place(ctx context.Context, in OrderInput) (*models.Order, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	order := &models.Order{
		Status:      models.OrderStatusPending,
		Items:       make([]models.LineItem, 0, len(in.Items)),
		TotalAmount: decimal.Zero,
		Notes:       strings.TrimSpace(in.Notes),
		CustomerDetails: models.CustomerDetails{
			FullName:    in.Customer.FullName,
			CompanyName: in.Customer.CompanyName,
			Phone:       in.Customer.Phone,
			Email:       in.Customer.Email,
			Address:     in.Customer.Address,
		},
	}

	for i, item := range in.Items {
		product, err := s.products.Get(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, database.ErrProductNotFound) {
				field := fmt.Sprintf("items[%d].product_id", i)
				return nil, validation.Field(field, fmt.Sprintf("product %s does not exist", item.ProductID))
			}
			return nil, err
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		order.Items = append(order.Items, models.LineItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
			FinalPrice:  lineTotal,
			Variant:     item.Variant,
		})
		order.TotalAmount = order.TotalAmount.Add(lineTotal)
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}
