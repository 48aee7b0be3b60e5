// Package catalog manages the product collection shown on the dashboard.
package catalog

import (
	"context"
	"strings"

	"github.com/safar/store-admin/internal/models"
	"github.com/safar/store-admin/internal/store"
	"github.com/safar/store-admin/internal/validation"
	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	Get(ctx context.Context, id string) (*models.Product, error)
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page, pageSize int) (*store.OffsetPage, error)
}

type ProductInput struct {
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description" validate:"required"`
	Price       decimal.Decimal  `json:"price"`
	Images      []string         `json:"images" validate:"dive,required,url"`
	Quantity    int              `json:"quantity" validate:"gte=0"`
	Variants    []models.Variant `json:"variants" validate:"dive"`
}

func (in *ProductInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	for i := range in.Images {
		in.Images[i] = strings.TrimSpace(in.Images[i])
	}
}

func (in ProductInput) validate() error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if !in.Price.IsPositive() {
		return validation.Field("price", "price must be a positive number")
	}
	if len(in.Images) == 0 {
		return validation.Field("images", "at least one product image is required")
	}
	return nil
}

type Service struct {
	products ProductStore
}

func NewService(products ProductStore) *Service {
	return &Service{products: products}
}

func (s *Service) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Images:      in.Images,
		Quantity:    in.Quantity,
		Variants:    in.Variants,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.products.Get(ctx, id)
}

// List clamps page to >= 1 and pageSize to [1, MaxPageSize].
func (s *Service) List(ctx context.Context, page, pageSize int) (*store.OffsetPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return s.products.List(ctx, page, pageSize)
}

// Update replaces every editable field of product id.
func (s *Service) Update(ctx context.Context, id string, in ProductInput) (*models.Product, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &models.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Images:      in.Images,
		Quantity:    in.Quantity,
		Variants:    in.Variants,
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}
