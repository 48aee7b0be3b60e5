package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusApproved, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition is defined out of s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusApproved || s == OrderStatusCancelled
}

type Variant struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value" validate:"required"`
}

type LineItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	FinalPrice  decimal.Decimal `json:"final_price"`
	Variant     *Variant        `json:"selected_variant,omitempty"`
}

type CustomerDetails struct {
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name,omitempty"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
}

type Order struct {
	ID              string          `json:"id"`
	Status          OrderStatus     `json:"status"`
	Items           []LineItem      `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Notes           string          `json:"notes,omitempty"`
	CustomerDetails CustomerDetails `json:"customer_details"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	ApprovedBy      string          `json:"approved_by,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = make([]LineItem, len(o.Items))
	for i, item := range o.Items {
		c.Items[i] = item
		if item.Variant != nil {
			v := *item.Variant
			c.Items[i].Variant = &v
		}
	}
	if o.ApprovedAt != nil {
		t := *o.ApprovedAt
		c.ApprovedAt = &t
	}
	if o.CancelledAt != nil {
		t := *o.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images"`
	Quantity    int             `json:"quantity"`
	Variants    []Variant       `json:"variants"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p *Product) Clone() *Product {
	c := *p
	c.Images = append([]string(nil), p.Images...)
	c.Variants = append([]Variant(nil), p.Variants...)
	return &c
}

// Update is a system-update announcement shown on the dashboard.
type Update struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Admin struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// OrderTotals aggregates the orders sharing one status.
type OrderTotals struct {
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}
