package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/safar/store-admin/internal/database"
	"github.com/safar/store-admin/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Products is the PostgreSQL-backed products collection. It is also the
// inventory ledger: stock changes go through DecrementStock and RestoreStock.
type Products struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewProducts(db *sql.DB) *Products {
	return &Products{db: db, tracer: otel.Tracer("store/products")}
}

const productColumns = `id, name, description, price, images, quantity, variants, created_at, updated_at`

func (s *Products) Create(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	variants, err := encodeVariants(p.Variants)
	if err != nil {
		return err
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO products (id, name, description, price, images, quantity, variants, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Description, p.Price, pq.Array(p.Images), p.Quantity, variants,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	return nil
}

func (s *Products) Get(ctx context.Context, id string) (*models.Product, error) {
	product, err := scanProduct(s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

// Update replaces the editable fields of an existing product.
func (s *Products) Update(ctx context.Context, p *models.Product) error {
	variants, err := encodeVariants(p.Variants)
	if err != nil {
		return err
	}

	err = s.db.QueryRowContext(ctx,
		`UPDATE products
		 SET name = $1, description = $2, price = $3, images = $4, quantity = $5, variants = $6, updated_at = NOW()
		 WHERE id = $7
		 RETURNING created_at, updated_at`,
		p.Name, p.Description, p.Price, pq.Array(p.Images), p.Quantity, variants, p.ID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.ErrProductNotFound
		}
		return fmt.Errorf("update product: %w", err)
	}

	return nil
}

func (s *Products) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

func (s *Products) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

func (s *Products) List(ctx context.Context, page, pageSize int) (*OffsetPage, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}

	offset := (page - 1) * pageSize
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+`
		 FROM products
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1 OFFSET $2`,
		pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &OffsetPage{
		Items:      products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: TotalPages(total, pageSize),
	}, nil
}

// DecrementStock removes up to amount units and returns how many were
// actually removed; stock never drops below zero. The row is locked for the
// read and the write so concurrent approvals cannot lose updates.
func (s *Products) DecrementStock(ctx context.Context, id string, amount int) (int, error) {
	ctx, span := s.tracer.Start(ctx, "Products.DecrementStock")
	defer span.End()
	span.SetAttributes(attribute.String("product_id", id), attribute.Int("amount", amount))

	if amount <= 0 {
		return 0, database.ErrInvalidQuantity
	}

	var applied int
	err := database.WithRetry(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var current int
		err := tx.QueryRowContext(ctx,
			`SELECT quantity FROM products WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return database.ErrProductNotFound
			}
			return fmt.Errorf("lock product: %w", err)
		}

		next := max(0, current-amount)
		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET quantity = $1, updated_at = NOW() WHERE id = $2`,
			next, id); err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}

		applied = current - next
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	return applied, nil
}

func (s *Products) RestoreStock(ctx context.Context, id string, amount int) error {
	ctx, span := s.tracer.Start(ctx, "Products.RestoreStock")
	defer span.End()
	span.SetAttributes(attribute.String("product_id", id), attribute.Int("amount", amount))

	if amount <= 0 {
		return database.ErrInvalidQuantity
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE products SET quantity = quantity + $1, updated_at = NOW() WHERE id = $2`,
		amount, id)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

func encodeVariants(variants []models.Variant) ([]byte, error) {
	if variants == nil {
		variants = []models.Variant{}
	}
	data, err := json.Marshal(variants)
	if err != nil {
		return nil, fmt.Errorf("encode variants: %w", err)
	}
	return data, nil
}

func scanProduct(row rowScanner) (*models.Product, error) {
	product := &models.Product{}
	var variants []byte

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		pq.Array(&product.Images),
		&product.Quantity,
		&variants,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if product.Images == nil {
		product.Images = []string{}
	}
	if err := json.Unmarshal(variants, &product.Variants); err != nil {
		return nil, fmt.Errorf("decode variants: %w", err)
	}

	return product, nil
}
