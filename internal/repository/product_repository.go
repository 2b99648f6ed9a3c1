package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/spiritgear-io/spiritgear/internal/models"
)

// ProductRepository handles database operations for catalog products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a product.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (
			id, slug, name, description, category, base_price_cents,
			active, options, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Slug, p.Name, p.Description, p.Category, p.BasePriceCents,
		p.Active, p.Options, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID returns one product.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := r.db.GetContext(ctx, &p, `SELECT * FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetBySlug returns one product by its catalog slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var p models.Product
	err := r.db.GetContext(ctx, &p, `SELECT * FROM products WHERE slug = ?`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product by slug: %w", err)
	}
	return &p, nil
}

// List returns products, optionally only active ones.
func (r *ProductRepository) List(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	var products []models.Product
	query := `SELECT * FROM products ORDER BY category ASC, name ASC`
	if activeOnly {
		query = `SELECT * FROM products WHERE active = 1 ORDER BY category ASC, name ASC`
	}
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Update rewrites a product's mutable fields.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET
			slug = ?, name = ?, description = ?, category = ?,
			base_price_cents = ?, active = ?, options = ?, updated_at = ?
		WHERE id = ?`,
		p.Slug, p.Name, p.Description, p.Category,
		p.BasePriceCents, p.Active, p.Options, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Delete removes a product from the catalog.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}
