package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spiritgear-io/spiritgear/internal/models"
	"github.com/spiritgear-io/spiritgear/internal/options"
	"github.com/spiritgear-io/spiritgear/internal/repository"
)

// CatalogService manages the product catalog.
type CatalogService struct {
	products *repository.ProductRepository
	now      func() time.Time
}

// NewCatalogService creates a catalog service over the product repository.
func NewCatalogService(products *repository.ProductRepository) *CatalogService {
	return &CatalogService{products: products, now: time.Now}
}

// ProductInput is the mutable surface of a product.
type ProductInput struct {
	Slug           string `json:"slug"`
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	BasePriceCents int64  `json:"base_price_cents"`
	Active         *bool  `json:"active"`
	// Options is a tagged-union option document; see internal/options.
	Options string `json:"options"`
}

// CreateProduct validates input and inserts a product.
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("product name is required")
	}
	opts, err := s.normalizeOptions(in.Options)
	if err != nil {
		return nil, err
	}
	slug := in.Slug
	if slug == "" {
		slug = Slugify(in.Name)
	}
	now := s.now().UTC()
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	p := &models.Product{
		ID:             uuid.NewString(),
		Slug:           slug,
		Name:           in.Name,
		Description:    in.Description,
		Category:       in.Category,
		BasePriceCents: in.BasePriceCents,
		Active:         active,
		Options:        opts,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProduct rewrites a product's mutable fields.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	opts, err := s.normalizeOptions(in.Options)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		p.Name = in.Name
	}
	if in.Slug != "" {
		p.Slug = in.Slug
	}
	p.Description = in.Description
	if in.Category != "" {
		p.Category = in.Category
	}
	if in.BasePriceCents > 0 {
		p.BasePriceCents = in.BasePriceCents
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	p.Options = opts
	p.UpdatedAt = s.now().UTC()
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProduct returns one product.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.products.GetByID(ctx, id)
}

// ListProducts returns the catalog.
func (s *CatalogService) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	return s.products.List(ctx, activeOnly)
}

// DeleteProduct removes a product.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}

// normalizeOptions round-trips the option document through the tagged-union
// parser so malformed or unknown categories are rejected on write.
func (s *CatalogService) normalizeOptions(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "[]", nil
	}
	parsed, err := options.ParseList(raw)
	if err != nil {
		return "", fmt.Errorf("invalid product options: %w", err)
	}
	return options.MarshalList(parsed)
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a product name to a URL slug.
func Slugify(name string) string {
	slug := slugUnsafe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
