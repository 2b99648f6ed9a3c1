package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spiritgear-io/spiritgear/internal/models"
	"github.com/spiritgear-io/spiritgear/internal/repository"
)

// OrderService handles cart checkout and order lifecycle.
type OrderService struct {
	orders   *repository.OrderRepository
	products *repository.ProductRepository
	now      func() time.Time
}

// NewOrderService creates an order service.
func NewOrderService(orders *repository.OrderRepository, products *repository.ProductRepository) *OrderService {
	return &OrderService{orders: orders, products: products, now: time.Now}
}

// CheckoutItem is one cart line at checkout.
type CheckoutItem struct {
	ProductID       string `json:"product_id" binding:"required"`
	Quantity        int    `json:"quantity" binding:"required"`
	SelectedOptions string `json:"selected_options"`
}

// CheckoutInput is a submitted cart.
type CheckoutInput struct {
	SchoolName   string         `json:"school_name"`
	ContactName  string         `json:"contact_name"`
	ContactEmail string         `json:"contact_email" binding:"required,email"`
	Notes        string         `json:"notes"`
	Items        []CheckoutItem `json:"items" binding:"required"`
}

// Checkout validates the cart against the catalog, prices it server-side,
// and creates the order.
func (s *OrderService) Checkout(ctx context.Context, in CheckoutInput) (*models.Order, error) {
	if strings.TrimSpace(in.ContactEmail) == "" {
		return nil, fmt.Errorf("contact email is required")
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("cart is empty")
	}

	now := s.now().UTC()
	order := &models.Order{
		ID:           uuid.NewString(),
		SchoolName:   in.SchoolName,
		ContactName:  in.ContactName,
		ContactEmail: strings.TrimSpace(in.ContactEmail),
		Status:       models.OrderPending,
		Notes:        in.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	order.OrderNumber = nextOrderNumber(now)

	var subtotal int64
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive for product %s", item.ProductID)
		}
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, err)
		}
		if !product.Active {
			return nil, fmt.Errorf("product %s is not available", product.Name)
		}
		selected := item.SelectedOptions
		if strings.TrimSpace(selected) == "" {
			selected = "[]"
		}
		order.Items = append(order.Items, models.OrderItem{
			ID:              uuid.NewString(),
			ProductID:       product.ID,
			ProductName:     product.Name,
			Quantity:        item.Quantity,
			UnitPriceCents:  product.BasePriceCents,
			SelectedOptions: selected,
		})
		subtotal += product.BasePriceCents * int64(item.Quantity)
	}
	order.SubtotalCents = subtotal
	order.TotalCents = subtotal

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder returns an order or repository.ErrOrderNotFound.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

// ListOrders returns a page of orders.
func (s *OrderService) ListOrders(ctx context.Context, status models.OrderStatus, limit, offset int) ([]models.Order, error) {
	return s.orders.List(ctx, status, limit, offset)
}

// UpdateStatus enforces the order state machine before persisting the move.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, next models.OrderStatus) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.ValidTransition(next) {
		return nil, fmt.Errorf("cannot move order from %s to %s", order.Status, next)
	}
	if err := s.orders.UpdateStatus(ctx, id, next, s.now().UTC()); err != nil {
		return nil, err
	}
	order.Status = next
	return order, nil
}

// DeleteOrder removes an order and everything hanging off it.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	return s.orders.Delete(ctx, id)
}

// nextOrderNumber derives a human-readable order number. Uniqueness comes
// from the random suffix; the date prefix is for staff eyes.
func nextOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("SG-%s-%s", now.Format("060102"), suffix)
}
