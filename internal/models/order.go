package models

import "time"

// OrderStatus tracks an order through production.
type OrderStatus string

const (
	OrderPending      OrderStatus = "pending"
	OrderInProduction OrderStatus = "in_production"
	OrderShipped      OrderStatus = "shipped"
	OrderCancelled    OrderStatus = "cancelled"
)

// Order is a placed school-merchandise order.
type Order struct {
	ID            string      `json:"id" db:"id"`
	OrderNumber   string      `json:"order_number" db:"order_number"`
	SchoolName    string      `json:"school_name" db:"school_name"`
	ContactName   string      `json:"contact_name" db:"contact_name"`
	ContactEmail  string      `json:"contact_email" db:"contact_email"`
	Status        OrderStatus `json:"status" db:"status"`
	SubtotalCents int64       `json:"subtotal_cents" db:"subtotal_cents"`
	TotalCents    int64       `json:"total_cents" db:"total_cents"`
	Notes         string      `json:"notes" db:"notes"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`

	Items []OrderItem `json:"items,omitempty"`
}

// OrderItem is one product line on an order. SelectedOptions holds the
// customer's option choices serialized as a tagged-union JSON document.
type OrderItem struct {
	ID              string `json:"id" db:"id"`
	OrderID         string `json:"order_id" db:"order_id"`
	ProductID       string `json:"product_id" db:"product_id"`
	ProductName     string `json:"product_name" db:"product_name"`
	Quantity        int    `json:"quantity" db:"quantity"`
	UnitPriceCents  int64  `json:"unit_price_cents" db:"unit_price_cents"`
	SelectedOptions string `json:"selected_options,omitempty" db:"selected_options"`
}

// ValidTransition reports whether an order may move from its current status
// to the requested one.
func (o *Order) ValidTransition(next OrderStatus) bool {
	switch o.Status {
	case OrderPending:
		return next == OrderInProduction || next == OrderCancelled
	case OrderInProduction:
		return next == OrderShipped || next == OrderCancelled
	default:
		return false
	}
}
