package models

import "time"

// Product is a catalog item schools can order.
type Product struct {
	ID             string    `json:"id" db:"id"`
	Slug           string    `json:"slug" db:"slug"`
	Name           string    `json:"name" db:"name"`
	Description    string    `json:"description" db:"description"`
	Category       string    `json:"category" db:"category"`
	BasePriceCents int64     `json:"base_price_cents" db:"base_price_cents"`
	Active         bool      `json:"active" db:"active"`
	// Options holds the product's configurable option sets serialized as a
	// tagged-union JSON array; see internal/options.
	Options   string    `json:"options,omitempty" db:"options"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
