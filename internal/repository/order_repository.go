package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/spiritgear-io/spiritgear/internal/models"
)

// OrderRepository handles database operations for orders and their items.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts an order and its items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, order_number, school_name, contact_name, contact_email,
			status, subtotal_cents, total_cents, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.OrderNumber, order.SchoolName, order.ContactName,
		order.ContactEmail, order.Status, order.SubtotalCents, order.TotalCents,
		order.Notes, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id, product_id, product_name, quantity,
				unit_price_cents, selected_options
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.OrderID, item.ProductID, item.ProductName,
			item.Quantity, item.UnitPriceCents, item.SelectedOptions,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return tx.Commit()
}

// FindByID returns an order with its items, or nil when absent.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	err = r.db.SelectContext(ctx, &order.Items,
		`SELECT * FROM order_items WHERE order_id = ? ORDER BY id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	return &order, nil
}

// List returns orders newest-first, optionally filtered by status.
func (r *OrderRepository) List(ctx context.Context, status models.OrderStatus, limit, offset int) ([]models.Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var orders []models.Order
	var err error
	if status == "" {
		err = r.db.SelectContext(ctx, &orders, `
			SELECT * FROM orders ORDER BY created_at DESC LIMIT ? OFFSET ?`,
			limit, offset)
	} else {
		err = r.db.SelectContext(ctx, &orders, `
			SELECT * FROM orders WHERE status = ?
			ORDER BY created_at DESC LIMIT ? OFFSET ?`,
			status, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order to a new status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		status, updatedAt, id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Delete removes an order; communications, attachments, items, and proofs
// cascade at the schema level.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// CountByStatus groups order counts for the dashboard.
func (r *OrderRepository) CountByStatus(ctx context.Context) (map[models.OrderStatus]int, error) {
	rows := []struct {
		Status models.OrderStatus `db:"status"`
		Count  int                `db:"count"`
	}{}
	err := r.db.SelectContext(ctx, &rows,
		`SELECT status, COUNT(*) AS count FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	counts := make(map[models.OrderStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// RevenueByMonth sums non-cancelled order totals per calendar month.
func (r *OrderRepository) RevenueByMonth(ctx context.Context) ([]MonthlyRevenue, error) {
	var rows []MonthlyRevenue
	err := r.db.SelectContext(ctx, &rows, `
		SELECT strftime('%Y-%m', created_at) AS month,
		       SUM(total_cents) AS total_cents,
		       COUNT(*) AS orders
		FROM orders WHERE status != ?
		GROUP BY month ORDER BY month ASC`,
		models.OrderCancelled)
	if err != nil {
		return nil, fmt.Errorf("revenue by month: %w", err)
	}
	return rows, nil
}

// MonthlyRevenue is one dashboard revenue bucket.
type MonthlyRevenue struct {
	Month      string `db:"month" json:"month"`
	TotalCents int64  `db:"total_cents" json:"total_cents"`
	Orders     int    `db:"orders" json:"orders"`
}
