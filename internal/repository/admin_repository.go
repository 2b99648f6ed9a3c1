package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/spiritgear-io/spiritgear/internal/models"
)

// AdminRepository handles database operations for staff accounts.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new admin repository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// Create inserts an admin account.
func (r *AdminRepository) Create(ctx context.Context, admin *models.AdminUser) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_users (id, email, name, password_hash, role, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		admin.ID, admin.Email, admin.Name, admin.PasswordHash,
		admin.Role, admin.Active, admin.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

// GetByEmail returns the admin account for a login email.
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := r.db.GetContext(ctx, &admin, `SELECT * FROM admin_users WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &admin, nil
}

// GetByID returns one admin account.
func (r *AdminRepository) GetByID(ctx context.Context, id string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := r.db.GetContext(ctx, &admin, `SELECT * FROM admin_users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &admin, nil
}
