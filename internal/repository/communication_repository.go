package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/spiritgear-io/spiritgear/internal/models"
)

// CommunicationRepository handles database operations for order
// communications and their attachments.
type CommunicationRepository struct {
	db *sqlx.DB
}

// NewCommunicationRepository creates a new communication repository.
func NewCommunicationRepository(db *sqlx.DB) *CommunicationRepository {
	return &CommunicationRepository{db: db}
}

// Create inserts a communication and its attachment rows in one transaction.
func (r *CommunicationRepository) Create(ctx context.Context, comm *models.OrderCommunication) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_communications (
			id, order_id, admin_id, direction, sender_email, recipient_email,
			subject, body, reply_to_token, message_id, read_by_admin, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		comm.ID, comm.OrderID, comm.AdminID, comm.Direction,
		comm.SenderEmail, comm.RecipientEmail, comm.Subject, comm.Body,
		comm.ReplyToToken, comm.MessageID, comm.ReadByAdmin, comm.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert communication: %w", err)
	}
	for i := range comm.Attachments {
		att := &comm.Attachments[i]
		att.CommunicationID = comm.ID
		if att.CreatedAt.IsZero() {
			att.CreatedAt = comm.CreatedAt
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO communication_attachments (
				id, communication_id, filename, storage_path, mime_type, size_bytes, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			att.ID, att.CommunicationID, att.Filename, att.StoragePath,
			att.MimeType, att.SizeBytes, att.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert attachment %s: %w", att.Filename, err)
		}
	}
	return tx.Commit()
}

// FindLatestByReplyToken returns the most recent outbound communication
// carrying the token, or nil when the token is unknown.
func (r *CommunicationRepository) FindLatestByReplyToken(ctx context.Context, tok string) (*models.OrderCommunication, error) {
	var comm models.OrderCommunication
	err := r.db.GetContext(ctx, &comm, `
		SELECT * FROM order_communications
		WHERE reply_to_token = ? AND direction = ?
		ORDER BY created_at DESC LIMIT 1`,
		tok, models.CommunicationOutbound,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by token: %w", err)
	}
	return &comm, nil
}

// GetByID returns one communication with its attachments.
func (r *CommunicationRepository) GetByID(ctx context.Context, id string) (*models.OrderCommunication, error) {
	var comm models.OrderCommunication
	err := r.db.GetContext(ctx, &comm, `SELECT * FROM order_communications WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCommNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get communication: %w", err)
	}
	if err := r.loadAttachments(ctx, &comm); err != nil {
		return nil, err
	}
	return &comm, nil
}

// ListByOrder returns an order's thread oldest-first, attachments included.
func (r *CommunicationRepository) ListByOrder(ctx context.Context, orderID string) ([]models.OrderCommunication, error) {
	var comms []models.OrderCommunication
	err := r.db.SelectContext(ctx, &comms, `
		SELECT * FROM order_communications
		WHERE order_id = ? ORDER BY created_at ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list communications: %w", err)
	}
	for i := range comms {
		if err := r.loadAttachments(ctx, &comms[i]); err != nil {
			return nil, err
		}
	}
	return comms, nil
}

// MarkRead flips the admin-read flag on an inbound communication.
func (r *CommunicationRepository) MarkRead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE order_communications SET read_by_admin = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCommNotFound
	}
	return nil
}

// CountUnreadInbound reports inbound communications no admin has read yet.
func (r *CommunicationRepository) CountUnreadInbound(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM order_communications
		WHERE direction = ? AND read_by_admin = 0`,
		models.CommunicationInbound)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

// GetAttachment returns one attachment row by id.
func (r *CommunicationRepository) GetAttachment(ctx context.Context, id string) (*models.CommunicationAttachment, error) {
	var att models.CommunicationAttachment
	err := r.db.GetContext(ctx, &att, `SELECT * FROM communication_attachments WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCommNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get attachment: %w", err)
	}
	return &att, nil
}

func (r *CommunicationRepository) loadAttachments(ctx context.Context, comm *models.OrderCommunication) error {
	err := r.db.SelectContext(ctx, &comm.Attachments, `
		SELECT * FROM communication_attachments
		WHERE communication_id = ? ORDER BY created_at ASC, id ASC`, comm.ID)
	if err != nil {
		return fmt.Errorf("load attachments: %w", err)
	}
	return nil
}
