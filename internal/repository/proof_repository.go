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

// ProofRepository handles database operations for design proofs and their
// annotations.
type ProofRepository struct {
	db *sqlx.DB
}

// NewProofRepository creates a new proof repository.
func NewProofRepository(db *sqlx.DB) *ProofRepository {
	return &ProofRepository{db: db}
}

// Create inserts a proof.
func (r *ProofRepository) Create(ctx context.Context, p *models.Proof) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO proofs (
			id, order_id, version, status, filename, storage_path,
			mime_type, size_bytes, sent_at, resolved_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OrderID, p.Version, p.Status, p.Filename, p.StoragePath,
		p.MimeType, p.SizeBytes, p.SentAt, p.ResolvedAt, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert proof: %w", err)
	}
	return nil
}

// GetByID returns one proof with its annotations.
func (r *ProofRepository) GetByID(ctx context.Context, id string) (*models.Proof, error) {
	var p models.Proof
	err := r.db.GetContext(ctx, &p, `SELECT * FROM proofs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProofNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get proof: %w", err)
	}
	err = r.db.SelectContext(ctx, &p.Annotations, `
		SELECT * FROM proof_annotations
		WHERE proof_id = ? ORDER BY created_at ASC, id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("load annotations: %w", err)
	}
	return &p, nil
}

// ListByOrder returns an order's proofs, newest version first.
func (r *ProofRepository) ListByOrder(ctx context.Context, orderID string) ([]models.Proof, error) {
	var proofs []models.Proof
	err := r.db.SelectContext(ctx, &proofs, `
		SELECT * FROM proofs WHERE order_id = ? ORDER BY version DESC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list proofs: %w", err)
	}
	return proofs, nil
}

// NextVersion returns the next proof version number for an order.
func (r *ProofRepository) NextVersion(ctx context.Context, orderID string) (int, error) {
	var max sql.NullInt64
	err := r.db.GetContext(ctx, &max,
		`SELECT MAX(version) FROM proofs WHERE order_id = ?`, orderID)
	if err != nil {
		return 0, fmt.Errorf("next version: %w", err)
	}
	return int(max.Int64) + 1, nil
}

// SetStatus moves a proof to a new review status, stamping the matching
// lifecycle timestamp.
func (r *ProofRepository) SetStatus(ctx context.Context, id string, status models.ProofStatus, at time.Time) error {
	var res sql.Result
	var err error
	switch status {
	case models.ProofSent:
		res, err = r.db.ExecContext(ctx,
			`UPDATE proofs SET status = ?, sent_at = ? WHERE id = ?`, status, at, id)
	case models.ProofApproved, models.ProofChangesRequested:
		res, err = r.db.ExecContext(ctx,
			`UPDATE proofs SET status = ?, resolved_at = ? WHERE id = ?`, status, at, id)
	default:
		res, err = r.db.ExecContext(ctx,
			`UPDATE proofs SET status = ? WHERE id = ?`, status, id)
	}
	if err != nil {
		return fmt.Errorf("set proof status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProofNotFound
	}
	return nil
}

// AddAnnotation attaches a review note to a proof.
func (r *ProofRepository) AddAnnotation(ctx context.Context, ann *models.ProofAnnotation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO proof_annotations (id, proof_id, author, x, y, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ann.ID, ann.ProofID, ann.Author, ann.X, ann.Y, ann.Note, ann.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert annotation: %w", err)
	}
	return nil
}

// AverageTurnaroundHours reports the mean hours between sending a proof and
// its resolution, for resolved proofs only.
func (r *ProofRepository) AverageTurnaroundHours(ctx context.Context) (float64, error) {
	var hours sql.NullFloat64
	err := r.db.GetContext(ctx, &hours, `
		SELECT AVG((julianday(resolved_at) - julianday(sent_at)) * 24.0)
		FROM proofs WHERE sent_at IS NOT NULL AND resolved_at IS NOT NULL`)
	if err != nil {
		return 0, fmt.Errorf("proof turnaround: %w", err)
	}
	return hours.Float64, nil
}
