package models

import "time"

// ProofStatus tracks a design proof through customer review.
type ProofStatus string

const (
	ProofDraft            ProofStatus = "draft"
	ProofSent             ProofStatus = "sent"
	ProofApproved         ProofStatus = "approved"
	ProofChangesRequested ProofStatus = "changes_requested"
)

// Proof is one versioned design proof attached to an order.
type Proof struct {
	ID          string      `json:"id" db:"id"`
	OrderID     string      `json:"order_id" db:"order_id"`
	Version     int         `json:"version" db:"version"`
	Status      ProofStatus `json:"status" db:"status"`
	Filename    string      `json:"filename" db:"filename"`
	StoragePath string      `json:"storage_path" db:"storage_path"`
	MimeType    string      `json:"mime_type" db:"mime_type"`
	SizeBytes   int64       `json:"size_bytes" db:"size_bytes"`
	SentAt      *time.Time  `json:"sent_at,omitempty" db:"sent_at"`
	ResolvedAt  *time.Time  `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`

	Annotations []ProofAnnotation `json:"annotations,omitempty"`
}

// ProofAnnotation is a positioned review note on a proof.
type ProofAnnotation struct {
	ID        string    `json:"id" db:"id"`
	ProofID   string    `json:"proof_id" db:"proof_id"`
	Author    string    `json:"author" db:"author"`
	X         float64   `json:"x" db:"x"`
	Y         float64   `json:"y" db:"y"`
	Note      string    `json:"note" db:"note"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
