package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/spiritgear-io/spiritgear/internal/comms"
	"github.com/spiritgear-io/spiritgear/internal/mail/inbound"
	"github.com/spiritgear-io/spiritgear/internal/models"
	"github.com/spiritgear-io/spiritgear/internal/repository"
)

// ProofService runs the proofing workflow: upload a versioned proof, send it
// to the customer for review, collect annotations, resolve.
type ProofService struct {
	proofs  *repository.ProofRepository
	orders  *OrderService
	storage StorageService
	sender  *comms.Sender
	now     func() time.Time
}

// NewProofService wires the proofing workflow together.
func NewProofService(proofs *repository.ProofRepository, orders *OrderService, storage StorageService, sender *comms.Sender) *ProofService {
	return &ProofService{
		proofs:  proofs,
		orders:  orders,
		storage: storage,
		sender:  sender,
		now:     time.Now,
	}
}

// CreateProof stores the uploaded file and records the next proof version
// for the order.
func (s *ProofService) CreateProof(ctx context.Context, orderID, filename, mimeType string, data []byte) (*models.Proof, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("proof file is empty")
	}
	version, err := s.proofs.NextVersion(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	stored := inbound.GenerateFilename(filename)
	storagePath := path.Join("proofs", order.ID, stored)
	if err := s.storage.Write(ctx, storagePath, data); err != nil {
		return nil, fmt.Errorf("store proof: %w", err)
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	proof := &models.Proof{
		ID:          uuid.NewString(),
		OrderID:     order.ID,
		Version:     version,
		Status:      models.ProofDraft,
		Filename:    stored,
		StoragePath: storagePath,
		MimeType:    mimeType,
		SizeBytes:   int64(len(data)),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.proofs.Create(ctx, proof); err != nil {
		return nil, err
	}
	return proof, nil
}

// SendProof emails the customer that a proof is ready and marks it sent.
// The outbound message carries the order's reply token, so the customer's
// emailed feedback threads back onto the order.
func (s *ProofService) SendProof(ctx context.Context, proofID, adminID string) (*models.Proof, error) {
	proof, err := s.proofs.GetByID(ctx, proofID)
	if err != nil {
		return nil, err
	}
	if proof.Status != models.ProofDraft && proof.Status != models.ProofChangesRequested {
		return nil, fmt.Errorf("proof v%d is already %s", proof.Version, proof.Status)
	}
	order, err := s.orders.GetOrder(ctx, proof.OrderID)
	if err != nil {
		return nil, err
	}
	subject := fmt.Sprintf("Proof v%d for order %s is ready for review", proof.Version, order.OrderNumber)
	body := fmt.Sprintf(
		"Hi %s,\n\nProof v%d for order %s is ready. Reply to this email with your feedback, or approve it from your order page.\n\nThanks,\nThe Spiritgear team",
		order.ContactName, proof.Version, order.OrderNumber)
	if _, err := s.sender.Send(ctx, comms.SendInput{
		Order:   order,
		AdminID: adminID,
		Subject: subject,
		Body:    body,
	}); err != nil {
		return nil, err
	}
	sentAt := s.now().UTC()
	if err := s.proofs.SetStatus(ctx, proof.ID, models.ProofSent, sentAt); err != nil {
		return nil, err
	}
	proof.Status = models.ProofSent
	proof.SentAt = &sentAt
	return proof, nil
}

// Resolve records the customer's verdict on a sent proof.
func (s *ProofService) Resolve(ctx context.Context, proofID string, approved bool) (*models.Proof, error) {
	proof, err := s.proofs.GetByID(ctx, proofID)
	if err != nil {
		return nil, err
	}
	if proof.Status != models.ProofSent {
		return nil, fmt.Errorf("proof v%d is %s, not awaiting review", proof.Version, proof.Status)
	}
	status := models.ProofChangesRequested
	if approved {
		status = models.ProofApproved
	}
	resolvedAt := s.now().UTC()
	if err := s.proofs.SetStatus(ctx, proof.ID, status, resolvedAt); err != nil {
		return nil, err
	}
	proof.Status = status
	proof.ResolvedAt = &resolvedAt
	return proof, nil
}

// Annotate attaches a positioned note to a proof.
func (s *ProofService) Annotate(ctx context.Context, proofID, author string, x, y float64, note string) (*models.ProofAnnotation, error) {
	if _, err := s.proofs.GetByID(ctx, proofID); err != nil {
		return nil, err
	}
	if note == "" {
		return nil, fmt.Errorf("annotation note is required")
	}
	ann := &models.ProofAnnotation{
		ID:        uuid.NewString(),
		ProofID:   proofID,
		Author:    author,
		X:         x,
		Y:         y,
		Note:      note,
		CreatedAt: s.now().UTC(),
	}
	if err := s.proofs.AddAnnotation(ctx, ann); err != nil {
		return nil, err
	}
	return ann, nil
}

// GetProof returns one proof with annotations.
func (s *ProofService) GetProof(ctx context.Context, id string) (*models.Proof, error) {
	return s.proofs.GetByID(ctx, id)
}

// ListProofs returns an order's proofs.
func (s *ProofService) ListProofs(ctx context.Context, orderID string) ([]models.Proof, error) {
	return s.proofs.ListByOrder(ctx, orderID)
}
