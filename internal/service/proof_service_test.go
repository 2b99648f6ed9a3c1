package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiritgear-io/spiritgear/internal/comms"
	"github.com/spiritgear-io/spiritgear/internal/database"
	"github.com/spiritgear-io/spiritgear/internal/mail/outbound"
	"github.com/spiritgear-io/spiritgear/internal/models"
	"github.com/spiritgear-io/spiritgear/internal/repository"
)

type captureMailer struct {
	sent []*outbound.Message
}

func (m *captureMailer) Send(_ context.Context, msg *outbound.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func serviceTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedTestOrder(t *testing.T, db *sqlx.DB) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:           uuid.NewString(),
		OrderNumber:  "SG-260831-TEST01",
		SchoolName:   "Lincoln High",
		ContactName:  "Dana Reyes",
		ContactEmail: "dana@example.com",
		Status:       models.OrderPending,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repository.NewOrderRepository(db).Create(context.Background(), order))
	return order
}

func newProofFixture(t *testing.T) (*ProofService, *captureMailer, *models.Order) {
	t.Helper()
	db := serviceTestDB(t)
	order := seedTestOrder(t, db)

	storage, err := NewLocalStorageService(t.TempDir())
	require.NoError(t, err)

	mailer := &captureMailer{}
	sender := comms.NewSender(repository.NewCommunicationRepository(db), mailer, "mail.spiritgear.example", nil)
	orders := NewOrderService(repository.NewOrderRepository(db), repository.NewProductRepository(db))

	svc := NewProofService(repository.NewProofRepository(db), orders, storage, sender)
	return svc, mailer, order
}

func TestCreateProofStoresFileAndAssignsVersion(t *testing.T) {
	svc, _, order := newProofFixture(t)
	ctx := context.Background()

	first, err := svc.CreateProof(ctx, order.ID, "hoodie front.pdf", "application/pdf", []byte("%PDF-1.4 v1"))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, models.ProofDraft, first.Status)
	assert.Equal(t, int64(len("%PDF-1.4 v1")), first.SizeBytes)

	second, err := svc.CreateProof(ctx, order.ID, "hoodie front.pdf", "application/pdf", []byte("%PDF-1.4 v2"))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	assert.NotEqual(t, first.StoragePath, second.StoragePath)

	rc, err := svc.storage.Open(ctx, second.StoragePath)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 v2", string(data))
}

func TestCreateProofRejectsEmptyFile(t *testing.T) {
	svc, _, order := newProofFixture(t)
	_, err := svc.CreateProof(context.Background(), order.ID, "empty.pdf", "", nil)
	assert.Error(t, err)
}

func TestCreateProofUnknownOrder(t *testing.T) {
	svc, _, _ := newProofFixture(t)
	_, err := svc.CreateProof(context.Background(), uuid.NewString(), "p.pdf", "", []byte("x"))
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestSendProofEmailsCustomerWithReplyToken(t *testing.T) {
	svc, mailer, order := newProofFixture(t)
	ctx := context.Background()

	proof, err := svc.CreateProof(ctx, order.ID, "p.pdf", "", []byte("x"))
	require.NoError(t, err)

	sent, err := svc.SendProof(ctx, proof.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.ProofSent, sent.Status)
	require.NotNil(t, sent.SentAt)

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, []string{order.ContactEmail}, msg.To)
	assert.Contains(t, msg.ReplyTo, "order-")
	assert.Contains(t, msg.ReplyTo, "@mail.spiritgear.example")
	assert.Contains(t, msg.Subject, order.OrderNumber)
	assert.Contains(t, msg.Body, "Proof v1")

	// Sending again while awaiting review is rejected.
	_, err = svc.SendProof(ctx, proof.ID, "admin-1")
	assert.Error(t, err)
}

func TestResolveProof(t *testing.T) {
	svc, _, order := newProofFixture(t)
	ctx := context.Background()

	proof, err := svc.CreateProof(ctx, order.ID, "p.pdf", "", []byte("x"))
	require.NoError(t, err)

	// Cannot resolve a draft.
	_, err = svc.Resolve(ctx, proof.ID, true)
	assert.Error(t, err)

	_, err = svc.SendProof(ctx, proof.ID, "admin-1")
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, proof.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.ProofChangesRequested, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	// A changes-requested proof can be re-sent after revision.
	again, err := svc.SendProof(ctx, proof.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.ProofSent, again.Status)

	approved, err := svc.Resolve(ctx, proof.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.ProofApproved, approved.Status)
}

func TestAnnotateProof(t *testing.T) {
	svc, _, order := newProofFixture(t)
	ctx := context.Background()

	proof, err := svc.CreateProof(ctx, order.ID, "p.pdf", "", []byte("x"))
	require.NoError(t, err)

	_, err = svc.Annotate(ctx, proof.ID, "dana@example.com", 0.25, 0.5, "")
	assert.Error(t, err)

	ann, err := svc.Annotate(ctx, proof.ID, "dana@example.com", 0.25, 0.5, "Logo looks stretched here")
	require.NoError(t, err)
	assert.Equal(t, proof.ID, ann.ProofID)

	loaded, err := svc.GetProof(ctx, proof.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Annotations, 1)
	assert.True(t, strings.Contains(loaded.Annotations[0].Note, "stretched"))
}
