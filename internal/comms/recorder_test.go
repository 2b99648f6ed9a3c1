package comms

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiritgear-io/spiritgear/internal/mail/inbound"
	"github.com/spiritgear-io/spiritgear/internal/models"
)

type fakeCommStore struct {
	byToken map[string]*models.OrderCommunication
	created []*models.OrderCommunication
	findErr error
	saveErr error
}

func (s *fakeCommStore) FindLatestByReplyToken(_ context.Context, tok string) (*models.OrderCommunication, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.byToken[tok], nil
}

func (s *fakeCommStore) Create(_ context.Context, comm *models.OrderCommunication) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.created = append(s.created, comm)
	return nil
}

type fakeOrderStore struct {
	orders map[string]*models.Order
	err    error
}

func (s *fakeOrderStore) FindByID(_ context.Context, id string) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.orders[id], nil
}

func newTestRecorder(comms *fakeCommStore, orders *fakeOrderStore) *Recorder {
	n := inbound.NewNormalizer(nil)
	return NewRecorder(n, comms, orders, WithRecorderClock(func() time.Time {
		return time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	}))
}

func threadFixtures() (*fakeCommStore, *fakeOrderStore) {
	order := &models.Order{ID: "a1b2c3d4-9999-0000-1111-222233334444", OrderNumber: "SG-1001"}
	outbound := &models.OrderCommunication{
		ID:           "out-1",
		OrderID:      order.ID,
		Direction:    models.CommunicationOutbound,
		Subject:      "Your proof is ready",
		ReplyToToken: "ord-a1b2c3d4",
	}
	comms := &fakeCommStore{byToken: map[string]*models.OrderCommunication{"ord-a1b2c3d4": outbound}}
	orders := &fakeOrderStore{orders: map[string]*models.Order{order.ID: order}}
	return comms, orders
}

func TestHandleInboundRecordsReply(t *testing.T) {
	comms, orders := threadFixtures()
	r := newTestRecorder(comms, orders)
	res := r.HandleInbound(context.Background(), inbound.Payload{
		To:      "order-a1b2c3d4@parse.example.com",
		From:    "parent@example.com",
		Subject: "Re: Order",
		Text:    "Thanks!\n\nOn Tue, Mar 5, 2024 at 9:00 AM Staff <s@x.com> wrote:\n> original",
	})
	require.Equal(t, OutcomeRecorded, res.Outcome)
	require.Len(t, comms.created, 1)
	got := comms.created[0]
	assert.Equal(t, res.CommunicationID, got.ID)
	assert.Equal(t, "a1b2c3d4-9999-0000-1111-222233334444", got.OrderID)
	assert.Equal(t, models.CommunicationInbound, got.Direction)
	assert.Equal(t, "parent@example.com", got.SenderEmail)
	assert.Equal(t, "Thanks!", got.Body)
	assert.Equal(t, "ord-a1b2c3d4", got.ReplyToToken)
	assert.False(t, got.ReadByAdmin)
	assert.Nil(t, got.AdminID)
	assert.Equal(t, time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC), got.CreatedAt)
}

func TestHandleInboundDefaultsSubject(t *testing.T) {
	comms, orders := threadFixtures()
	r := newTestRecorder(comms, orders)
	res := r.HandleInbound(context.Background(), inbound.Payload{
		To:   "order-a1b2c3d4@parse.example.com",
		From: "parent@example.com",
		Text: "Looks good",
	})
	require.Equal(t, OutcomeRecorded, res.Outcome)
	assert.Equal(t, "Re: Your proof is ready", comms.created[0].Subject)
}

func TestHandleInboundMissingTo(t *testing.T) {
	comms, orders := threadFixtures()
	r := newTestRecorder(comms, orders)
	res := r.HandleInbound(context.Background(), inbound.Payload{From: "parent@example.com", Text: "hi"})
	assert.Equal(t, OutcomeMissingToAddress, res.Outcome)
	assert.Empty(t, comms.created)
}

func TestHandleInboundUnrecognizedToken(t *testing.T) {
	comms, orders := threadFixtures()
	r := newTestRecorder(comms, orders)
	res := r.HandleInbound(context.Background(), inbound.Payload{To: "info@example.com", Text: "hi"})
	assert.Equal(t, OutcomeUnrecognizedToken, res.Outcome)
	assert.Empty(t, comms.created)
}

func TestHandleInboundNoMatchingThread(t *testing.T) {
	comms, orders := threadFixtures()
	r := newTestRecorder(comms, orders)
	res := r.HandleInbound(context.Background(), inbound.Payload{To: "order-ffffffff@parse.example.com", Text: "hi"})
	assert.Equal(t, OutcomeCommunicationNotFound, res.Outcome)
	assert.Empty(t, comms.created)
}

func TestHandleInboundOrderGone(t *testing.T) {
	comms, _ := threadFixtures()
	orders := &fakeOrderStore{orders: map[string]*models.Order{}}
	r := newTestRecorder(comms, orders)
	res := r.HandleInbound(context.Background(), inbound.Payload{To: "order-a1b2c3d4@parse.example.com", Text: "hi"})
	assert.Equal(t, OutcomeOrderNotFound, res.Outcome)
	assert.Empty(t, comms.created)
}

func TestHandleInboundStoreFailureStillAcks(t *testing.T) {
	comms, orders := threadFixtures()
	comms.saveErr = errors.New("disk full")
	r := newTestRecorder(comms, orders)
	res := r.HandleInbound(context.Background(), inbound.Payload{To: "order-a1b2c3d4@parse.example.com", Text: "hi"})
	assert.Equal(t, OutcomeStoreFailed, res.Outcome)
	assert.Error(t, res.Err)
	assert.Empty(t, res.CommunicationID)
}
