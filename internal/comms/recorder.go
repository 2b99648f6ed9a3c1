// Package comms persists order communication threads and reconciles inbound
// email replies onto them.
package comms

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/spiritgear-io/spiritgear/internal/mail/inbound"
	"github.com/spiritgear-io/spiritgear/internal/mail/reply"
	"github.com/spiritgear-io/spiritgear/internal/mail/token"
	"github.com/spiritgear-io/spiritgear/internal/models"
)

// Outcome classifies how an inbound webhook call was resolved.
type Outcome string

const (
	OutcomeMissingToAddress      Outcome = "missingToAddress"
	OutcomeUnrecognizedToken     Outcome = "unrecognizedToken"
	OutcomeCommunicationNotFound Outcome = "communicationNotFound"
	OutcomeOrderNotFound         Outcome = "orderNotFound"
	OutcomeStoreFailed           Outcome = "storeFailed"
	OutcomeRecorded              Outcome = "recorded"
)

// Result reports what the recorder did with one inbound message. Err is set
// for internal failures; callers acknowledge those exactly like any other
// outcome so the provider never retries.
type Result struct {
	Outcome         Outcome
	CommunicationID string
	Err             error
}

type normalizer interface {
	Normalize(ctx context.Context, p inbound.Payload) *inbound.Message
}

type communicationStore interface {
	FindLatestByReplyToken(ctx context.Context, tok string) (*models.OrderCommunication, error)
	Create(ctx context.Context, comm *models.OrderCommunication) error
}

type orderFinder interface {
	FindByID(ctx context.Context, id string) (*models.Order, error)
}

// Recorder runs the inbound pipeline: normalize, decode the reply token,
// locate the originating thread and order, strip the body, persist the row.
type Recorder struct {
	normalizer normalizer
	comms      communicationStore
	orders     orderFinder
	logger     *log.Logger
	now        func() time.Time
}

// RecorderOption customizes a Recorder.
type RecorderOption func(*Recorder)

// NewRecorder builds a Recorder over the given normalizer and stores.
func NewRecorder(n normalizer, comms communicationStore, orders orderFinder, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		normalizer: n,
		comms:      comms,
		orders:     orders,
		logger:     log.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// WithRecorderLogger overrides the logger used for diagnostics.
func WithRecorderLogger(logger *log.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRecorderClock overrides the timestamp source.
func WithRecorderClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// HandleInbound processes one provider callback. Every path returns a Result
// the caller can acknowledge; nothing here is ever fatal.
func (r *Recorder) HandleInbound(ctx context.Context, p inbound.Payload) Result {
	msg := r.normalizer.Normalize(ctx, p)
	if msg.To == "" {
		r.logf("comms: inbound message missing to address, dropping")
		return Result{Outcome: OutcomeMissingToAddress}
	}
	tok := token.Decode(msg.To)
	if tok == "" {
		r.logf("comms: no reply token in %q, dropping", msg.To)
		return Result{Outcome: OutcomeUnrecognizedToken}
	}
	orig, err := r.comms.FindLatestByReplyToken(ctx, tok)
	if err != nil {
		r.logf("comms: lookup for token %s failed: %v", tok, err)
		return Result{Outcome: OutcomeCommunicationNotFound, Err: err}
	}
	if orig == nil {
		r.logf("comms: no communication for token %s, dropping", tok)
		return Result{Outcome: OutcomeCommunicationNotFound}
	}
	order, err := r.orders.FindByID(ctx, orig.OrderID)
	if err != nil {
		r.logf("comms: order lookup %s failed: %v", orig.OrderID, err)
		return Result{Outcome: OutcomeOrderNotFound, Err: err}
	}
	if order == nil {
		r.logf("comms: order %s gone for token %s, dropping", orig.OrderID, tok)
		return Result{Outcome: OutcomeOrderNotFound}
	}

	subject := msg.Subject
	if subject == "" {
		subject = "Re: " + orig.Subject
	}
	comm := &models.OrderCommunication{
		ID:             uuid.NewString(),
		OrderID:        order.ID,
		Direction:      models.CommunicationInbound,
		SenderEmail:    msg.From,
		RecipientEmail: msg.To,
		Subject:        subject,
		Body:           reply.Extract(msg.Text, msg.HTML),
		ReplyToToken:   tok,
		MessageID:      msg.MessageID,
		ReadByAdmin:    false,
		CreatedAt:      r.now().UTC(),
		Attachments:    mapAttachments(msg.Attachments),
	}
	if err := r.comms.Create(ctx, comm); err != nil {
		r.logf("comms: persist inbound message for order %s failed: %v", order.ID, err)
		return Result{Outcome: OutcomeStoreFailed, Err: err}
	}
	r.logf("comms: recorded inbound message %s on order %s", comm.ID, order.ID)
	return Result{Outcome: OutcomeRecorded, CommunicationID: comm.ID}
}

func mapAttachments(atts []inbound.Attachment) []models.CommunicationAttachment {
	if len(atts) == 0 {
		return nil
	}
	out := make([]models.CommunicationAttachment, 0, len(atts))
	for _, att := range atts {
		out = append(out, models.CommunicationAttachment{
			ID:          uuid.NewString(),
			Filename:    att.Filename,
			StoragePath: att.Path,
			MimeType:    att.MimeType,
			SizeBytes:   att.SizeBytes,
		})
	}
	return out
}

func (r *Recorder) logf(format string, args ...any) {
	if r == nil || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}
