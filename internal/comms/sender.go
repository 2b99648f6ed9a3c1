package comms

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spiritgear-io/spiritgear/internal/mail/outbound"
	"github.com/spiritgear-io/spiritgear/internal/mail/token"
	"github.com/spiritgear-io/spiritgear/internal/models"
)

// Sender emails customers about their orders and records the outbound side
// of the thread. Replies come back through the Recorder via the reply token
// stamped into the Reply-To address.
type Sender struct {
	comms         communicationStore
	mailer        outbound.Mailer
	inboundDomain string
	logger        *log.Logger
	now           func() time.Time
}

// NewSender wires the outbound mailer to the communication store.
func NewSender(comms communicationStore, mailer outbound.Mailer, inboundDomain string, logger *log.Logger) *Sender {
	if logger == nil {
		logger = log.Default()
	}
	return &Sender{
		comms:         comms,
		mailer:        mailer,
		inboundDomain: inboundDomain,
		logger:        logger,
		now:           time.Now,
	}
}

// SendInput describes one staff message to a customer.
type SendInput struct {
	Order   *models.Order
	AdminID string
	Subject string
	Body    string
	HTML    bool
}

// Send emails the order contact and persists the outbound communication.
func (s *Sender) Send(ctx context.Context, in SendInput) (*models.OrderCommunication, error) {
	if in.Order == nil {
		return nil, fmt.Errorf("comms: order required")
	}
	if strings.TrimSpace(in.Order.ContactEmail) == "" {
		return nil, fmt.Errorf("comms: order %s has no contact email", in.Order.ID)
	}

	tok := token.Encode(in.Order.ID)
	replyTo := token.Address(in.Order.ID, s.inboundDomain)
	messageID := outbound.NewMessageID(s.inboundDomain)

	// Thread onto the previous message when one exists.
	inReplyTo := ""
	if prev, err := s.comms.FindLatestByReplyToken(ctx, tok); err == nil && prev != nil && prev.MessageID != "" {
		inReplyTo = "<" + prev.MessageID + ">"
	}

	err := s.mailer.Send(ctx, &outbound.Message{
		To:        []string{in.Order.ContactEmail},
		ReplyTo:   replyTo,
		Subject:   in.Subject,
		Body:      in.Body,
		HTML:      in.HTML,
		MessageID: messageID,
		InReplyTo: inReplyTo,
	})
	if err != nil {
		return nil, fmt.Errorf("comms: send for order %s: %w", in.Order.ID, err)
	}

	adminID := in.AdminID
	comm := &models.OrderCommunication{
		ID:             uuid.NewString(),
		OrderID:        in.Order.ID,
		Direction:      models.CommunicationOutbound,
		SenderEmail:    replyTo,
		RecipientEmail: in.Order.ContactEmail,
		Subject:        in.Subject,
		Body:           in.Body,
		ReplyToToken:   tok,
		MessageID:      strings.Trim(messageID, "<>"),
		ReadByAdmin:    true,
		CreatedAt:      s.now().UTC(),
	}
	if adminID != "" {
		comm.AdminID = &adminID
	}
	if err := s.comms.Create(ctx, comm); err != nil {
		// The mail is already out; losing the record is worth surfacing.
		return nil, fmt.Errorf("comms: record outbound for order %s: %w", in.Order.ID, err)
	}
	s.logger.Printf("comms: sent %q to %s for order %s", in.Subject, in.Order.ContactEmail, in.Order.ID)
	return comm, nil
}
