package models

import "time"

// CommunicationDirection distinguishes staff-sent from customer-sent messages.
type CommunicationDirection string

const (
	CommunicationInbound  CommunicationDirection = "inbound"
	CommunicationOutbound CommunicationDirection = "outbound"
)

// OrderCommunication is one message in an order's email thread.
type OrderCommunication struct {
	ID             string                 `json:"id" db:"id"`
	OrderID        string                 `json:"order_id" db:"order_id"`
	AdminID        *string                `json:"admin_id,omitempty" db:"admin_id"`
	Direction      CommunicationDirection `json:"direction" db:"direction"`
	SenderEmail    string                 `json:"sender_email" db:"sender_email"`
	RecipientEmail string                 `json:"recipient_email" db:"recipient_email"`
	Subject        string                 `json:"subject" db:"subject"`
	Body           string                 `json:"body" db:"body"`
	ReplyToToken   string                 `json:"reply_to_token" db:"reply_to_token"`
	MessageID      string                 `json:"message_id,omitempty" db:"message_id"`
	ReadByAdmin    bool                   `json:"read_by_admin" db:"read_by_admin"`
	CreatedAt      time.Time              `json:"created_at" db:"created_at"`

	// Populated on read when requested
	Attachments []CommunicationAttachment `json:"attachments,omitempty"`
}

// CommunicationAttachment describes a stored file attached to a communication.
type CommunicationAttachment struct {
	ID              string    `json:"id" db:"id"`
	CommunicationID string    `json:"communication_id" db:"communication_id"`
	Filename        string    `json:"filename" db:"filename"`
	StoragePath     string    `json:"storage_path" db:"storage_path"`
	MimeType        string    `json:"mime_type" db:"mime_type"`
	SizeBytes       int64     `json:"size_bytes" db:"size_bytes"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
