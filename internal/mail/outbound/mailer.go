// Package outbound sends order emails over SMTP. The client is constructed
// once at startup and injected wherever mail is sent.
package outbound

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// Config carries the SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
}

// Message is one outbound email.
type Message struct {
	To        []string
	ReplyTo   string
	Subject   string
	Body      string
	HTML      bool
	MessageID string
	InReplyTo string
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPMailer is the production Mailer. HTML bodies pass through a UGC
// sanitizer before leaving the system.
type SMTPMailer struct {
	cfg       Config
	sanitizer *bluemonday.Policy
	logger    *log.Logger
}

// NewSMTPMailer builds the mailer from config.
func NewSMTPMailer(cfg Config, logger *log.Logger) *SMTPMailer {
	if logger == nil {
		logger = log.Default()
	}
	return &SMTPMailer{
		cfg:       cfg,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger,
	}
}

// NewMessageID generates an RFC 5322 Message-ID on the sending domain.
func NewMessageID(domain string) string {
	if domain == "" {
		domain = "spiritgear.example"
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

// Send delivers one message.
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("outbound: message has no recipients")
	}
	data := m.render(msg)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if m.cfg.UseTLS {
		return m.sendTLS(addr, auth, msg.To, data)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, msg.To, data); err != nil {
		return fmt.Errorf("outbound: send failed: %w", err)
	}
	return nil
}

func (m *SMTPMailer) sendTLS(addr string, auth smtp.Auth, recipients []string, data []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.cfg.Host})
	if err != nil {
		return fmt.Errorf("outbound: connect failed: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("outbound: client failed: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("outbound: auth failed: %w", err)
		}
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("outbound: sender rejected: %w", err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			m.logger.Printf("outbound: recipient %s rejected: %v", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("outbound: data failed: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("outbound: write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("outbound: close failed: %w", err)
	}
	return client.Quit()
}

// render builds the wire form of a message, headers included.
func (m *SMTPMailer) render(msg *Message) []byte {
	body := msg.Body
	contentType := "text/plain"
	if msg.HTML {
		body = m.sanitizer.Sanitize(body)
		contentType = "text/html"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	if msg.ReplyTo != "" {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", msg.ReplyTo)
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	if msg.MessageID != "" {
		fmt.Fprintf(&buf, "Message-ID: %s\r\n", msg.MessageID)
	}
	if msg.InReplyTo != "" {
		fmt.Fprintf(&buf, "In-Reply-To: %s\r\n", msg.InReplyTo)
		fmt.Fprintf(&buf, "References: %s\r\n", msg.InReplyTo)
	}
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: %s; charset=UTF-8\r\n", contentType)
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.Bytes()
}
