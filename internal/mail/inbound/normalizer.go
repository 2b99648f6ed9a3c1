// Package inbound turns raw webhook payloads from the email provider into
// canonical inbound messages with stored attachments.
package inbound

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"regexp"
	"strings"

	gomessage "github.com/emersion/go-message"
	gomail "github.com/emersion/go-message/mail"
	"github.com/google/uuid"
	htmlcharset "golang.org/x/net/html/charset"
)

func init() {
	gomessage.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return htmlcharset.NewReaderLabel(charset, input)
	}
}

const (
	defaultBodyLimit       = 512 * 1024
	defaultAttachmentLimit = 25 * 1024 * 1024
)

// Payload is what the provider posts to the inbound webhook. Direct fields
// are present when the provider pre-splits the message; RawEmail carries the
// full MIME source when it is configured to forward raw content.
type Payload struct {
	To       string
	From     string
	Subject  string
	Text     string
	HTML     string
	Envelope string
	RawEmail []byte
}

// Attachment describes one stored attachment file.
type Attachment struct {
	Filename  string `json:"filename"`
	Path      string `json:"path"`
	MimeType  string `json:"type"`
	SizeBytes int64  `json:"size"`
}

// Message is the canonical normalized form of an inbound email.
type Message struct {
	To          string
	From        string
	Subject     string
	Text        string
	HTML        string
	MessageID   string
	Attachments []Attachment
}

// AttachmentWriter persists raw attachment bytes at a storage path.
type AttachmentWriter interface {
	Write(ctx context.Context, storagePath string, data []byte) error
}

// Normalizer merges direct webhook fields with an optional raw MIME parse and
// persists any attachments it finds. Direct fields always win over recovered
// ones; every parse failure degrades rather than aborts.
type Normalizer struct {
	storage         AttachmentWriter
	logger          *log.Logger
	basePath        string
	maxBodyBytes    int64
	attachmentLimit int64
}

// NormalizerOption customizes a Normalizer.
type NormalizerOption func(*Normalizer)

// NewNormalizer builds a Normalizer that stores attachments through the given
// writer.
func NewNormalizer(storage AttachmentWriter, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		storage:         storage,
		logger:          log.Default(),
		basePath:        "communications",
		maxBodyBytes:    defaultBodyLimit,
		attachmentLimit: defaultAttachmentLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// WithNormalizerLogger overrides the logger used for diagnostics.
func WithNormalizerLogger(logger *log.Logger) NormalizerOption {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithNormalizerBasePath changes the storage prefix for attachment files.
func WithNormalizerBasePath(base string) NormalizerOption {
	return func(n *Normalizer) {
		if base != "" {
			n.basePath = base
		}
	}
}

// WithNormalizerBodyLimit constrains how much body text is read from raw MIME.
func WithNormalizerBodyLimit(limit int64) NormalizerOption {
	return func(n *Normalizer) {
		if limit > 0 {
			n.maxBodyBytes = limit
		}
	}
}

// WithNormalizerAttachmentLimit constrains per-attachment bytes buffered in memory.
func WithNormalizerAttachmentLimit(limit int64) NormalizerOption {
	return func(n *Normalizer) {
		if limit > 0 {
			n.attachmentLimit = limit
		}
	}
}

// Normalize produces the canonical message for a payload. It never returns an
// error: a bad raw blob is logged and the direct fields carry on alone.
func (n *Normalizer) Normalize(ctx context.Context, p Payload) *Message {
	msg := &Message{
		To:      strings.TrimSpace(p.To),
		From:    strings.TrimSpace(p.From),
		Subject: strings.TrimSpace(p.Subject),
		Text:    p.Text,
		HTML:    p.HTML,
	}
	if len(p.RawEmail) > 0 {
		n.mergeRaw(ctx, msg, p.RawEmail)
	}
	return msg
}

func (n *Normalizer) mergeRaw(ctx context.Context, msg *Message, raw []byte) {
	reader, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		n.logf("inbound: raw MIME parse failed: %v", err)
		return
	}
	if msg.To == "" {
		msg.To = strings.TrimSpace(reader.Header.Get("To"))
	}
	if msg.From == "" {
		msg.From = strings.TrimSpace(reader.Header.Get("From"))
	}
	if msg.Subject == "" {
		if subject, err := reader.Header.Subject(); err == nil {
			msg.Subject = strings.TrimSpace(subject)
		} else {
			msg.Subject = strings.TrimSpace(reader.Header.Get("Subject"))
		}
	}
	msg.MessageID = normalizeMessageID(reader.Header.Get("Message-Id"))

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			n.logf("inbound: read part failed: %v", err)
			break
		}
		switch header := part.Header.(type) {
		case *gomail.InlineHeader:
			n.mergeInline(msg, part, header)
		case *gomail.AttachmentHeader:
			if att := n.saveAttachment(ctx, part, header); att != nil {
				msg.Attachments = append(msg.Attachments, *att)
			}
		default:
			// Ignore other part types
		}
	}
}

func (n *Normalizer) mergeInline(msg *Message, part *gomail.Part, header *gomail.InlineHeader) {
	mediaType, _, err := header.ContentType()
	if err != nil {
		mediaType = "text/plain"
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	body, err := io.ReadAll(io.LimitReader(part.Body, n.maxBodyBytes))
	if err != nil {
		n.logf("inbound: read inline body failed: %v", err)
		return
	}
	switch {
	case strings.HasPrefix(mediaType, "text/html"):
		if msg.HTML == "" {
			msg.HTML = string(body)
		}
	default:
		if msg.Text == "" {
			msg.Text = string(body)
		}
	}
}

// saveAttachment stores one attachment and returns its descriptor. A failure
// is logged and skips only this attachment, never the message.
func (n *Normalizer) saveAttachment(ctx context.Context, part *gomail.Part, header *gomail.AttachmentHeader) *Attachment {
	filename, err := header.Filename()
	if err != nil || strings.TrimSpace(filename) == "" {
		filename = "attachment.bin"
	}
	mimeType, _, ctErr := header.ContentType()
	if ctErr != nil || strings.TrimSpace(mimeType) == "" {
		mimeType = "application/octet-stream"
	}
	data, err := io.ReadAll(io.LimitReader(part.Body, n.attachmentLimit))
	if err != nil {
		n.logf("inbound: read attachment %s failed: %v", filename, err)
		return nil
	}
	if len(data) == 0 {
		return nil
	}
	stored := GenerateFilename(filename)
	storagePath := path.Join(n.basePath, stored)
	if n.storage == nil {
		n.logf("inbound: no attachment storage configured, dropping %s", filename)
		return nil
	}
	if err := n.storage.Write(ctx, storagePath, data); err != nil {
		n.logf("inbound: store attachment %s failed: %v", filename, err)
		return nil
	}
	return &Attachment{
		Filename:  stored,
		Path:      storagePath,
		MimeType:  strings.ToLower(strings.TrimSpace(mimeType)),
		SizeBytes: int64(len(data)),
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9.-]`)

// GenerateFilename builds a collision-resistant stored filename: a random id
// joined with a sanitized form of the original name.
func GenerateFilename(original string) string {
	safe := unsafeFilenameChars.ReplaceAllString(path.Base(original), "")
	if safe == "" || safe == "." || safe == ".." {
		safe = "attachment.bin"
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s-%s", id, safe)
}

func normalizeMessageID(value string) string {
	value = strings.TrimSpace(value)
	value = strings.Trim(value, "<>")
	return strings.TrimSpace(value)
}

func (n *Normalizer) logf(format string, args ...any) {
	if n == nil || n.logger == nil {
		return
	}
	n.logger.Printf(format, args...)
}
