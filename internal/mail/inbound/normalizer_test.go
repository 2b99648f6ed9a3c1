package inbound

import (
	"context"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	writes map[string][]byte
	failOn string
}

func (w *recordingWriter) Write(_ context.Context, path string, data []byte) error {
	if w.failOn != "" && strings.Contains(path, w.failOn) {
		return errors.New("disk full")
	}
	if w.writes == nil {
		w.writes = make(map[string][]byte)
	}
	w.writes[path] = data
	return nil
}

func TestNormalizeDirectFieldsOnly(t *testing.T) {
	n := NewNormalizer(&recordingWriter{})
	msg := n.Normalize(context.Background(), Payload{
		To:      " order-a1b2c3d4@parse.example.com ",
		From:    "parent@example.com",
		Subject: "Re: Order",
		Text:    "Thanks!",
	})
	assert.Equal(t, "order-a1b2c3d4@parse.example.com", msg.To)
	assert.Equal(t, "parent@example.com", msg.From)
	assert.Equal(t, "Re: Order", msg.Subject)
	assert.Equal(t, "Thanks!", msg.Text)
	assert.Empty(t, msg.Attachments)
}

func TestNormalizeRawFillsAbsentFieldsOnly(t *testing.T) {
	raw := strings.Join([]string{
		"Subject: From raw",
		"From: raw@example.com",
		"To: order-deadbeef@parse.example.com",
		"Message-Id: <abc123@mail.example.com>",
		"Content-Type: text/plain",
		"",
		"raw body",
	}, "\r\n")
	n := NewNormalizer(&recordingWriter{})
	msg := n.Normalize(context.Background(), Payload{
		Subject:  "Direct subject wins",
		RawEmail: []byte(raw),
	})
	assert.Equal(t, "Direct subject wins", msg.Subject)
	assert.Equal(t, "order-deadbeef@parse.example.com", msg.To)
	assert.Equal(t, "raw@example.com", msg.From)
	assert.Equal(t, "raw body", msg.Text)
	assert.Equal(t, "abc123@mail.example.com", msg.MessageID)
}

func TestNormalizeBadRawDegradesToDirectFields(t *testing.T) {
	n := NewNormalizer(&recordingWriter{})
	msg := n.Normalize(context.Background(), Payload{
		To:       "order-a1b2c3d4@parse.example.com",
		Text:     "still here",
		RawEmail: []byte("Content-Type: multipart/mixed; boundary\r\n\r\nnot mime"),
	})
	assert.Equal(t, "order-a1b2c3d4@parse.example.com", msg.To)
	assert.Equal(t, "still here", msg.Text)
}

func rawWithTwoAttachments(t *testing.T) []byte {
	t.Helper()
	payload := base64.StdEncoding.EncodeToString([]byte("file-bytes"))
	return []byte(strings.Join([]string{
		"Subject: Two files",
		"From: parent@example.com",
		"To: order-a1b2c3d4@parse.example.com",
		"MIME-Version: 1.0",
		`Content-Type: multipart/mixed; boundary="XYZ"`,
		"",
		"--XYZ",
		"Content-Type: text/plain",
		"",
		"see attached",
		"--XYZ",
		"Content-Type: application/pdf",
		`Content-Disposition: attachment; filename="proof v1.pdf"`,
		"Content-Transfer-Encoding: base64",
		"",
		payload,
		"--XYZ",
		"Content-Type: image/png",
		`Content-Disposition: attachment; filename="logo.png"`,
		"Content-Transfer-Encoding: base64",
		"",
		payload,
		"--XYZ--",
		"",
	}, "\r\n"))
}

func TestNormalizeStoresAttachments(t *testing.T) {
	writer := &recordingWriter{}
	n := NewNormalizer(writer)
	msg := n.Normalize(context.Background(), Payload{RawEmail: rawWithTwoAttachments(t)})
	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, "see attached", msg.Text)
	assert.NotEqual(t, msg.Attachments[0].Filename, msg.Attachments[1].Filename)
	assert.Equal(t, "application/pdf", msg.Attachments[0].MimeType)
	assert.Equal(t, "image/png", msg.Attachments[1].MimeType)
	assert.Equal(t, int64(len("file-bytes")), msg.Attachments[0].SizeBytes)
	assert.Len(t, writer.writes, 2)
	for _, att := range msg.Attachments {
		assert.Contains(t, writer.writes, att.Path)
	}
}

func TestNormalizeAttachmentWriteFailureIsIsolated(t *testing.T) {
	writer := &recordingWriter{failOn: "proofv1.pdf"}
	n := NewNormalizer(writer)
	msg := n.Normalize(context.Background(), Payload{RawEmail: rawWithTwoAttachments(t)})
	require.Len(t, msg.Attachments, 1)
	assert.True(t, strings.HasSuffix(msg.Attachments[0].Filename, "logo.png"))
	assert.Equal(t, "see attached", msg.Text)
}

func TestGenerateFilename(t *testing.T) {
	got := GenerateFilename("../we ird $$ name.PDF")
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{12}-weirdname\.PDF$`), got)

	fallback := GenerateFilename("???")
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{12}-attachment\.bin$`), fallback)
}
