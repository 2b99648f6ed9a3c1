package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spiritgear-io/spiritgear/internal/comms"
	"github.com/spiritgear-io/spiritgear/internal/mail/inbound"
)

// handleInboundEmail receives parsed inbound email from the delivery
// provider's webhook. It answers 200 no matter what: a non-200 makes the
// provider retry the same payload for days, and a reply we cannot match
// will never match on retry either. Failures are logged and the message
// is dropped instead.
func (r *APIRouter) handleInboundEmail(c *gin.Context) {
	payload := inbound.Payload{
		To:       c.PostForm("to"),
		From:     c.PostForm("from"),
		Subject:  c.PostForm("subject"),
		Text:     c.PostForm("text"),
		HTML:     c.PostForm("html"),
		Envelope: c.PostForm("envelope"),
	}

	// Some providers attach the full raw MIME message.
	if header, err := c.FormFile("email"); err == nil {
		if file, err := header.Open(); err == nil {
			raw, readErr := io.ReadAll(file)
			file.Close()
			if readErr == nil {
				payload.RawEmail = raw
			}
		}
	}
	if payload.RawEmail == nil {
		if raw := c.PostForm("email"); raw != "" {
			payload.RawEmail = []byte(raw)
		}
	}

	result := r.recorder.HandleInbound(c.Request.Context(), payload)
	if result.Err != nil {
		r.logger.Printf("inbound email %s: outcome=%s err=%v",
			payload.From, result.Outcome, result.Err)
	}

	switch result.Outcome {
	case comms.OutcomeRecorded:
		c.JSON(http.StatusOK, gin.H{
			"message":         "Email received",
			"communicationId": result.CommunicationID,
		})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Email received"})
	}
}
