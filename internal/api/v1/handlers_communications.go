package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spiritgear-io/spiritgear/internal/comms"
	"github.com/spiritgear-io/spiritgear/internal/middleware"
	"github.com/spiritgear-io/spiritgear/internal/repository"
)

// handleListCommunications returns the full message thread for an order.
func (r *APIRouter) handleListCommunications(c *gin.Context) {
	order, err := r.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrOrderNotFound) {
		sendError(c, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to load order: "+err.Error())
		return
	}
	thread, err := r.commRepo.ListByOrder(c.Request.Context(), order.ID)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to load communications: "+err.Error())
		return
	}
	sendSuccess(c, thread)
}

// handleSendCommunication emails the order contact from the dashboard.
func (r *APIRouter) handleSendCommunication(c *gin.Context) {
	var req struct {
		Subject string `json:"subject"`
		Body    string `json:"body" binding:"required"`
		HTML    bool   `json:"html"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid message: "+err.Error())
		return
	}
	order, err := r.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrOrderNotFound) {
		sendError(c, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to load order: "+err.Error())
		return
	}

	claims := middleware.ClaimsFrom(c)
	adminID := ""
	if claims != nil {
		adminID = claims.AdminID
	}
	subject := req.Subject
	if subject == "" {
		subject = fmt.Sprintf("Update on order %s", order.OrderNumber)
	}

	comm, err := r.sender.Send(c.Request.Context(), comms.SendInput{
		Order:   order,
		AdminID: adminID,
		Subject: subject,
		Body:    req.Body,
		HTML:    req.HTML,
	})
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to send message: "+err.Error())
		return
	}
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: comm})
}

// handleMarkCommunicationRead clears the unread flag on an inbound message.
func (r *APIRouter) handleMarkCommunicationRead(c *gin.Context) {
	err := r.commRepo.MarkRead(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrCommNotFound) {
		sendError(c, http.StatusNotFound, "Communication not found")
		return
	}
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to mark read: "+err.Error())
		return
	}
	sendSuccess(c, gin.H{"read": true})
}

// handleDownloadAttachment streams a stored email attachment.
func (r *APIRouter) handleDownloadAttachment(c *gin.Context) {
	att, err := r.commRepo.GetAttachment(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrCommNotFound) {
		sendError(c, http.StatusNotFound, "Attachment not found")
		return
	}
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to load attachment: "+err.Error())
		return
	}

	file, err := r.storage.Open(c.Request.Context(), att.StoragePath)
	if err != nil {
		sendError(c, http.StatusNotFound, "Attachment file missing")
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))
	c.DataFromReader(http.StatusOK, att.SizeBytes, att.MimeType, file, nil)
}
