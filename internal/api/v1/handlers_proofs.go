package v1

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spiritgear-io/spiritgear/internal/middleware"
	"github.com/spiritgear-io/spiritgear/internal/repository"
)

// Proof uploads are capped well above typical print-ready PDFs.
const maxProofSize = 50 << 20

func (r *APIRouter) handleListProofs(c *gin.Context) {
	proofs, err := r.proofs.ListProofs(c.Request.Context(), c.Param("id"))
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to list proofs: "+err.Error())
		return
	}
	sendSuccess(c, proofs)
}

// handleUploadProof accepts a multipart proof file for an order.
func (r *APIRouter) handleUploadProof(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		sendError(c, http.StatusBadRequest, "Proof file is required")
		return
	}
	if header.Size > maxProofSize {
		sendError(c, http.StatusRequestEntityTooLarge, "Proof file exceeds 50MB")
		return
	}
	file, err := header.Open()
	if err != nil {
		sendError(c, http.StatusBadRequest, "Failed to read upload: "+err.Error())
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxProofSize+1))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Failed to read upload: "+err.Error())
		return
	}

	proof, err := r.proofs.CreateProof(c.Request.Context(), c.Param("id"),
		header.Filename, header.Header.Get("Content-Type"), data)
	if errors.Is(err, repository.ErrOrderNotFound) {
		sendError(c, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		sendError(c, http.StatusBadRequest, "Failed to create proof: "+err.Error())
		return
	}
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: proof})
}

func (r *APIRouter) handleGetProof(c *gin.Context) {
	proof, err := r.proofs.GetProof(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrProofNotFound) {
		sendError(c, http.StatusNotFound, "Proof not found")
		return
	}
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to load proof: "+err.Error())
		return
	}
	sendSuccess(c, proof)
}

// handleDownloadProof streams the proof file.
func (r *APIRouter) handleDownloadProof(c *gin.Context) {
	proof, err := r.proofs.GetProof(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrProofNotFound) {
		sendError(c, http.StatusNotFound, "Proof not found")
		return
	}
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to load proof: "+err.Error())
		return
	}
	file, err := r.storage.Open(c.Request.Context(), proof.StoragePath)
	if err != nil {
		sendError(c, http.StatusNotFound, "Proof file missing")
		return
	}
	defer file.Close()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", proof.Filename))
	c.DataFromReader(http.StatusOK, proof.SizeBytes, proof.MimeType, file, nil)
}

// handleSendProof emails the customer that a proof is ready.
func (r *APIRouter) handleSendProof(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	adminID := ""
	if claims != nil {
		adminID = claims.AdminID
	}
	proof, err := r.proofs.SendProof(c.Request.Context(), c.Param("id"), adminID)
	if errors.Is(err, repository.ErrProofNotFound) || errors.Is(err, repository.ErrOrderNotFound) {
		sendError(c, http.StatusNotFound, "Proof not found")
		return
	}
	if err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}
	sendSuccess(c, proof)
}

func (r *APIRouter) handleApproveProof(c *gin.Context) {
	r.resolveProof(c, true)
}

func (r *APIRouter) handleRequestProofChanges(c *gin.Context) {
	r.resolveProof(c, false)
}

func (r *APIRouter) resolveProof(c *gin.Context, approved bool) {
	proof, err := r.proofs.Resolve(c.Request.Context(), c.Param("id"), approved)
	if errors.Is(err, repository.ErrProofNotFound) {
		sendError(c, http.StatusNotFound, "Proof not found")
		return
	}
	if err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}
	sendSuccess(c, proof)
}

// handleAnnotateProof attaches a positioned review note.
func (r *APIRouter) handleAnnotateProof(c *gin.Context) {
	var req struct {
		Author string  `json:"author"`
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Note   string  `json:"note" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid annotation: "+err.Error())
		return
	}
	author := req.Author
	if author == "" {
		if claims := middleware.ClaimsFrom(c); claims != nil {
			author = claims.Email
		}
	}
	ann, err := r.proofs.Annotate(c.Request.Context(), c.Param("id"),
		author, req.X, req.Y, req.Note)
	if errors.Is(err, repository.ErrProofNotFound) {
		sendError(c, http.StatusNotFound, "Proof not found")
		return
	}
	if err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: ann})
}
