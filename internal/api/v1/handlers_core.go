package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope returned by every endpoint.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func sendSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func sendError(c *gin.Context, status int, message string) {
	c.JSON(status, APIResponse{Success: false, Error: message})
}

// handleHealth returns API health status
func (r *APIRouter) handleHealth(c *gin.Context) {
	sendSuccess(c, gin.H{
		"status":    "healthy",
		"service":   "spiritgear-api",
		"timestamp": time.Now().UTC(),
	})
}
