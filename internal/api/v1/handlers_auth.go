package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spiritgear-io/spiritgear/internal/auth"
	"github.com/spiritgear-io/spiritgear/internal/middleware"
)

// handleLogin authenticates an admin and issues a JWT.
func (r *APIRouter) handleLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid login request: "+err.Error())
		return
	}

	admin, err := r.admins.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		r.logger.Printf("login lookup failed: %v", err)
		sendError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if admin == nil || !admin.Active || !auth.VerifyPassword(admin.PasswordHash, req.Password) {
		sendError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := r.jwtManager.GenerateToken(admin.ID, admin.Email, admin.Role)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	sendSuccess(c, gin.H{
		"token": token,
		"user": gin.H{
			"id":    admin.ID,
			"email": admin.Email,
			"name":  admin.Name,
			"role":  admin.Role,
		},
	})
}

// handleGetCurrentAdmin returns the authenticated admin's identity.
func (r *APIRouter) handleGetCurrentAdmin(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		sendError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	sendSuccess(c, gin.H{
		"id":    claims.AdminID,
		"email": claims.Email,
		"role":  claims.Role,
	})
}
