package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-service/internal/models"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
)

// AdminHandler serves moderation endpoints. Routes are gated by the
// RequireModerator middleware.
type AdminHandler struct {
	profiles repositories.ProfileRepository
	audit    *telemetry.AuditEmitter
}

// NewAdminHandler builds an AdminHandler.
func NewAdminHandler(profiles repositories.ProfileRepository, audit *telemetry.AuditEmitter) *AdminHandler {
	return &AdminHandler{profiles: profiles, audit: audit}
}

// SetRole changes a user's role. Only super admins may grant admin roles.
func (h *AdminHandler) SetRole(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req struct {
		Role string `json:"role" binding:"required,oneof=user admin super_admin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Role != models.RoleUser && c.GetString("userRole") != models.RoleSuperAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "super admin role required"})
		return
	}

	if err := h.profiles.SetRole(c.Request.Context(), userID, req.Role); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update role"})
		return
	}

	h.audit.Emit(c.Request.Context(), "WARN",
		fmt.Sprintf("role of user %d set to %s", userID, req.Role),
		requestIDFromContext(c), callerID(c))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SetBlocked blocks or unblocks a user. Blocked users fail auth closed
// on their next request.
func (h *AdminHandler) SetBlocked(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req struct {
		Blocked *bool `json:"blocked" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.profiles.SetBlocked(c.Request.Context(), userID, *req.Blocked); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update block state"})
		return
	}

	h.audit.Emit(c.Request.Context(), "WARN",
		fmt.Sprintf("blocked state of user %d set to %t", userID, *req.Blocked),
		requestIDFromContext(c), callerID(c))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
