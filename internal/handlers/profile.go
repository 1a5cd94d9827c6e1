package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"social-service/internal/directory"
	"social-service/internal/repositories"
)

const searchLimit = 20

// ProfileHandler serves the identity directory endpoints.
type ProfileHandler struct {
	profiles  repositories.ProfileRepository
	directory *directory.Directory
}

// NewProfileHandler builds a ProfileHandler.
func NewProfileHandler(profiles repositories.ProfileRepository, dir *directory.Directory) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, directory: dir}
}

// GetUser resolves one user's display identity. A missing profile
// resolves to the fallback identity, not an error.
func (h *ProfileHandler) GetUser(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	c.JSON(http.StatusOK, h.directory.Resolve(c.Request.Context(), userID))
}

// BulkUsers resolves identities for a comma-separated id list.
func (h *ProfileHandler) BulkUsers(c *gin.Context) {
	raw := c.Query("ids")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids parameter required"})
		return
	}

	var ids []int
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id list"})
			return
		}
		ids = append(ids, id)
	}

	identities := h.directory.BulkResolve(c.Request.Context(), ids)
	c.JSON(http.StatusOK, gin.H{"users": identities})
}

// SearchUsers finds profiles by username prefix.
func (h *ProfileHandler) SearchUsers(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"users": []struct{}{}})
		return
	}

	profiles, err := h.profiles.SearchProfiles(c.Request.Context(), query, searchLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": profiles})
}

// UpdateMe mutates the caller's owner-editable fields.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	var req struct {
		FirstName string  `json:"first_name"`
		LastName  string  `json:"last_name"`
		AvatarURL *string `json:"avatar_url"`
		Bio       *string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	profile, err := h.profiles.UpdateProfile(c.Request.Context(), userID, req.FirstName, req.LastName, req.AvatarURL, req.Bio)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Me returns the caller's own profile.
func (h *ProfileHandler) Me(c *gin.Context) {
	userID := c.GetInt("userID")
	profile, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, profile)
}
