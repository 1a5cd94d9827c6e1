package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"social-service/internal/notifications"
)

// NotificationHandler serves the derived notification feed.
type NotificationHandler struct {
	aggregator *notifications.Aggregator
	logger     *zap.Logger
}

// NewNotificationHandler builds a NotificationHandler.
func NewNotificationHandler(aggregator *notifications.Aggregator, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{aggregator: aggregator, logger: logger}
}

// Feed returns the caller's merged notification feed. Clients call this
// again whenever their feed socket delivers a follow or friend-request
// event; there is no server-side incremental state.
func (h *NotificationHandler) Feed(c *gin.Context) {
	userID := c.GetInt("userID")

	feed, err := h.aggregator.Feed(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("notification feed failed", zap.Int("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notifications"})
		return
	}
	c.JSON(http.StatusOK, feed)
}
