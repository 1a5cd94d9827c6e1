package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"social-service/internal/directory"
	"social-service/internal/models"
	"social-service/internal/observability"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
)

const listingLimit = 50

// SocialHandler serves follow edges and the friend-request state machine.
type SocialHandler struct {
	social    repositories.SocialRepository
	directory *directory.Directory
	publisher ChangePublisher
	audit     *telemetry.AuditEmitter
	logger    *zap.Logger
}

// NewSocialHandler builds a SocialHandler.
func NewSocialHandler(social repositories.SocialRepository, dir *directory.Directory, publisher ChangePublisher, audit *telemetry.AuditEmitter, logger *zap.Logger) *SocialHandler {
	return &SocialHandler{social: social, directory: dir, publisher: publisher, audit: audit, logger: logger}
}

// Follow creates the follow edge. Repeat follows are idempotent; only a
// newly created edge produces a change event.
func (h *SocialHandler) Follow(c *gin.Context) {
	followeeID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	followerID := c.GetInt("userID")
	follow, created, err := h.social.Follow(c.Request.Context(), followerID, followeeID)
	if err != nil {
		if errors.Is(err, repositories.ErrSelfRelation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot follow yourself"})
			return
		}
		h.logger.Error("follow failed", zap.Int("follower", followerID), zap.Int("followee", followeeID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not follow"})
		return
	}

	if created {
		h.publishChange(c.Request.Context(), models.FollowChanged(models.EventInsert, follow))
	}
	c.JSON(http.StatusOK, gin.H{"follow": follow, "created": created})
}

// Unfollow removes the follow edge if present.
func (h *SocialHandler) Unfollow(c *gin.Context) {
	followeeID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	followerID := c.GetInt("userID")
	removed, err := h.social.Unfollow(c.Request.Context(), followerID, followeeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not unfollow"})
		return
	}

	if removed {
		h.publishChange(c.Request.Context(), models.FollowChanged(models.EventDelete, models.Follow{
			FollowerID: followerID,
			FolloweeID: followeeID,
		}))
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// ListFollowers returns the user's most recent followers with identities.
func (h *SocialHandler) ListFollowers(c *gin.Context) {
	h.listEdges(c, true)
}

// ListFollowing returns who the user follows, with identities.
func (h *SocialHandler) ListFollowing(c *gin.Context) {
	h.listEdges(c, false)
}

func (h *SocialHandler) listEdges(c *gin.Context, followers bool) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var edges []models.Follow
	if followers {
		edges, err = h.social.ListFollowers(c.Request.Context(), userID, listingLimit)
	} else {
		edges, err = h.social.ListFollowing(c.Request.Context(), userID, listingLimit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load follows"})
		return
	}

	ids := make([]int, 0, len(edges))
	for _, edge := range edges {
		if followers {
			ids = append(ids, edge.FollowerID)
		} else {
			ids = append(ids, edge.FolloweeID)
		}
	}
	identities := h.directory.BulkResolve(c.Request.Context(), ids)

	type edgeResponse struct {
		models.Follow
		User models.Identity `json:"user"`
	}
	resp := make([]edgeResponse, 0, len(edges))
	for _, edge := range edges {
		id := edge.FolloweeID
		if followers {
			id = edge.FollowerID
		}
		resp = append(resp, edgeResponse{Follow: edge, User: identities[id]})
	}
	c.JSON(http.StatusOK, gin.H{"follows": resp})
}

// SendFriendRequest creates a pending request toward the receiver.
func (h *SocialHandler) SendFriendRequest(c *gin.Context) {
	var req struct {
		ReceiverID int `json:"receiver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	senderID := c.GetInt("userID")
	request, err := h.social.SendFriendRequest(c.Request.Context(), senderID, req.ReceiverID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrSelfRelation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot friend yourself"})
		case errors.Is(err, repositories.ErrDuplicateRequest):
			c.JSON(http.StatusConflict, gin.H{"error": "an active request already exists"})
		default:
			h.logger.Error("send friend request failed", zap.Int("sender", senderID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send request"})
		}
		return
	}

	h.publishChange(c.Request.Context(), models.FriendRequestChanged(models.EventInsert, request, request.ReceiverID))
	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// AcceptFriendRequest transitions pending → accepted (receiver only).
func (h *SocialHandler) AcceptFriendRequest(c *gin.Context) {
	h.resolveRequest(c, true)
}

// RejectFriendRequest transitions pending → rejected (receiver only).
// The row is retained as history; the pair becomes sendable again.
func (h *SocialHandler) RejectFriendRequest(c *gin.Context) {
	h.resolveRequest(c, false)
}

func (h *SocialHandler) resolveRequest(c *gin.Context, accept bool) {
	requestID, err := strconv.Atoi(c.Param("request_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	receiverID := c.GetInt("userID")
	request, err := h.social.ResolveFriendRequest(c.Request.Context(), requestID, receiverID, accept)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrRequestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		case errors.Is(err, repositories.ErrNotReceiver):
			c.JSON(http.StatusForbidden, gin.H{"error": "only the receiver may act on this request"})
		case errors.Is(err, repositories.ErrRequestNotPending):
			c.JSON(http.StatusConflict, gin.H{"error": "request already resolved"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve request"})
		}
		return
	}

	// Both sides observe the transition on their feeds.
	h.publishChange(c.Request.Context(), models.FriendRequestChanged(models.EventUpdate, request, request.SenderID))
	h.publishChange(c.Request.Context(), models.FriendRequestChanged(models.EventUpdate, request, request.ReceiverID))

	h.audit.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("friend request %d resolved to %s", request.ID, request.Status),
		requestIDFromContext(c), callerID(c))

	c.JSON(http.StatusOK, gin.H{"request": request})
}

// Relationship reports the effective state between the caller and
// another user: friend status (rejected resolves to none), request
// direction and follow flags both directions.
func (h *SocialHandler) Relationship(c *gin.Context) {
	otherID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	userID := c.GetInt("userID")
	rel := models.Relationship{UserID: otherID, FriendStatus: "none"}

	request, err := h.social.ActiveRequestForPair(c.Request.Context(), userID, otherID)
	switch {
	case err == nil:
		rel.FriendStatus = request.Status
		rel.RequestID = &request.ID
		rel.OutgoingRequest = request.SenderID == userID
	case errors.Is(err, repositories.ErrRequestNotFound):
		// effective state stays none
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load relationship"})
		return
	}

	if rel.Following, err = h.social.IsFollowing(c.Request.Context(), userID, otherID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load relationship"})
		return
	}
	if rel.FollowedBy, err = h.social.IsFollowing(c.Request.Context(), otherID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load relationship"})
		return
	}

	c.JSON(http.StatusOK, rel)
}

func (h *SocialHandler) publishChange(ctx context.Context, event models.ChangeEvent) {
	observability.IncChangeEvent(event.Table, event.Type)
	if err := h.publisher.PublishChange(ctx, event); err != nil {
		h.logger.Warn("change publish failed", zap.String("table", event.Table), zap.Error(err))
	}
}
