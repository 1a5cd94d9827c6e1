package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"social-service/internal/directory"
	"social-service/internal/models"
	"social-service/internal/observability"
	"social-service/internal/repositories"
)

// ChangePublisher fans committed row changes out to the change feed.
// Satisfied by the realtime broker.
type ChangePublisher interface {
	PublishChange(ctx context.Context, event models.ChangeEvent) error
}

// ConversationHandler serves the conversation directory and message stream.
type ConversationHandler struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	directory     *directory.Directory
	publisher     ChangePublisher
	logger        *zap.Logger
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(conversations repositories.ConversationRepository, messages repositories.MessageRepository, dir *directory.Directory, publisher ChangePublisher, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		messages:      messages,
		directory:     dir,
		publisher:     publisher,
		logger:        logger,
	}
}

// ListConversations returns the caller's conversations ordered by
// recency of last message, with peer identities resolved.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID := c.GetInt("userID")

	entries, err := h.conversations.ListConversations(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list conversations failed", zap.Int("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	peerIDs := make([]int, 0, len(entries))
	for _, entry := range entries {
		peerIDs = append(peerIDs, entry.Conversation.PeerID(userID))
	}
	identities := h.directory.BulkResolve(c.Request.Context(), peerIDs)

	summaries := make([]models.ConversationSummary, 0, len(entries))
	for _, entry := range entries {
		peerID := entry.Conversation.PeerID(userID)
		updatedAt := entry.Conversation.CreatedAt
		if entry.LastMessage != nil {
			updatedAt = entry.LastMessage.CreatedAt
		}
		summaries = append(summaries, models.ConversationSummary{
			ConversationID: entry.Conversation.ID,
			Peer:           identities[peerID],
			LastMessage:    entry.LastMessage,
			UnreadCount:    entry.UnreadCount,
			UpdatedAt:      updatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// StartConversation resolves or creates the single conversation between
// the caller and the peer. Idempotent under concurrency.
func (h *ConversationHandler) StartConversation(c *gin.Context) {
	var req struct {
		PeerID int `json:"peer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	conv, err := h.conversations.StartConversation(c.Request.Context(), userID, req.PeerID)
	if err != nil {
		if errors.Is(err, repositories.ErrSelfConversation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot start a conversation with yourself"})
			return
		}
		h.logger.Error("start conversation failed", zap.Int("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation_id": conv.ID})
}

// GetMessages returns all messages of a conversation in creation order.
func (h *ConversationHandler) GetMessages(c *gin.Context) {
	conversationID, err := strconv.Atoi(c.Param("conversation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	userID := c.GetInt("userID")
	member, err := h.conversations.IsParticipant(c.Request.Context(), conversationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation participant"})
		return
	}

	msgs, err := h.messages.ListMessages(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	senderIDs := make([]int, 0, 2)
	seen := map[int]struct{}{}
	for _, m := range msgs {
		if _, ok := seen[m.SenderID]; !ok {
			seen[m.SenderID] = struct{}{}
			senderIDs = append(senderIDs, m.SenderID)
		}
	}
	identities := h.directory.BulkResolve(c.Request.Context(), senderIDs)

	type messageResponse struct {
		models.Message
		Sender models.Identity `json:"sender"`
	}
	resp := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, messageResponse{Message: m, Sender: identities[m.SenderID]})
	}

	c.JSON(http.StatusOK, gin.H{"messages": resp})
}

// SendMessage appends a message. The sender observes their own message
// through the change feed like everyone else; the response carries no
// echo beyond the created row.
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	conversationID, err := strconv.Atoi(c.Param("conversation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	userID := c.GetInt("userID")
	conv, err := h.conversations.GetConversation(c.Request.Context(), conversationID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrConversationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "conversation not found"})
		return
	}
	if !conv.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation participant"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messages.CreateMessage(c.Request.Context(), conversationID, userID, req.Content)
	if err != nil {
		if errors.Is(err, repositories.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message content is empty"})
			return
		}
		h.logger.Error("send message failed", zap.Int("conversation_id", conversationID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send message"})
		return
	}

	if err := h.conversations.TouchConversation(c.Request.Context(), conversationID); err != nil {
		h.logger.Warn("touch conversation failed", zap.Int("conversation_id", conversationID), zap.Error(err))
	}

	h.publishChange(c.Request.Context(), models.MessageInserted(msg))

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// MarkRead flags the peer's messages in the conversation as read.
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	conversationID, err := strconv.Atoi(c.Param("conversation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	userID := c.GetInt("userID")
	member, err := h.conversations.IsParticipant(c.Request.Context(), conversationID, userID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation participant"})
		return
	}

	if err := h.messages.MarkRead(c.Request.Context(), conversationID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mark read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *ConversationHandler) publishChange(ctx context.Context, event models.ChangeEvent) {
	observability.IncChangeEvent(event.Table, event.Type)
	if err := h.publisher.PublishChange(ctx, event); err != nil {
		// Subscribers miss this event; the next reload reconciles.
		h.logger.Warn("change publish failed", zap.String("table", event.Table), zap.Error(err))
	}
}
