package ws

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"social-service/internal/auth"
	"social-service/internal/observability"
	"social-service/internal/repositories"
)

// ConversationWSHandler serves the per-conversation change feed: every
// message committed to the conversation is delivered, in commit order,
// to all subscribed participants, the sender included.
type ConversationWSHandler struct {
	hub           *Hub
	conversations repositories.ConversationRepository
	tokens        *auth.TokenIssuer
}

// NewConversationWSHandler constructs a ConversationWSHandler.
func NewConversationWSHandler(hub *Hub, conversations repositories.ConversationRepository, tokens *auth.TokenIssuer) *ConversationWSHandler {
	return &ConversationWSHandler{hub: hub, conversations: conversations, tokens: tokens}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// bearerUserID resolves the caller from the Authorization header or the
// token query parameter (browsers cannot set headers on ws dials).
func bearerUserID(c *gin.Context, tokens *auth.TokenIssuer) (int, bool) {
	raw := c.GetHeader("Authorization")
	if raw == "" {
		if q := c.Query("token"); q != "" {
			raw = "Bearer " + q
		}
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return 0, false
	}
	claims, err := tokens.Validate(parts[1])
	if err != nil {
		return 0, false
	}
	return claims.UserID, true
}

// Handle upgrades the connection and registers the subscriber.
func (h *ConversationWSHandler) Handle(c *gin.Context) {
	conversationID, err := strconv.Atoi(c.Param("conversation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	ctx, span := otel.Tracer("social-service/ws").Start(c.Request.Context(), "ws.conversation.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, ok := bearerUserID(c, h.tokens)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	member, err := h.conversations.IsParticipant(ctx, conversationID, userID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation participant"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddConversationClient(conversationID, conn, info)

	observability.IncWSActive("conversation")
	observability.IncWSEvent("conversation", "ws_connect")
	h.hub.publishWSEvent(ctx, "conversation", conversationID, info, "ws_connect", 0, "")

	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveConversationClient(conversationID, conn)
			observability.DecWSActive("conversation")
			observability.IncWSEvent("conversation", "ws_disconnect")
			h.hub.publishWSEvent(ctx, "conversation", conversationID, info, "ws_disconnect", time.Since(info.ConnectedAt), closeReason)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("conversation", "ws_error")
				}
				return
			}
		}
	}()
}
