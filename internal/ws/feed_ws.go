package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"social-service/internal/auth"
	"social-service/internal/observability"
)

// FeedWSHandler serves the per-user social change feed. Follow and
// friend-request events scoped to the caller arrive here; the client
// re-fetches its notification feed on each event rather than patching.
type FeedWSHandler struct {
	hub    *Hub
	tokens *auth.TokenIssuer
}

// NewFeedWSHandler constructs a FeedWSHandler.
func NewFeedWSHandler(hub *Hub, tokens *auth.TokenIssuer) *FeedWSHandler {
	return &FeedWSHandler{hub: hub, tokens: tokens}
}

// Handle upgrades the connection and registers the caller's feed.
func (h *FeedWSHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("social-service/ws").Start(c.Request.Context(), "ws.feed.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, ok := bearerUserID(c, h.tokens)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
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
	h.hub.AddFeedClient(userID, conn, info)

	observability.IncWSActive("feed")
	observability.IncWSEvent("feed", "ws_connect")
	h.hub.publishWSEvent(ctx, "feed", userID, info, "ws_connect", 0, "")

	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveFeedClient(userID, conn)
			observability.DecWSActive("feed")
			observability.IncWSEvent("feed", "ws_disconnect")
			h.hub.publishWSEvent(ctx, "feed", userID, info, "ws_disconnect", time.Since(info.ConnectedAt), closeReason)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("feed", "ws_error")
				}
				return
			}
		}
	}()
}
