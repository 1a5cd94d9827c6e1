package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"social-service/internal/auth"
	"social-service/internal/models"
	"social-service/internal/observability"
	"social-service/internal/presence"
)

// Announcer publishes the presence-changed signal other instances react
// to. Satisfied by the realtime broker.
type Announcer interface {
	PublishPresencePing(ctx context.Context) error
}

// PresenceWSHandler serves the shared presence channel. Joining tracks
// the caller in the online set, the heartbeat ticker keeps the entry
// alive, and teardown untracks and re-syncs everyone. A failed track
// degrades to an empty presence view instead of failing the socket.
type PresenceWSHandler struct {
	hub       *Hub
	tracker   presence.Tracker
	announcer Announcer
	tokens    *auth.TokenIssuer
	heartbeat time.Duration
	logger    *zap.Logger
}

// NewPresenceWSHandler constructs a PresenceWSHandler.
func NewPresenceWSHandler(hub *Hub, tracker presence.Tracker, announcer Announcer, tokens *auth.TokenIssuer, heartbeat time.Duration, logger *zap.Logger) *PresenceWSHandler {
	return &PresenceWSHandler{hub: hub, tracker: tracker, announcer: announcer, tokens: tokens, heartbeat: heartbeat, logger: logger}
}

// Handle upgrades the connection, announces the caller and streams sync
// snapshots until the socket closes.
func (h *PresenceWSHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("social-service/ws").Start(c.Request.Context(), "ws.presence.handshake")
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
	h.hub.AddPresenceClient(conn, info)

	observability.IncWSActive("presence")
	observability.IncWSEvent("presence", "ws_connect")

	tracked := h.announce(ctx, userID)
	h.sendInitialSnapshot(ctx, conn)

	// Heartbeat keeps the caller's TTL key alive while the socket is open.
	heartbeatCtx, stopHeartbeat := context.WithCancel(context.Background())
	go h.heartbeatLoop(heartbeatCtx, userID)

	go func() {
		defer func() {
			stopHeartbeat()
			h.hub.RemovePresenceClient(conn)
			observability.DecWSActive("presence")
			observability.IncWSEvent("presence", "ws_disconnect")
			h.withdraw(userID, tracked)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("presence", "ws_error")
				}
				return
			}
		}
	}()
}

// announce tracks the caller and pings every instance to re-sync.
// Returns false when tracking failed; the subscriber still receives
// syncs, they just will not include the caller.
func (h *PresenceWSHandler) announce(ctx context.Context, userID int) bool {
	if err := h.tracker.Track(ctx, userID); err != nil {
		h.logger.Warn("presence track failed", zap.Int("user_id", userID), zap.Error(err))
		return false
	}
	if err := h.announcer.PublishPresencePing(ctx); err != nil {
		h.logger.Warn("presence ping failed", zap.Error(err))
	}
	return true
}

// sendInitialSnapshot pushes the current full state to the new client so
// it does not wait for the next membership change. A failure degrades to
// an empty set on the client.
func (h *PresenceWSHandler) sendInitialSnapshot(ctx context.Context, conn *websocket.Conn) {
	online, err := h.tracker.Snapshot(ctx)
	if err != nil {
		h.logger.Warn("initial presence snapshot failed", zap.Error(err))
		return
	}
	if err := h.hub.SendPresenceSnapshot(conn, models.PresenceSync{Type: "sync", Online: online}); err != nil {
		h.logger.Warn("initial presence snapshot write failed", zap.Error(err))
	}
}

func (h *PresenceWSHandler) heartbeatLoop(ctx context.Context, userID int) {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.tracker.Refresh(ctx, userID); err != nil && ctx.Err() == nil {
				h.logger.Warn("presence heartbeat failed", zap.Int("user_id", userID), zap.Error(err))
			}
		}
	}
}

// withdraw removes the caller's announcement after disconnect. Uses a
// fresh context; the request context is gone by now.
func (h *PresenceWSHandler) withdraw(userID int, tracked bool) {
	if !tracked {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.tracker.Untrack(ctx, userID); err != nil {
		// The TTL cleans up behind us if the delete does not land.
		h.logger.Warn("presence untrack failed", zap.Int("user_id", userID), zap.Error(err))
	}
	if err := h.announcer.PublishPresencePing(ctx); err != nil {
		h.logger.Warn("presence ping failed", zap.Error(err))
	}
}
