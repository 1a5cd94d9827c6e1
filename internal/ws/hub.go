package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"social-service/internal/models"
	"social-service/internal/observability"
)

// Hub maintains the live subscription rooms: one room per conversation
// (message inserts), one feed per user (follow / friend-request events)
// and a single presence room. Registration lifetime equals socket
// lifetime; the owning handler deregisters on teardown.
//
// Every write to a connection goes through its per-conn lock, so the
// broker dispatch goroutine and handler-side writes (initial presence
// snapshot) never interleave frames on the same socket.
type Hub struct {
	conversationRooms map[int]map[*websocket.Conn]ConnInfo
	userFeeds         map[int]map[*websocket.Conn]ConnInfo
	presenceConns     map[*websocket.Conn]ConnInfo
	writeLocks        map[*websocket.Conn]*sync.Mutex
	mu                sync.RWMutex
	events            observability.Publisher
	logger            *zap.Logger
}

// NewHub creates an empty hub. The events publisher carries socket
// lifecycle events to the broker; nil disables that publishing.
func NewHub(events observability.Publisher, logger *zap.Logger) *Hub {
	return &Hub{
		conversationRooms: make(map[int]map[*websocket.Conn]ConnInfo),
		userFeeds:         make(map[int]map[*websocket.Conn]ConnInfo),
		presenceConns:     make(map[*websocket.Conn]ConnInfo),
		writeLocks:        make(map[*websocket.Conn]*sync.Mutex),
		events:            events,
		logger:            logger,
	}
}

// AddConversationClient registers a connection in a conversation room.
func (h *Hub) AddConversationClient(conversationID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conversationRooms[conversationID]; !ok {
		h.conversationRooms[conversationID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.conversationRooms[conversationID][conn] = info
	h.ensureWriteLock(conn)
}

// RemoveConversationClient removes a conversation room connection.
func (h *Hub) RemoveConversationClient(conversationID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.conversationRooms[conversationID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.conversationRooms, conversationID)
		}
	}
	delete(h.writeLocks, conn)
}

// AddFeedClient registers a connection on a user's notification feed.
func (h *Hub) AddFeedClient(userID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.userFeeds[userID]; !ok {
		h.userFeeds[userID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.userFeeds[userID][conn] = info
	h.ensureWriteLock(conn)
}

// RemoveFeedClient removes a feed connection.
func (h *Hub) RemoveFeedClient(userID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.userFeeds[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.userFeeds, userID)
		}
	}
	delete(h.writeLocks, conn)
}

// AddPresenceClient registers a presence channel subscriber.
func (h *Hub) AddPresenceClient(conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.presenceConns[conn] = info
	h.ensureWriteLock(conn)
}

// RemovePresenceClient removes a presence channel subscriber.
func (h *Hub) RemovePresenceClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.presenceConns, conn)
	delete(h.writeLocks, conn)
}

// BroadcastChange routes a change event to its scoped room: message
// events to the conversation room, social events to the recipient's feed.
func (h *Hub) BroadcastChange(event models.ChangeEvent) {
	switch event.Table {
	case models.TableMessages:
		h.broadcastToRoom("conversation", event.Scope, h.snapshotRoom(h.conversationRooms, event.Scope), event)
	case models.TableFollows, models.TableFriendRequests:
		h.broadcastToRoom("feed", event.Scope, h.snapshotRoom(h.userFeeds, event.Scope), event)
	default:
		h.logger.Warn("change event for unknown table", zap.String("table", event.Table))
	}
}

// BroadcastPresenceSync pushes the full online snapshot to every
// presence subscriber; the snapshot replaces their local set.
func (h *Hub) BroadcastPresenceSync(sync models.PresenceSync) {
	h.mu.RLock()
	conns := make(map[*websocket.Conn]ConnInfo, len(h.presenceConns))
	for conn, info := range h.presenceConns {
		conns[conn] = info
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(sync)
	for conn, info := range conns {
		if err := h.writeConn(conn, payload); err != nil {
			h.logger.Warn("presence write failed", zap.String("conn_id", info.ConnID), zap.Error(err))
			conn.Close()
			h.RemovePresenceClient(conn)
			h.publishWSError("presence", 0, info, err)
		}
	}
}

// SendPresenceSnapshot delivers the current snapshot to one connection,
// used right after subscribe so the client starts from full state.
func (h *Hub) SendPresenceSnapshot(conn *websocket.Conn, sync models.PresenceSync) error {
	payload, err := json.Marshal(sync)
	if err != nil {
		return err
	}
	return h.writeConn(conn, payload)
}

func (h *Hub) ensureWriteLock(conn *websocket.Conn) {
	if _, ok := h.writeLocks[conn]; !ok {
		h.writeLocks[conn] = &sync.Mutex{}
	}
}

// writeConn serializes frame writes on one socket. Unregistered conns
// get a direct write; there is no other writer yet.
func (h *Hub) writeConn(conn *websocket.Conn, payload []byte) error {
	h.mu.RLock()
	lock := h.writeLocks[conn]
	h.mu.RUnlock()

	if lock == nil {
		return conn.WriteMessage(websocket.TextMessage, payload)
	}
	lock.Lock()
	defer lock.Unlock()
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (h *Hub) snapshotRoom(rooms map[int]map[*websocket.Conn]ConnInfo, scope int) map[*websocket.Conn]ConnInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := make(map[*websocket.Conn]ConnInfo, len(rooms[scope]))
	for conn, info := range rooms[scope] {
		conns[conn] = info
	}
	return conns
}

func (h *Hub) broadcastToRoom(kind string, scope int, conns map[*websocket.Conn]ConnInfo, event models.ChangeEvent) {
	payload, _ := json.Marshal(event)
	for conn, info := range conns {
		if err := h.writeConn(conn, payload); err != nil {
			h.logger.Warn("websocket write failed",
				zap.String("kind", kind), zap.Int("scope", scope),
				zap.String("conn_id", info.ConnID), zap.Error(err))
			conn.Close()
			if kind == "conversation" {
				h.RemoveConversationClient(scope, conn)
			} else {
				h.RemoveFeedClient(scope, conn)
			}
			h.publishWSError(kind, scope, info, err)
		}
	}
}

// publishWSEvent records one socket lifecycle event on the broker.
func (h *Hub) publishWSEvent(ctx context.Context, kind string, scope int, info ConnInfo, name string, duration time.Duration, reason string) {
	if h.events == nil {
		return
	}
	err := h.events.PublishJSON(ctx, wsRoutingKey(kind), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload:   wsEventPayload(kind, scope, info, name, duration, reason),
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
	if err != nil {
		observability.IncAMQPPublishError()
		h.logger.Warn("ws event publish failed", zap.String("event", name), zap.Error(err))
	}
}

func (h *Hub) publishWSError(kind string, scope int, info ConnInfo, err error) {
	h.publishWSEvent(context.Background(), kind, scope, info, "ws_error", time.Since(info.ConnectedAt), err.Error())
	observability.IncWSEvent(kind, "ws_error")
}

func wsEventPayload(kind string, scope int, info ConnInfo, event string, duration time.Duration, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        kind,
			"scope":       scope,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": duration.Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}

func wsRoutingKey(kind string) string {
	switch kind {
	case "feed":
		return "ws_events.feeds"
	case "presence":
		return "ws_events.presence"
	default:
		return "ws_events.conversations"
	}
}
