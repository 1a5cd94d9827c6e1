package models

import "encoding/json"

// Change-feed event types.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// Tables the change feed covers.
const (
	TableMessages       = "messages"
	TableFollows        = "follows"
	TableFriendRequests = "friend_requests"
)

// ChangeEvent is the envelope delivered to change-feed subscribers and
// relayed between instances over the broker. Scope is the conversation id
// for message events and the recipient user id for social events.
type ChangeEvent struct {
	Table string          `json:"table"`
	Type  string          `json:"type"`
	Scope int             `json:"scope"`
	Row   json.RawMessage `json:"row,omitempty"`
}

// MessageInserted builds the change event for a freshly committed message.
func MessageInserted(msg Message) ChangeEvent {
	row, _ := json.Marshal(msg)
	return ChangeEvent{Table: TableMessages, Type: EventInsert, Scope: msg.ConversationID, Row: row}
}

// FollowChanged builds the change event delivered to the followee's feed.
func FollowChanged(eventType string, follow Follow) ChangeEvent {
	row, _ := json.Marshal(follow)
	return ChangeEvent{Table: TableFollows, Type: eventType, Scope: follow.FolloweeID, Row: row}
}

// FriendRequestChanged builds the change event for the given recipient;
// inserts notify the receiver, status updates notify the sender too.
func FriendRequestChanged(eventType string, req FriendRequest, scope int) ChangeEvent {
	row, _ := json.Marshal(req)
	return ChangeEvent{Table: TableFriendRequests, Type: eventType, Scope: scope, Row: row}
}

// PresenceSync is broadcast on the presence channel whenever membership
// changes. The snapshot fully replaces the subscriber's local online set.
type PresenceSync struct {
	Type   string          `json:"type"` // always "sync"
	Online []PresenceEntry `json:"online"`
}

// PresenceEntry is one online user in a sync snapshot.
type PresenceEntry struct {
	UserID      int    `json:"user_id"`
	OnlineSince string `json:"online_since"`
}
