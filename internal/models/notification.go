package models

import "time"

// Notification kinds.
const (
	NotificationFollow        = "follow"
	NotificationFriendRequest = "friend_request"
)

// Notification is derived at read time by merging follow and
// friend-request rows for a recipient. It is never persisted.
type Notification struct {
	Kind      string    `json:"kind"`
	Actor     Identity  `json:"actor"`
	RequestID *int      `json:"request_id,omitempty"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationFeed is the aggregated response for one recipient.
type NotificationFeed struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}
