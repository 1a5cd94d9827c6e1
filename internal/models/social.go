package models

import "time"

// Follow is an asymmetric edge: the follower subscribes to the followee.
// Unique per ordered (follower, followee) pair.
type Follow struct {
	ID         int       `db:"id" json:"id"`
	FollowerID int       `db:"follower_id" json:"follower_id"`
	FolloweeID int       `db:"followee_id" json:"followee_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Friend request statuses. Rejected rows are retained as history; the
// pair-uniqueness constraint excludes them, so a fresh request is
// sendable after a rejection.
const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestRejected = "rejected"
)

// FriendRequest is the durable record of a friendship. Sender/receiver
// roles are fixed at creation; only the receiver may accept or reject,
// and only while the request is pending.
type FriendRequest struct {
	ID         int       `db:"id" json:"id"`
	SenderID   int       `db:"sender_id" json:"sender_id"`
	ReceiverID int       `db:"receiver_id" json:"receiver_id"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Relationship is the effective state between the caller and another
// user, as seen from the caller's side.
type Relationship struct {
	UserID          int    `json:"user_id"`
	FriendStatus    string `json:"friend_status"` // none, pending, accepted
	RequestID       *int   `json:"request_id,omitempty"`
	OutgoingRequest bool   `json:"outgoing_request"`
	Following       bool   `json:"following"`
	FollowedBy      bool   `json:"followed_by"`
}
