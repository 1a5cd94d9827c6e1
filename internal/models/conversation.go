package models

import "time"

// Conversation represents a private thread between exactly two users.
// The participant pair is stored sorted (UserLow < UserHigh) so the
// unique constraint holds for the unordered pair.
type Conversation struct {
	ID        int       `db:"id" json:"id"`
	UserLow   int       `db:"user_low" json:"user_low"`
	UserHigh  int       `db:"user_high" json:"user_high"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Participant is a membership row, created in the same transaction as
// its conversation.
type Participant struct {
	ConversationID int `db:"conversation_id" json:"conversation_id"`
	UserID         int `db:"user_id" json:"user_id"`
}

// CanonicalPair orders two user ids so (a,b) and (b,a) map to the same key.
func CanonicalPair(a, b int) (low, high int) {
	if a < b {
		return a, b
	}
	return b, a
}

// PeerID returns the other participant of the conversation.
func (c Conversation) PeerID(userID int) int {
	if c.UserLow == userID {
		return c.UserHigh
	}
	return c.UserLow
}

// HasParticipant reports whether the user belongs to the conversation.
func (c Conversation) HasParticipant(userID int) bool {
	return c.UserLow == userID || c.UserHigh == userID
}

// ConversationSummary is the list-view shape: peer identity, last message
// preview and the timestamp the list is ordered by.
type ConversationSummary struct {
	ConversationID int       `json:"conversation_id"`
	Peer           Identity  `json:"peer"`
	LastMessage    *Message  `json:"last_message,omitempty"`
	UnreadCount    int       `json:"unread_count"`
	UpdatedAt      time.Time `json:"updated_at"`
}
