package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalPairOrdersBothWays(t *testing.T) {
	lowA, highA := CanonicalPair(3, 9)
	lowB, highB := CanonicalPair(9, 3)
	assert.Equal(t, lowA, lowB)
	assert.Equal(t, highA, highB)
	assert.Equal(t, 3, lowA)
	assert.Equal(t, 9, highA)
}

func TestPeerID(t *testing.T) {
	conv := Conversation{UserLow: 3, UserHigh: 9}
	assert.Equal(t, 9, conv.PeerID(3))
	assert.Equal(t, 3, conv.PeerID(9))
}

func TestHasParticipant(t *testing.T) {
	conv := Conversation{UserLow: 3, UserHigh: 9}
	assert.True(t, conv.HasParticipant(3))
	assert.True(t, conv.HasParticipant(9))
	assert.False(t, conv.HasParticipant(4))
}

func TestFallbackIdentity(t *testing.T) {
	id := FallbackIdentity(77)
	assert.Equal(t, 77, id.UserID)
	assert.Equal(t, "Unknown", id.FirstName)
	assert.Equal(t, "User", id.LastName)
}
