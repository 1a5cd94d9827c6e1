package ws

import (
	"crypto/rand"
	"encoding/hex"
)

// newConnID mints a random identifier for one socket's lifetime, used to
// correlate its connect, error and disconnect events.
func newConnID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "conn-unknown"
	}
	return hex.EncodeToString(buf[:])
}
