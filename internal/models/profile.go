package models

import "time"

// Roles a profile can hold. Moderation endpoints require RoleAdmin or above.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Profile is the account row behind every user-facing identity.
// PasswordHash never leaves the service.
type Profile struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"-"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	AvatarURL    *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	Bio          *string   `db:"bio" json:"bio,omitempty"`
	Role         string    `db:"role" json:"role"`
	Blocked      bool      `db:"blocked" json:"blocked"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Identity is the display slice of a profile handed to other components.
// A missing profile resolves to the fallback identity instead of an error.
type Identity struct {
	UserID    int     `json:"user_id"`
	Username  string  `json:"username"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// FallbackIdentity is returned when a profile row is missing or unreadable.
func FallbackIdentity(userID int) Identity {
	return Identity{UserID: userID, Username: "unknown", FirstName: "Unknown", LastName: "User"}
}

// IsModerator reports whether the role may use admin endpoints.
func (p Profile) IsModerator() bool {
	return p.Role == RoleAdmin || p.Role == RoleSuperAdmin
}
