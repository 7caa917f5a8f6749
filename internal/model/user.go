package model

import "time"

// Roles a user can hold
const (
	RoleProducer = "producer"
	RoleAdvisor  = "advisor"
	RoleDirector = "director"
)

// User represents an account
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Assignable reports whether the user may be offered as the advisor on a
// new work item. Inactive accounts stay referenced by old items but are
// never offered for new ones.
func (u *User) Assignable() bool {
	return u.Active && u.Role == RoleAdvisor
}

// Session represents an active login session
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired returns true if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
