package models

import "time"

// Session is an authenticated browser session, resolved from the
// HttpOnly session cookie on every request.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	UserEmail string    `json:"user_email"`
	UserRole  UserRole  `json:"user_role"`
}

// SessionLifetime is how long a session cookie remains valid.
const SessionLifetime = 30 * 24 * time.Hour

// Expired reports whether the session has lapsed at now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsAdmin reports whether the session belongs to an admin user.
func (s *Session) IsAdmin() bool {
	return s.UserRole == UserRoleAdmin
}
