package models

import "time"

// SharedLink is a publicly viewable, expiring URL exposing one
// itinerary's content without authentication.
type SharedLink struct {
	ID          string     `json:"id"`
	ItineraryID string     `json:"itinerary_id"`
	UserID      string     `json:"user_id"`
	Token       string     `json:"-"` // Opaque URL token, only surfaced via the share URL
	Title       string     `json:"title"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"` // Nil means the link never expires
	IsActive    bool       `json:"is_active"`
	ViewCount   int        `json:"view_count"`

	// Expiry-notification preferences.
	NotificationsEnabled    bool       `json:"notifications_enabled"`
	NotificationHoursBefore int        `json:"notification_hours_before"`
	LastNotificationSentAt  *time.Time `json:"last_notification_sent_at,omitempty"`
}

// DefaultNotificationHoursBefore is used when a link is shared without an
// explicit notification lead time.
const DefaultNotificationHoursBefore = 12

// AllowedNotificationHours are the lead times a user may choose from.
var AllowedNotificationHours = []int{6, 12, 24, 48}

// ValidNotificationHours reports whether h is an accepted lead time.
func ValidNotificationHours(h int) bool {
	for _, allowed := range AllowedNotificationHours {
		if h == allowed {
			return true
		}
	}
	return false
}
