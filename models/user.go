package models

import (
	"time"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/temporal"
)

// UserRole defines the set of allowed roles for a User.
type UserRole string

const (
	UserRoleAgent UserRole = "agent"
	UserRoleAdmin UserRole = "admin"
)

type User struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	AgencyName   string    `json:"agency_name,omitempty"`
	Role         UserRole  `json:"role"`
	PasswordHash string    `json:"-"` // Never exposed in API responses

	// Usage counters governed by the rollover windows.
	ItinerariesCreatedToday     int    `json:"itineraries_created_today"`
	LastResetDate               string `json:"last_reset_date"` // YYYY-MM-DD, UTC
	ItinerariesCreatedThisMonth int    `json:"itineraries_created_this_month"`
	LastItineraryMonth          string `json:"last_itinerary_month"` // YYYY-MM, UTC
	MonthlyItineraryLimit       int    `json:"monthly_itinerary_limit"`
}

// DefaultMonthlyItineraryLimit is applied to new users at signup.
const DefaultMonthlyItineraryLimit = 50

// BoostEligibilityThreshold is the fraction of the monthly limit a user
// must have consumed before a boost request is accepted.
const BoostEligibilityThreshold = 0.80

// CurrentMonthUsage returns the monthly counter as of now. The counter
// only rolls over lazily when an itinerary is created, so a stamp from
// an earlier month means the real usage this month is zero.
func (u *User) CurrentMonthUsage(now time.Time) int {
	if u.LastItineraryMonth != temporal.MonthKey(now) {
		return 0
	}
	return u.ItinerariesCreatedThisMonth
}

// BoostEligible reports whether the user has consumed enough of their
// monthly quota as of now to request a boost. Exactly 80% qualifies.
func (u *User) BoostEligible(now time.Time) bool {
	if u.MonthlyItineraryLimit <= 0 {
		return false
	}
	return float64(u.CurrentMonthUsage(now))/float64(u.MonthlyItineraryLimit) >= BoostEligibilityThreshold
}
