package models

import "time"

// ItineraryStatus defines the lifecycle states of an itinerary.
type ItineraryStatus string

const (
	ItineraryStatusDraft     ItineraryStatus = "draft"
	ItineraryStatusGenerated ItineraryStatus = "generated"
	ItineraryStatusEdited    ItineraryStatus = "edited"
)

type Itinerary struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Title       string          `json:"title"`
	Destination string          `json:"destination"`
	StartDate   string          `json:"start_date"` // YYYY-MM-DD
	EndDate     string          `json:"end_date"`   // YYYY-MM-DD
	Travelers   int             `json:"travelers"`
	Budget      string          `json:"budget,omitempty"` // low, medium, high
	Content     string          `json:"content"`          // Markdown produced by the generator or edited by the agent
	Status      ItineraryStatus `json:"status"`
}
