package models

import "time"

// GenerationMetric records one attempt at generating an itinerary with
// the LLM, successful or not. Used for usage dashboards and debugging
// slow or failing generations.
type GenerationMetric struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ItineraryID string    `json:"itinerary_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Model       string    `json:"model"`
	Attempt     int       `json:"attempt"`
	LatencyMS   int64     `json:"latency_ms"`
	Success     bool      `json:"success"`
	ErrorText   string    `json:"error_text,omitempty"`
}
