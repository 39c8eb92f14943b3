package models

import "time"

// Place is a point of interest referenced by itineraries, verified
// against the Google Places API.
type Place struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Name          string    `json:"name"`
	Address       string    `json:"address,omitempty"`
	GooglePlaceID string    `json:"google_place_id,omitempty"`
	Latitude      float64   `json:"latitude,omitempty"`
	Longitude     float64   `json:"longitude,omitempty"`
	Rating        float64   `json:"rating,omitempty"`
}

// PlacePhoto is one cached photo for a place. Rows for a place are
// refreshed together once the oldest outlives the cache TTL.
type PlacePhoto struct {
	ID        string    `json:"id"`
	PlaceID   string    `json:"place_id"`
	CreatedAt time.Time `json:"created_at"`
	PhotoURL  string    `json:"photo_url"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
}
