// Package places verifies points of interest against the Google Places
// API and maintains the cached photo sets attached to them.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

	// requestTimeout bounds every call to the places endpoints. A hung
	// details call would otherwise block the whole request.
	requestTimeout = 10 * time.Second

	photoMaxWidth = 800
)

// Client is a thin HTTP client for the Google Places API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// SearchResult is one candidate place returned by text search, used for
// place verification during itinerary editing.
type SearchResult struct {
	GooglePlaceID string  `json:"google_place_id"`
	Name          string  `json:"name"`
	Address       string  `json:"address"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Rating        float64 `json:"rating"`
}

type textSearchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID          string  `json:"place_id"`
		Name             string  `json:"name"`
		FormattedAddress string  `json:"formatted_address"`
		Rating           float64 `json:"rating"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Search runs a text search for the given query.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("places API key is not configured")
	}

	endpoint := fmt.Sprintf("%s/textsearch/json?query=%s&key=%s",
		c.baseURL, url.QueryEscape(query), c.apiKey)

	var parsed textSearchResponse
	if err := c.getJSON(ctx, endpoint, &parsed); err != nil {
		return nil, err
	}
	if parsed.Status != "OK" && parsed.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("places API returned status %q", parsed.Status)
	}

	results := make([]SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, SearchResult{
			GooglePlaceID: r.PlaceID,
			Name:          r.Name,
			Address:       r.FormattedAddress,
			Latitude:      r.Geometry.Location.Lat,
			Longitude:     r.Geometry.Location.Lng,
			Rating:        r.Rating,
		})
	}
	return results, nil
}

// FetchedPhoto is one photo reference resolved to a servable URL.
type FetchedPhoto struct {
	PhotoURL string
	Width    int
	Height   int
}

type detailsResponse struct {
	Status string `json:"status"`
	Result struct {
		Photos []struct {
			PhotoReference string `json:"photo_reference"`
			Width          int    `json:"width"`
			Height         int    `json:"height"`
		} `json:"photos"`
	} `json:"result"`
}

// FetchPhotos retrieves up to limit photos for the given Google place.
func (c *Client) FetchPhotos(ctx context.Context, googlePlaceID string, limit int) ([]FetchedPhoto, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("places API key is not configured")
	}

	endpoint := fmt.Sprintf("%s/details/json?place_id=%s&fields=photos&key=%s",
		c.baseURL, url.QueryEscape(googlePlaceID), c.apiKey)

	var parsed detailsResponse
	if err := c.getJSON(ctx, endpoint, &parsed); err != nil {
		return nil, err
	}
	if parsed.Status != "OK" {
		return nil, fmt.Errorf("places API returned status %q", parsed.Status)
	}

	photos := make([]FetchedPhoto, 0, limit)
	for _, p := range parsed.Result.Photos {
		if len(photos) >= limit {
			break
		}
		photos = append(photos, FetchedPhoto{
			PhotoURL: fmt.Sprintf("%s/photo?maxwidth=%d&photoreference=%s&key=%s",
				c.baseURL, photoMaxWidth, url.QueryEscape(p.PhotoReference), c.apiKey),
			Width:  p.Width,
			Height: p.Height,
		})
	}
	return photos, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create places request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("places API returned non-200 response: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read places response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal places response: %w", err)
	}
	return nil
}
