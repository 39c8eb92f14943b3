// Package weather proxies current conditions from the OpenWeather API,
// with an in-process cache so repeated lookups for the same destination
// do not hammer the upstream.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	defaultEndpoint = "https://api.openweathermap.org/data/2.5/weather"

	requestTimeout = 10 * time.Second
	cacheTTL       = 30 * time.Minute
	cacheSweep     = 10 * time.Minute
)

// Report is the trimmed weather payload surfaced to itinerary views.
type Report struct {
	Time        time.Time `json:"time"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feels_like"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"wind_speed"`
	Clouds      int       `json:"clouds"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
}

type openWeatherResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Dt  int64 `json:"dt"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
	Name string `json:"name"`
}

// Client fetches current conditions from OpenWeather.
type Client struct {
	apiKey     string
	endpoint   string
	units      string
	httpClient *http.Client
	cache      *gocache.Cache
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		units:    "metric",
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		cache: gocache.New(cacheTTL, cacheSweep),
	}
}

// Current returns current conditions at the given coordinates, serving
// from the in-process cache when a recent lookup for the same (rounded)
// coordinates exists.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*Report, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("OpenWeather API key is not configured")
	}

	// Round to ~1km so nearby lookups share a cache entry.
	key := fmt.Sprintf("%.2f:%.2f", lat, lon)
	if entry, found := c.cache.Get(key); found {
		if report, ok := entry.(*Report); ok {
			return report, nil
		}
	}

	url := fmt.Sprintf("%s?lat=%.4f&lon=%.4f&appid=%s&units=%s&lang=en",
		c.endpoint, lat, lon, c.apiKey, c.units)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned non-200 response: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read weather response: %w", err)
	}

	var parsed openWeatherResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weather response: %w", err)
	}
	if len(parsed.Weather) == 0 {
		return nil, fmt.Errorf("no weather conditions returned from API")
	}

	report := &Report{
		Time:        time.Unix(parsed.Dt, 0).UTC(),
		City:        parsed.Name,
		Country:     parsed.Sys.Country,
		Temperature: parsed.Main.Temp,
		FeelsLike:   parsed.Main.FeelsLike,
		Humidity:    parsed.Main.Humidity,
		WindSpeed:   parsed.Wind.Speed,
		Clouds:      parsed.Clouds.All,
		Description: parsed.Weather[0].Description,
		Icon:        parsed.Weather[0].Icon,
	}

	c.cache.Set(key, report, gocache.DefaultExpiration)
	return report, nil
}
