// Package planner generates itinerary content through an
// OpenAI-compatible chat completions endpoint.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/datastore"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/metrics"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/models"
	"github.com/google/uuid"
)

const (
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultModel    = "gpt-4o-mini"

	generationTimeout = 60 * time.Second
	maxAttempts       = 3
	retryDelay        = 2 * time.Second
)

// Request describes the trip the agent wants an itinerary for.
type Request struct {
	Destination string `json:"destination"`
	StartDate   string `json:"start_date"` // YYYY-MM-DD
	EndDate     string `json:"end_date"`   // YYYY-MM-DD
	Travelers   int    `json:"travelers"`
	Budget      string `json:"budget,omitempty"`      // low, medium, high
	Preferences string `json:"preferences,omitempty"` // Free-form notes from the agent
}

// Generator calls the LLM and records one metric row per attempt.
type Generator struct {
	apiKey     string
	endpoint   string
	model      string
	httpClient *http.Client
	metricRepo *datastore.GenerationMetricRepository
}

func NewGenerator(apiKey string, metricRepo *datastore.GenerationMetricRepository) *Generator {
	return &Generator{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		model:    defaultModel,
		httpClient: &http.Client{
			Timeout: generationTimeout,
		},
		metricRepo: metricRepo,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

const systemPrompt = "You are a travel planner working for a travel agency. " +
	"Produce a detailed day-by-day itinerary in Markdown. Use a top-level " +
	"heading with the trip title, one second-level heading per day, and " +
	"bullet lists of activities with approximate times. Recommend real, " +
	"verifiable places by their full names."

// Generate produces itinerary Markdown for the request, retrying
// transient failures. Every attempt is persisted to generation_metrics
// regardless of outcome.
func (g *Generator) Generate(ctx context.Context, userID string, req Request) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("LLM API key is not configured")
	}

	prompt := fmt.Sprintf(
		"Destination: %s\nDates: %s to %s\nTravelers: %d\nBudget: %s\nPreferences: %s",
		req.Destination, req.StartDate, req.EndDate, req.Travelers,
		orUnspecified(req.Budget), orUnspecified(req.Preferences),
	)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		started := time.Now()
		content, err := g.complete(ctx, prompt)
		latency := time.Since(started)

		g.recordAttempt(ctx, userID, attempt, latency, err)

		if err == nil {
			return content, nil
		}
		lastErr = err
		log.Printf("WARN (Planner): Generation attempt %d/%d for user %s failed: %v", attempt, maxAttempts, userID, err)

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	return "", fmt.Errorf("generation failed after %d attempts: %w", maxAttempts, lastErr)
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	payload := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("chat API returned non-200 response: %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

func (g *Generator) recordAttempt(ctx context.Context, userID string, attempt int, latency time.Duration, genErr error) {
	metrics.GenerationLatency.Observe(latency.Seconds())
	outcome := "success"
	errText := ""
	if genErr != nil {
		outcome = "error"
		errText = genErr.Error()
	}
	metrics.ItineraryGenerations.WithLabelValues(outcome).Inc()

	metric := models.GenerationMetric{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		Model:     g.model,
		Attempt:   attempt,
		LatencyMS: latency.Milliseconds(),
		Success:   genErr == nil,
		ErrorText: errText,
	}
	if err := g.metricRepo.CreateMetric(ctx, &metric); err != nil {
		log.Printf("WARN (Planner): Failed to record generation metric: %v", err)
	}
}

func orUnspecified(s string) string {
	if s == "" {
		return "unspecified"
	}
	return s
}
