package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/models"
)

type GenerationMetricRepository struct {
	db *sql.DB
}

func NewGenerationMetricRepository(db *sql.DB) *GenerationMetricRepository {
	return &GenerationMetricRepository{db: db}
}

func (r *GenerationMetricRepository) CreateMetric(ctx context.Context, m *models.GenerationMetric) error {
	query := `
		INSERT INTO generation_metrics (
			id, user_id, itinerary_id, created_at, model, attempt,
			latency_ms, success, error_text
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.UserID, m.ItineraryID, m.CreatedAt, m.Model, m.Attempt,
		m.LatencyMS, m.Success, m.ErrorText,
	)
	if err != nil {
		return fmt.Errorf("failed to insert generation metric: %w", err)
	}
	return nil
}

// DailyStat is one day's aggregated generation activity.
type DailyStat struct {
	Day          string  `json:"day"` // YYYY-MM-DD
	Generations  int     `json:"generations"`
	Failures     int     `json:"failures"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

// GetDailyStats aggregates generation activity per day since the given
// cutoff. Backs the admin dashboard.
func (r *GenerationMetricRepository) GetDailyStats(ctx context.Context, since time.Time) ([]DailyStat, error) {
	query := `
		SELECT to_char(created_at, 'YYYY-MM-DD') AS day,
		       COUNT(*) FILTER (WHERE success),
		       COUNT(*) FILTER (WHERE NOT success),
		       COALESCE(AVG(latency_ms), 0)
		FROM generation_metrics
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day DESC
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer rows.Close()

	var stats []DailyStat
	for rows.Next() {
		var s DailyStat
		if err := rows.Scan(&s.Day, &s.Generations, &s.Failures, &s.AvgLatencyMS); err != nil {
			return nil, fmt.Errorf("failed to scan daily stat row: %w", err)
		}
		stats = append(stats, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily stat rows: %w", err)
	}
	return stats, nil
}
