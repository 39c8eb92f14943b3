package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/models"
	"github.com/google/uuid"
)

type ItineraryRepository struct {
	db *sql.DB
}

func NewItineraryRepository(db *sql.DB) *ItineraryRepository {
	return &ItineraryRepository{db: db}
}

const itineraryColumns = `
	id, user_id, created_at, updated_at, title, destination,
	start_date, end_date, travelers, budget, content, status
`

func (r *ItineraryRepository) CreateItinerary(ctx context.Context, it *models.Itinerary) error {
	if _, err := uuid.Parse(it.ID); err != nil {
		return fmt.Errorf("invalid itinerary ID format: %w", err)
	}
	if _, err := uuid.Parse(it.UserID); err != nil {
		return fmt.Errorf("invalid user ID format: %w", err)
	}

	query := `
		INSERT INTO itineraries (` + itineraryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		it.ID, it.UserID, it.CreatedAt, it.UpdatedAt, it.Title, it.Destination,
		it.StartDate, it.EndDate, it.Travelers, it.Budget, it.Content, string(it.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert itinerary: %w", err)
	}
	return nil
}

func scanItinerary(scanner interface{ Scan(...any) error }) (*models.Itinerary, error) {
	var it models.Itinerary
	var status string
	err := scanner.Scan(
		&it.ID, &it.UserID, &it.CreatedAt, &it.UpdatedAt, &it.Title, &it.Destination,
		&it.StartDate, &it.EndDate, &it.Travelers, &it.Budget, &it.Content, &status,
	)
	if err != nil {
		return nil, err
	}
	it.Status = models.ItineraryStatus(status)
	return &it, nil
}

func (r *ItineraryRepository) GetItineraryByID(ctx context.Context, itineraryID string) (*models.Itinerary, error) {
	query := `SELECT ` + itineraryColumns + ` FROM itineraries WHERE id = $1`
	it, err := scanItinerary(r.db.QueryRowContext(ctx, query, itineraryID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get itinerary by ID: %w", err)
	}
	return it, nil
}

func (r *ItineraryRepository) GetItinerariesByUserID(ctx context.Context, userID string) ([]models.Itinerary, error) {
	query := `
		SELECT ` + itineraryColumns + `
		FROM itineraries
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query itineraries: %w", err)
	}
	defer rows.Close()

	var itineraries []models.Itinerary
	for rows.Next() {
		it, err := scanItinerary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan itinerary row: %w", err)
		}
		itineraries = append(itineraries, *it)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating itinerary rows: %w", err)
	}
	return itineraries, nil
}

func (r *ItineraryRepository) UpdateItinerary(ctx context.Context, it *models.Itinerary) error {
	query := `
		UPDATE itineraries
		SET updated_at = $3, title = $4, destination = $5, start_date = $6,
		    end_date = $7, travelers = $8, budget = $9, content = $10, status = $11
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.db.ExecContext(ctx, query,
		it.ID, it.UserID, it.UpdatedAt, it.Title, it.Destination,
		it.StartDate, it.EndDate, it.Travelers, it.Budget, it.Content, string(it.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to update itinerary: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *ItineraryRepository) DeleteItinerary(ctx context.Context, itineraryID, userID string) error {
	query := `DELETE FROM itineraries WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, itineraryID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete itinerary: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
