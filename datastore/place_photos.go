package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/models"
)

type PlaceRepository struct {
	db *sql.DB
}

func NewPlaceRepository(db *sql.DB) *PlaceRepository {
	return &PlaceRepository{db: db}
}

func (r *PlaceRepository) CreatePlace(ctx context.Context, place *models.Place) error {
	query := `
		INSERT INTO places (id, created_at, name, address, google_place_id, latitude, longitude, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		place.ID, place.CreatedAt, place.Name, place.Address,
		place.GooglePlaceID, place.Latitude, place.Longitude, place.Rating,
	)
	if err != nil {
		return fmt.Errorf("failed to insert place: %w", err)
	}
	return nil
}

func (r *PlaceRepository) GetPlaceByID(ctx context.Context, placeID string) (*models.Place, error) {
	query := `
		SELECT id, created_at, name, address, google_place_id, latitude, longitude, rating
		FROM places
		WHERE id = $1
	`
	var place models.Place
	err := r.db.QueryRowContext(ctx, query, placeID).Scan(
		&place.ID, &place.CreatedAt, &place.Name, &place.Address,
		&place.GooglePlaceID, &place.Latitude, &place.Longitude, &place.Rating,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get place by ID: %w", err)
	}
	return &place, nil
}

// GetPhotosByPlaceID returns the cached photos for a place, newest first.
func (r *PlaceRepository) GetPhotosByPlaceID(ctx context.Context, placeID string) ([]models.PlacePhoto, error) {
	query := `
		SELECT id, place_id, created_at, photo_url, width, height
		FROM place_photos
		WHERE place_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, placeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query place photos: %w", err)
	}
	defer rows.Close()

	var photos []models.PlacePhoto
	for rows.Next() {
		var p models.PlacePhoto
		if err := rows.Scan(&p.ID, &p.PlaceID, &p.CreatedAt, &p.PhotoURL, &p.Width, &p.Height); err != nil {
			return nil, fmt.Errorf("failed to scan place photo row: %w", err)
		}
		photos = append(photos, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating place photo rows: %w", err)
	}
	return photos, nil
}

// DeletePhotosByPlaceID removes every cached photo for a place. Called
// when the cache set has gone stale, just before a refetch.
func (r *PlaceRepository) DeletePhotosByPlaceID(ctx context.Context, placeID string) error {
	query := `DELETE FROM place_photos WHERE place_id = $1`
	if _, err := r.db.ExecContext(ctx, query, placeID); err != nil {
		return fmt.Errorf("failed to delete place photos: %w", err)
	}
	return nil
}

// CreatePhotos persists a freshly fetched photo set for a place.
func (r *PlaceRepository) CreatePhotos(ctx context.Context, photos []models.PlacePhoto) error {
	query := `
		INSERT INTO place_photos (id, place_id, created_at, photo_url, width, height)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range photos {
		p := &photos[i]
		if _, err := r.db.ExecContext(ctx, query, p.ID, p.PlaceID, p.CreatedAt, p.PhotoURL, p.Width, p.Height); err != nil {
			return fmt.Errorf("failed to insert place photo: %w", err)
		}
	}
	return nil
}
