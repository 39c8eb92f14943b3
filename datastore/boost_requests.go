package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/models"
)

type BoostRequestRepository struct {
	db *sql.DB
}

func NewBoostRequestRepository(db *sql.DB) *BoostRequestRepository {
	return &BoostRequestRepository{db: db}
}

const boostRequestColumns = `id, user_id, created_at, resolved_at, quantity, total_price, status`

func (r *BoostRequestRepository) CreateBoostRequest(ctx context.Context, br *models.BoostRequest) error {
	query := `
		INSERT INTO boost_requests (` + boostRequestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		br.ID, br.UserID, br.CreatedAt, br.ResolvedAt, br.Quantity, br.TotalPrice, string(br.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert boost request: %w", err)
	}
	return nil
}

func scanBoostRequest(scanner interface{ Scan(...any) error }) (*models.BoostRequest, error) {
	var br models.BoostRequest
	var status string
	err := scanner.Scan(&br.ID, &br.UserID, &br.CreatedAt, &br.ResolvedAt, &br.Quantity, &br.TotalPrice, &status)
	if err != nil {
		return nil, err
	}
	br.Status = models.BoostRequestStatus(status)
	return &br, nil
}

func (r *BoostRequestRepository) GetBoostRequestByID(ctx context.Context, requestID string) (*models.BoostRequest, error) {
	query := `SELECT ` + boostRequestColumns + ` FROM boost_requests WHERE id = $1`
	br, err := scanBoostRequest(r.db.QueryRowContext(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get boost request by ID: %w", err)
	}
	return br, nil
}

func (r *BoostRequestRepository) GetBoostRequestsByUserID(ctx context.Context, userID string) ([]models.BoostRequest, error) {
	query := `
		SELECT ` + boostRequestColumns + `
		FROM boost_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query boost requests: %w", err)
	}
	defer rows.Close()

	var requests []models.BoostRequest
	for rows.Next() {
		br, err := scanBoostRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan boost request row: %w", err)
		}
		requests = append(requests, *br)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating boost request rows: %w", err)
	}
	return requests, nil
}

// GetPendingBoostRequests returns every unresolved request, oldest
// first, for the admin review queue.
func (r *BoostRequestRepository) GetPendingBoostRequests(ctx context.Context) ([]models.BoostRequest, error) {
	query := `
		SELECT ` + boostRequestColumns + `
		FROM boost_requests
		WHERE status = 'pending'
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending boost requests: %w", err)
	}
	defer rows.Close()

	var requests []models.BoostRequest
	for rows.Next() {
		br, err := scanBoostRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan boost request row: %w", err)
		}
		requests = append(requests, *br)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating boost request rows: %w", err)
	}
	return requests, nil
}

// HasPendingBoostRequest reports whether the user already has an
// unresolved request outstanding.
func (r *BoostRequestRepository) HasPendingBoostRequest(ctx context.Context, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM boost_requests WHERE user_id = $1 AND status = 'pending')`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending boost request: %w", err)
	}
	return exists, nil
}

// ResolveBoostRequest transitions a pending request to approved or
// rejected. The status guard keeps a request from being resolved twice.
func (r *BoostRequestRepository) ResolveBoostRequest(ctx context.Context, requestID string, status models.BoostRequestStatus, resolvedAt time.Time) error {
	query := `
		UPDATE boost_requests
		SET status = $2, resolved_at = $3
		WHERE id = $1 AND status = 'pending'
	`
	result, err := r.db.ExecContext(ctx, query, requestID, string(status), resolvedAt)
	if err != nil {
		return fmt.Errorf("failed to resolve boost request: %w", err)
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
