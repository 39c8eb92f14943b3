package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/models"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/temporal"
)

// ErrQuotaExceeded is returned by ConsumeItineraryCredit when the user's
// monthly itinerary limit has been reached.
var ErrQuotaExceeded = errors.New("monthly itinerary limit reached")

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			id, created_at, email, name, agency_name, role, password_hash,
			itineraries_created_today, last_reset_date,
			itineraries_created_this_month, last_itinerary_month,
			monthly_itinerary_limit
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.CreatedAt, user.Email, user.Name, user.AgencyName,
		string(user.Role), user.PasswordHash,
		user.ItinerariesCreatedToday, user.LastResetDate,
		user.ItinerariesCreatedThisMonth, user.LastItineraryMonth,
		user.MonthlyItineraryLimit,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

const userColumns = `
	id, created_at, email, name, agency_name, role, password_hash,
	itineraries_created_today, last_reset_date,
	itineraries_created_this_month, last_itinerary_month,
	monthly_itinerary_limit
`

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var role string
	err := row.Scan(
		&user.ID, &user.CreatedAt, &user.Email, &user.Name, &user.AgencyName,
		&role, &user.PasswordHash,
		&user.ItinerariesCreatedToday, &user.LastResetDate,
		&user.ItinerariesCreatedThisMonth, &user.LastItineraryMonth,
		&user.MonthlyItineraryLimit,
	)
	if err != nil {
		return nil, err
	}
	user.Role = models.UserRole(role)
	return &user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// ConsumeItineraryCredit rolls both usage windows over if stale and
// increments the daily and monthly counters, all in a single conditional
// UPDATE so that concurrent creations by the same user cannot both read
// the pre-update counters. The WHERE clause refuses the increment once
// the monthly limit is reached; in that case ErrQuotaExceeded is
// returned. now must be the request's notion of the current time.
func (r *UserRepository) ConsumeItineraryCredit(ctx context.Context, userID string, now time.Time) (*models.User, error) {
	today := temporal.DayKey(now)
	month := temporal.MonthKey(now)

	query := `
		UPDATE users SET
			itineraries_created_today = CASE WHEN last_reset_date = $2 THEN itineraries_created_today + 1 ELSE 1 END,
			last_reset_date = $2,
			itineraries_created_this_month = CASE WHEN last_itinerary_month = $3 THEN itineraries_created_this_month + 1 ELSE 1 END,
			last_itinerary_month = $3
		WHERE id = $1
		  AND (CASE WHEN last_itinerary_month = $3 THEN itineraries_created_this_month ELSE 0 END) < monthly_itinerary_limit
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID, today, month))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either the user does not exist or the quota is exhausted;
			// disambiguate so the handler can answer 404 vs 429.
			if _, lookupErr := r.GetUserByID(ctx, userID); lookupErr != nil {
				return nil, lookupErr
			}
			return nil, ErrQuotaExceeded
		}
		return nil, fmt.Errorf("failed to consume itinerary credit: %w", err)
	}
	return user, nil
}

// AddMonthlyQuota raises the user's monthly itinerary limit by quantity.
// Used when a boost request is approved.
func (r *UserRepository) AddMonthlyQuota(ctx context.Context, userID string, quantity int) error {
	query := `
		UPDATE users
		SET monthly_itinerary_limit = monthly_itinerary_limit + $2
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, userID, quantity)
	if err != nil {
		return fmt.Errorf("failed to add monthly quota: %w", err)
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
