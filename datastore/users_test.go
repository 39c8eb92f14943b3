package datastore

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{
	"id", "created_at", "email", "name", "agency_name", "role", "password_hash",
	"itineraries_created_today", "last_reset_date",
	"itineraries_created_this_month", "last_itinerary_month",
	"monthly_itinerary_limit",
}

func setupUserRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewUserRepository(db), mock
}

func userRow(id string, createdToday int, resetDate string, createdMonth int, month string, limit int) *sqlmock.Rows {
	return sqlmock.NewRows(userRowColumns).
		AddRow(id, time.Now(), "agent@example.com", "Ana", "Viajes Ana", "agent", "hash",
			createdToday, resetDate, createdMonth, month, limit)
}

func TestConsumeItineraryCreditIncrementsCounters(t *testing.T) {
	repo, mock := setupUserRepo(t)
	userID := uuid.NewString()
	now := time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET")).
		WithArgs(userID, "2025-06-15", "2025-06").
		WillReturnRows(userRow(userID, 4, "2025-06-15", 13, "2025-06", 50))

	user, err := repo.ConsumeItineraryCredit(context.Background(), userID, now)

	require.NoError(t, err)
	assert.Equal(t, 4, user.ItinerariesCreatedToday)
	assert.Equal(t, 13, user.ItinerariesCreatedThisMonth)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeItineraryCreditRollsWindowsOver(t *testing.T) {
	repo, mock := setupUserRepo(t)
	userID := uuid.NewString()

	// First creation of a new day and month: the conditional UPDATE sends
	// the new keys, and the counters come back reset to 1.
	now := time.Date(2025, time.July, 1, 0, 30, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET")).
		WithArgs(userID, "2025-07-01", "2025-07").
		WillReturnRows(userRow(userID, 1, "2025-07-01", 1, "2025-07", 50))

	user, err := repo.ConsumeItineraryCredit(context.Background(), userID, now)

	require.NoError(t, err)
	assert.Equal(t, 1, user.ItinerariesCreatedToday)
	assert.Equal(t, 1, user.ItinerariesCreatedThisMonth)
	assert.Equal(t, "2025-07-01", user.LastResetDate)
	assert.Equal(t, "2025-07", user.LastItineraryMonth)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeItineraryCreditQuotaExhausted(t *testing.T) {
	repo, mock := setupUserRepo(t)
	userID := uuid.NewString()
	now := time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)

	// Guarded UPDATE matches no row, and the follow-up lookup finds the
	// user, so the refusal is a quota problem rather than a missing user.
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET")).
		WithArgs(userID, "2025-06-15", "2025-06").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(userID).
		WillReturnRows(userRow(userID, 2, "2025-06-15", 50, "2025-06", 50))

	_, err := repo.ConsumeItineraryCredit(context.Background(), userID, now)

	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeItineraryCreditUnknownUser(t *testing.T) {
	repo, mock := setupUserRepo(t)
	userID := uuid.NewString()
	now := time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET")).
		WithArgs(userID, "2025-06-15", "2025-06").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(userID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.ConsumeItineraryCredit(context.Background(), userID, now)

	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddMonthlyQuota(t *testing.T) {
	repo, mock := setupUserRepo(t)
	userID := uuid.NewString()

	mock.ExpectExec(regexp.QuoteMeta("SET monthly_itinerary_limit = monthly_itinerary_limit + $2")).
		WithArgs(userID, 10).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AddMonthlyQuota(context.Background(), userID, 10)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectExec(regexp.QuoteMeta("SET monthly_itinerary_limit = monthly_itinerary_limit + $2")).
		WithArgs(userID, 10).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.AddMonthlyQuota(context.Background(), userID, 10)

	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
