package routehandlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/datastore"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/webutil"
)

func setupItineraryHandler(t *testing.T) (*ItineraryHandler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	handler := NewItineraryHandler(
		datastore.NewItineraryRepository(db),
		datastore.NewUserRepository(db),
		nil, nil, nil,
	)
	return handler, mock
}

func consumedUserRow(userID string, usedToday, usedThisMonth int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "created_at", "email", "name", "agency_name", "role", "password_hash",
		"itineraries_created_today", "last_reset_date",
		"itineraries_created_this_month", "last_itinerary_month",
		"monthly_itinerary_limit",
	}).AddRow(userID, time.Now(), "agent@example.com", "Ana", "Viajes Ana", "agent", "hash",
		usedToday, "2025-06-15", usedThisMonth, "2025-06", 50)
}

func TestCreateItineraryConsumesCredit(t *testing.T) {
	handler, mock := setupItineraryHandler(t)
	userID := uuid.NewString()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET")).
		WillReturnRows(consumedUserRow(userID, 3, 12))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO itineraries")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := authedRequest(http.MethodPost, "/api/itineraries",
		`{"title": "Roma a mano", "destination": "Roma", "start_date": "2025-09-01", "end_date": "2025-09-03", "travelers": 2, "budget": "medium", "content": "# Roma"}`,
		agentSession(userID))
	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandleCreateItinerary)(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"draft"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateItineraryQuotaExceeded(t *testing.T) {
	handler, mock := setupItineraryHandler(t)
	userID := uuid.NewString()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(userID).
		WillReturnRows(consumedUserRow(userID, 2, 50))

	req := authedRequest(http.MethodPost, "/api/itineraries",
		`{"title": "Roma", "destination": "Roma"}`, agentSession(userID))
	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandleCreateItinerary)(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Monthly itinerary limit reached")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateItineraryValidatesRequest(t *testing.T) {
	handler, _ := setupItineraryHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing_destination", `{"start_date": "2025-09-01", "end_date": "2025-09-03", "travelers": 2}`},
		{"bad_dates", `{"destination": "Roma", "start_date": "01/09/2025", "end_date": "03/09/2025", "travelers": 2}`},
		{"zero_travelers", `{"destination": "Roma", "start_date": "2025-09-01", "end_date": "2025-09-03", "travelers": 0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authedRequest(http.MethodPost, "/api/itineraries/generate", tt.body, agentSession(uuid.NewString()))
			rec := httptest.NewRecorder()
			webutil.MakeHandler(handler.HandleGenerateItinerary)(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGenerateItineraryRequiresSession(t *testing.T) {
	handler, _ := setupItineraryHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/itineraries/generate", nil)
	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandleGenerateItinerary)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
