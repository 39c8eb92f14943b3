package routehandlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/auth"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/datastore"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/models"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/temporal"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/webutil"
)

func setupBoostHandler(t *testing.T) (*BoostRequestHandler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	handler := NewBoostRequestHandler(
		datastore.NewBoostRequestRepository(db),
		datastore.NewUserRepository(db),
	)
	return handler, mock
}

func agentSession(userID string) *models.Session {
	return &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		UserEmail: "agent@example.com",
		UserRole:  models.UserRoleAgent,
	}
}

func authedRequest(method, target, body string, session *models.Session) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(auth.WithSession(req.Context(), session))
}

func expectUserLookup(mock sqlmock.Sqlmock, userID string, usedThisMonth, limit int) {
	expectUserLookupForMonth(mock, userID, usedThisMonth, limit, temporal.MonthKey(time.Now().UTC()))
}

func expectUserLookupForMonth(mock sqlmock.Sqlmock, userID string, usedThisMonth, limit int, month string) {
	rows := sqlmock.NewRows([]string{
		"id", "created_at", "email", "name", "agency_name", "role", "password_hash",
		"itineraries_created_today", "last_reset_date",
		"itineraries_created_this_month", "last_itinerary_month",
		"monthly_itinerary_limit",
	}).AddRow(userID, time.Now(), "agent@example.com", "Ana", "Viajes Ana", "agent", "hash",
		2, "2025-06-15", usedThisMonth, month, limit)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(userID).
		WillReturnRows(rows)
}

func TestCreateBoostRequestAtEligibilityThreshold(t *testing.T) {
	handler, mock := setupBoostHandler(t)
	userID := uuid.NewString()

	// 40 of 50 is exactly 80%, which qualifies.
	expectUserLookup(mock, userID, 40, 50)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO boost_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := authedRequest(http.MethodPost, "/api/boost-requests",
		`{"quantity": 10, "totalPrice": 9.00}`, agentSession(userID))
	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandleCreateBoostRequest)(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBoostRequestBelowThreshold(t *testing.T) {
	handler, mock := setupBoostHandler(t)
	userID := uuid.NewString()

	// 39 of 50 is 78%, just under the line.
	expectUserLookup(mock, userID, 39, 50)

	req := authedRequest(http.MethodPost, "/api/boost-requests",
		`{"quantity": 10, "totalPrice": 9.00}`, agentSession(userID))
	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandleCreateBoostRequest)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "80%")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBoostRequestIgnoresStaleMonthlyCounter(t *testing.T) {
	handler, mock := setupBoostHandler(t)
	userID := uuid.NewString()

	// The counter stopped at 45 of 50 two months ago and has not rolled
	// over since, so real usage this month is zero.
	staleMonth := temporal.MonthKey(time.Now().UTC().AddDate(0, -2, 0))
	expectUserLookupForMonth(mock, userID, 45, 50, staleMonth)

	req := authedRequest(http.MethodPost, "/api/boost-requests",
		`{"quantity": 10, "totalPrice": 9.00}`, agentSession(userID))
	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandleCreateBoostRequest)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "80%")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBoostRequestRejectsUnknownQuantity(t *testing.T) {
	handler, _ := setupBoostHandler(t)

	req := authedRequest(http.MethodPost, "/api/boost-requests",
		`{"quantity": 7, "totalPrice": 7.00}`, agentSession(uuid.NewString()))
	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandleCreateBoostRequest)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBoostRequestRejectsPriceMismatch(t *testing.T) {
	handler, _ := setupBoostHandler(t)

	req := authedRequest(http.MethodPost, "/api/boost-requests",
		`{"quantity": 10, "totalPrice": 5.00}`, agentSession(uuid.NewString()))
	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandleCreateBoostRequest)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "9.00")
}

func TestCreateBoostRequestRejectsDuplicatePending(t *testing.T) {
	handler, mock := setupBoostHandler(t)
	userID := uuid.NewString()

	expectUserLookup(mock, userID, 45, 50)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	req := authedRequest(http.MethodPost, "/api/boost-requests",
		`{"quantity": 5, "totalPrice": 5.00}`, agentSession(userID))
	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandleCreateBoostRequest)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "pending")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBoostRequestRequiresSession(t *testing.T) {
	handler, _ := setupBoostHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/boost-requests",
		strings.NewReader(`{"quantity": 5, "totalPrice": 5.00}`))
	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandleCreateBoostRequest)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func resolveRequestWithID(requestID, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPatch, "/api/admin/boost-requests/"+requestID+"/status", strings.NewReader(body))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", requestID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestResolveBoostRequestApprovalRaisesQuota(t *testing.T) {
	handler, mock := setupBoostHandler(t)
	requestID := uuid.NewString()
	userID := uuid.NewString()

	boostRows := sqlmock.NewRows([]string{"id", "user_id", "created_at", "resolved_at", "quantity", "total_price", "status"}).
		AddRow(requestID, userID, time.Now(), nil, 10, 9.00, "pending")
	mock.ExpectQuery(regexp.QuoteMeta("FROM boost_requests WHERE id = $1")).
		WithArgs(requestID).
		WillReturnRows(boostRows)
	mock.ExpectExec(regexp.QuoteMeta("SET status = $2, resolved_at = $3")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET monthly_itinerary_limit = monthly_itinerary_limit + $2")).
		WithArgs(userID, 10).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandleResolveBoostRequest)(rec, resolveRequestWithID(requestID, `{"status": "approved"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"approved"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveBoostRequestAlreadyResolved(t *testing.T) {
	handler, mock := setupBoostHandler(t)
	requestID := uuid.NewString()

	resolvedAt := time.Now().Add(-time.Hour)
	boostRows := sqlmock.NewRows([]string{"id", "user_id", "created_at", "resolved_at", "quantity", "total_price", "status"}).
		AddRow(requestID, uuid.NewString(), time.Now(), resolvedAt, 10, 9.00, "approved")
	mock.ExpectQuery(regexp.QuoteMeta("FROM boost_requests WHERE id = $1")).
		WithArgs(requestID).
		WillReturnRows(boostRows)

	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandleResolveBoostRequest)(rec, resolveRequestWithID(requestID, `{"status": "rejected"}`))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveBoostRequestRejectsBadStatus(t *testing.T) {
	handler, _ := setupBoostHandler(t)

	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandleResolveBoostRequest)(rec, resolveRequestWithID(uuid.NewString(), `{"status": "maybe"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
