package routehandlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/datastore"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/webutil"
)

var sharedLinkRowColumns = []string{
	"id", "itinerary_id", "user_id", "token", "title", "created_at", "expires_at",
	"is_active", "view_count", "notifications_enabled",
	"notification_hours_before", "last_notification_sent_at",
}

var itineraryRowColumns = []string{
	"id", "user_id", "created_at", "updated_at", "title", "destination",
	"start_date", "end_date", "travelers", "budget", "content", "status",
}

func setupSharedLinkHandler(t *testing.T) (*SharedLinkHandler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	handler := NewSharedLinkHandler(
		datastore.NewSharedLinkRepository(db),
		datastore.NewItineraryRepository(db),
		"https://planviaje.example",
	)
	return handler, mock
}

func publicViewRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/share/"+token, nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("token", token)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func linkRow(linkID, itineraryID string, expiresAt *time.Time, active bool) *sqlmock.Rows {
	return sqlmock.NewRows(sharedLinkRowColumns).
		AddRow(linkID, itineraryID, uuid.NewString(), "tok123", "Roma en 3 días",
			time.Now().UTC().Add(-24*time.Hour), expiresAt, active, 7, true, 12, nil)
}

func TestPublicViewRendersSanitizedMarkdown(t *testing.T) {
	handler, mock := setupSharedLinkHandler(t)
	linkID := uuid.NewString()
	itineraryID := uuid.NewString()

	mock.ExpectQuery(regexp.QuoteMeta("FROM shared_links WHERE token = $1")).
		WithArgs("tok123").
		WillReturnRows(linkRow(linkID, itineraryID, nil, true))

	content := "# Día 1\n\n- Coliseo a las 09:00\n\n<script>alert(1)</script>"
	itineraryRows := sqlmock.NewRows(itineraryRowColumns).
		AddRow(itineraryID, uuid.NewString(), time.Now(), time.Now(), "Roma en 3 días", "Roma",
			"2025-09-01", "2025-09-03", 2, "medium", content, "generated")
	mock.ExpectQuery(regexp.QuoteMeta("FROM itineraries WHERE id = $1")).
		WithArgs(itineraryID).
		WillReturnRows(itineraryRows)
	mock.ExpectExec(regexp.QuoteMeta("SET view_count = view_count + 1")).
		WithArgs(linkID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandlePublicView)(rec, publicViewRequest("tok123"))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h1>Día 1</h1>")
	assert.Contains(t, body, "Coliseo")
	assert.NotContains(t, body, "<script>")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicViewExpiredLinkIs404(t *testing.T) {
	handler, mock := setupSharedLinkHandler(t)

	expiresAt := time.Now().UTC().Add(-time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("FROM shared_links WHERE token = $1")).
		WithArgs("tok123").
		WillReturnRows(linkRow(uuid.NewString(), uuid.NewString(), &expiresAt, true))

	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandlePublicView)(rec, publicViewRequest("tok123"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicViewDeactivatedLinkIs404(t *testing.T) {
	handler, mock := setupSharedLinkHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM shared_links WHERE token = $1")).
		WithArgs("tok123").
		WillReturnRows(linkRow(uuid.NewString(), uuid.NewString(), nil, false))

	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandlePublicView)(rec, publicViewRequest("tok123"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicViewUnknownTokenIs404(t *testing.T) {
	handler, mock := setupSharedLinkHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM shared_links WHERE token = $1")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(sharedLinkRowColumns))

	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandlePublicView)(rec, publicViewRequest("nope"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSharedLinkValidatesNotificationHours(t *testing.T) {
	handler, mock := setupSharedLinkHandler(t)
	userID := uuid.NewString()
	itineraryID := uuid.NewString()

	itineraryRows := sqlmock.NewRows(itineraryRowColumns).
		AddRow(itineraryID, userID, time.Now(), time.Now(), "Roma", "Roma",
			"2025-09-01", "2025-09-03", 2, "medium", "# Roma", "generated")
	mock.ExpectQuery(regexp.QuoteMeta("FROM itineraries WHERE id = $1")).
		WithArgs(itineraryID).
		WillReturnRows(itineraryRows)

	req := authedRequest(http.MethodPost, "/api/itineraries/"+itineraryID+"/share",
		`{"expires_in_days": 7, "notification_hours_before": 9}`, agentSession(userID))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", itineraryID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandleCreateSharedLink)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "6, 12, 24, 48")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSharedLinkRequiresOwnership(t *testing.T) {
	handler, mock := setupSharedLinkHandler(t)
	itineraryID := uuid.NewString()

	itineraryRows := sqlmock.NewRows(itineraryRowColumns).
		AddRow(itineraryID, uuid.NewString(), time.Now(), time.Now(), "Roma", "Roma",
			"2025-09-01", "2025-09-03", 2, "medium", "# Roma", "generated")
	mock.ExpectQuery(regexp.QuoteMeta("FROM itineraries WHERE id = $1")).
		WithArgs(itineraryID).
		WillReturnRows(itineraryRows)

	req := authedRequest(http.MethodPost, "/api/itineraries/"+itineraryID+"/share", "", agentSession(uuid.NewString()))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", itineraryID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandleCreateSharedLink)(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSharedLinkDefaults(t *testing.T) {
	handler, mock := setupSharedLinkHandler(t)
	userID := uuid.NewString()
	itineraryID := uuid.NewString()

	itineraryRows := sqlmock.NewRows(itineraryRowColumns).
		AddRow(itineraryID, userID, time.Now(), time.Now(), "Roma", "Roma",
			"2025-09-01", "2025-09-03", 2, "medium", "# Roma", "generated")
	mock.ExpectQuery(regexp.QuoteMeta("FROM itineraries WHERE id = $1")).
		WithArgs(itineraryID).
		WillReturnRows(itineraryRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shared_links")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := authedRequest(http.MethodPost, "/api/itineraries/"+itineraryID+"/share", "", agentSession(userID))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", itineraryID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandleCreateSharedLink)(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"share_url":"https://planviaje.example/share/`)
	assert.Contains(t, body, `"notification_hours_before":12`)
	// A link created without an expiry never expires.
	assert.NotContains(t, body, `"expires_at"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
