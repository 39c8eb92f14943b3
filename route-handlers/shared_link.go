package routehandlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log"
	"net/http"
	"time"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/auth"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/datastore"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/models"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/temporal"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/webutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type SharedLinkHandler struct {
	Repo          *datastore.SharedLinkRepository
	ItineraryRepo *datastore.ItineraryRepository
	BaseURL       string

	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

func NewSharedLinkHandler(repo *datastore.SharedLinkRepository, itineraryRepo *datastore.ItineraryRepository, baseURL string) *SharedLinkHandler {
	return &SharedLinkHandler{
		Repo:          repo,
		ItineraryRepo: itineraryRepo,
		BaseURL:       baseURL,
		markdown:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:        bluemonday.UGCPolicy(),
	}
}

type createSharedLinkRequest struct {
	ExpiresInDays           *int  `json:"expires_in_days"`
	NotificationsEnabled    *bool `json:"notifications_enabled"`
	NotificationHoursBefore *int  `json:"notification_hours_before"`
}

// HandleCreateSharedLink publishes an itinerary under a fresh random
// token, with optional expiry and notification preferences.
func (h *SharedLinkHandler) HandleCreateSharedLink(w http.ResponseWriter, r *http.Request) error {
	session := auth.SessionFrom(r.Context())
	if session == nil {
		return webutil.ErrUnauthorized("")
	}

	itineraryID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(itineraryID); err != nil {
		return webutil.ErrBadRequest("Invalid itinerary ID format")
	}

	itinerary, err := h.ItineraryRepo.GetItineraryByID(r.Context(), itineraryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webutil.ErrNotFound("Itinerary not found")
		}
		return fmt.Errorf("failed to retrieve itinerary %s: %w", itineraryID, err)
	}
	if itinerary.UserID != session.UserID {
		return webutil.ErrForbidden("You do not own this itinerary")
	}

	var req createSharedLinkRequest
	if r.ContentLength > 0 {
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
		}
		defer r.Body.Close()
	}

	token, err := webutil.GenerateRandomToken(24)
	if err != nil {
		return fmt.Errorf("failed to generate share token: %w", err)
	}

	now := time.Now().UTC()
	link := models.SharedLink{
		ID:                      uuid.NewString(),
		ItineraryID:             itinerary.ID,
		UserID:                  session.UserID,
		Token:                   token,
		Title:                   itinerary.Title,
		CreatedAt:               now,
		IsActive:                true,
		NotificationsEnabled:    true,
		NotificationHoursBefore: models.DefaultNotificationHoursBefore,
	}

	if req.ExpiresInDays != nil {
		if *req.ExpiresInDays < 1 {
			return webutil.ErrBadRequest("expires_in_days must be at least 1")
		}
		expiresAt := now.AddDate(0, 0, *req.ExpiresInDays)
		link.ExpiresAt = &expiresAt
	}
	if req.NotificationsEnabled != nil {
		link.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.NotificationHoursBefore != nil {
		if !models.ValidNotificationHours(*req.NotificationHoursBefore) {
			return webutil.ErrBadRequest("notification_hours_before must be one of 6, 12, 24, 48")
		}
		link.NotificationHoursBefore = *req.NotificationHoursBefore
	}

	if err := h.Repo.CreateSharedLink(r.Context(), &link); err != nil {
		return fmt.Errorf("failed to create shared link: %w", err)
	}

	webutil.RespondWithJSON(w, http.StatusCreated, struct {
		models.SharedLink
		ShareURL string `json:"share_url"`
	}{link, fmt.Sprintf("%s/share/%s", h.BaseURL, token)})
	return nil
}

func (h *SharedLinkHandler) HandleGetSharedLinks(w http.ResponseWriter, r *http.Request) error {
	session := auth.SessionFrom(r.Context())
	if session == nil {
		return webutil.ErrUnauthorized("")
	}

	links, err := h.Repo.GetSharedLinksByUserID(r.Context(), session.UserID)
	if err != nil {
		return fmt.Errorf("failed to retrieve shared links: %w", err)
	}
	if links == nil {
		links = []models.SharedLink{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, links)
	return nil
}

type updateSharedLinkRequest struct {
	ExpiresInDays           *int  `json:"expires_in_days"`
	NotificationsEnabled    *bool `json:"notifications_enabled"`
	NotificationHoursBefore *int  `json:"notification_hours_before"`
	ClearExpiry             bool  `json:"clear_expiry"`
}

func (h *SharedLinkHandler) HandleUpdateSharedLink(w http.ResponseWriter, r *http.Request) error {
	session := auth.SessionFrom(r.Context())
	if session == nil {
		return webutil.ErrUnauthorized("")
	}

	link, err := h.loadOwnedLink(r, session.UserID)
	if err != nil {
		return err
	}

	var req updateSharedLinkRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	now := time.Now().UTC()
	if req.ClearExpiry {
		link.ExpiresAt = nil
	} else if req.ExpiresInDays != nil {
		if *req.ExpiresInDays < 1 {
			return webutil.ErrBadRequest("expires_in_days must be at least 1")
		}
		expiresAt := now.AddDate(0, 0, *req.ExpiresInDays)
		link.ExpiresAt = &expiresAt
	}
	if req.NotificationsEnabled != nil {
		link.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.NotificationHoursBefore != nil {
		if !models.ValidNotificationHours(*req.NotificationHoursBefore) {
			return webutil.ErrBadRequest("notification_hours_before must be one of 6, 12, 24, 48")
		}
		link.NotificationHoursBefore = *req.NotificationHoursBefore
	}

	if err := h.Repo.UpdateSharedLinkSettings(r.Context(), link); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webutil.ErrNotFound("Shared link not found")
		}
		return fmt.Errorf("failed to update shared link %s: %w", link.ID, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, link)
	return nil
}

// HandleResetNotification clears the notification stamp so the notifier
// may fire again for the current window. Support workflow.
func (h *SharedLinkHandler) HandleResetNotification(w http.ResponseWriter, r *http.Request) error {
	session := auth.SessionFrom(r.Context())
	if session == nil {
		return webutil.ErrUnauthorized("")
	}

	link, err := h.loadOwnedLink(r, session.UserID)
	if err != nil {
		return err
	}

	if err := h.Repo.ResetNotification(r.Context(), link.ID, session.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webutil.ErrNotFound("Shared link not found")
		}
		return fmt.Errorf("failed to reset notification for link %s: %w", link.ID, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
	return nil
}

func (h *SharedLinkHandler) HandleDeactivateSharedLink(w http.ResponseWriter, r *http.Request) error {
	session := auth.SessionFrom(r.Context())
	if session == nil {
		return webutil.ErrUnauthorized("")
	}

	link, err := h.loadOwnedLink(r, session.UserID)
	if err != nil {
		return err
	}

	if err := h.Repo.DeactivateSharedLink(r.Context(), link.ID, session.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webutil.ErrNotFound("Shared link not found")
		}
		return fmt.Errorf("failed to deactivate shared link %s: %w", link.ID, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
	return nil
}

func (h *SharedLinkHandler) loadOwnedLink(r *http.Request, userID string) (*models.SharedLink, error) {
	linkID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(linkID); err != nil {
		return nil, webutil.ErrBadRequest("Invalid shared link ID format")
	}

	link, err := h.Repo.GetSharedLinkByID(r.Context(), linkID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, webutil.ErrNotFound("Shared link not found")
		}
		return nil, fmt.Errorf("failed to retrieve shared link %s: %w", linkID, err)
	}
	if link.UserID != userID {
		return nil, webutil.ErrForbidden("You do not own this shared link")
	}
	return link, nil
}

// HandlePublicView serves the public, unauthenticated share page:
// itinerary Markdown rendered to sanitized HTML. Expired or deactivated
// links answer 404 so tokens cannot be probed for liveness.
func (h *SharedLinkHandler) HandlePublicView(w http.ResponseWriter, r *http.Request) error {
	token := chi.URLParam(r, "token")
	if token == "" {
		return webutil.ErrNotFound("")
	}

	link, err := h.Repo.GetSharedLinkByToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webutil.ErrNotFound("")
		}
		return fmt.Errorf("failed to retrieve shared link by token: %w", err)
	}

	now := time.Now().UTC()
	if !link.IsActive {
		return webutil.ErrNotFound("")
	}
	if link.ExpiresAt != nil {
		window := temporal.Window{Start: link.CreatedAt, Length: link.ExpiresAt.Sub(link.CreatedAt)}
		if window.Expired(now) {
			return webutil.ErrNotFound("")
		}
	}

	itinerary, err := h.ItineraryRepo.GetItineraryByID(r.Context(), link.ItineraryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webutil.ErrNotFound("")
		}
		return fmt.Errorf("failed to retrieve itinerary for link %s: %w", link.ID, err)
	}

	var rendered bytes.Buffer
	if err := h.markdown.Convert([]byte(itinerary.Content), &rendered); err != nil {
		return fmt.Errorf("failed to render itinerary markdown: %w", err)
	}
	safeHTML := h.policy.SanitizeBytes(rendered.Bytes())

	// View counting is best effort.
	if err := h.Repo.IncrementViewCount(r.Context(), link.ID); err != nil {
		log.Printf("WARN (SharedLink): Failed to increment view count for link %s: %v", link.ID, err)
	}

	w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeHTMLUTF8)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, publicPageTemplate, html.EscapeString(itinerary.Title), html.EscapeString(itinerary.Title), safeHTML)
	return nil
}

const publicPageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body { font-family: Georgia, serif; max-width: 720px; margin: 2rem auto; padding: 0 1rem; color: #222; }
h1, h2 { font-family: Helvetica, Arial, sans-serif; }
</style>
</head>
<body>
<h1>%s</h1>
%s
</body>
</html>
`
