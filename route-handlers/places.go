package routehandlers

import (
	"net/http"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/metrics"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/places"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/webutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type PlacesHandler struct {
	PhotoCache *places.PhotoCache
	Client     *places.Client
}

func NewPlacesHandler(photoCache *places.PhotoCache, client *places.Client) *PlacesHandler {
	return &PlacesHandler{PhotoCache: photoCache, Client: client}
}

// HandleGetPhotos returns the photo set for a place, from cache when
// fresh. Upstream failures surface as a structured body with HTTP 200;
// an empty unsuccessful response means "no photos available".
func (h *PlacesHandler) HandleGetPhotos(w http.ResponseWriter, r *http.Request) error {
	placeID := chi.URLParam(r, "placeId")
	if _, err := uuid.Parse(placeID); err != nil {
		return webutil.ErrBadRequest("Invalid place ID format")
	}
	googlePlaceID := r.URL.Query().Get("googlePlaceId")

	result := h.PhotoCache.GetPhotos(r.Context(), placeID, googlePlaceID)

	switch {
	case result.Success && result.Cached:
		metrics.PhotoCacheLookups.WithLabelValues("hit").Inc()
	case result.Success:
		metrics.PhotoCacheLookups.WithLabelValues("refetch").Inc()
	case result.Error == "no Google Place ID provided":
		metrics.PhotoCacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.PhotoCacheLookups.WithLabelValues("error").Inc()
	}

	webutil.RespondWithJSON(w, http.StatusOK, result)
	return nil
}

// HandleSearch verifies a place name against the places API.
func (h *PlacesHandler) HandleSearch(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query().Get("query")
	if query == "" {
		return webutil.ErrBadRequest("query parameter is required")
	}

	results, err := h.Client.Search(r.Context(), query)
	if err != nil {
		// Same contract as photos: upstream trouble is a structured
		// failure, not a 5xx.
		webutil.RespondWithJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"results": []places.SearchResult{},
			"error":   "place search failed",
		})
		return nil
	}

	webutil.RespondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"results": results,
	})
	return nil
}
