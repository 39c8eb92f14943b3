package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/auth"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/datastore"
	rh "github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/route-handlers"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/webutil"
)

const (
	apiBasePath           = "/api"
	authBasePath          = "/auth"
	itinerariesBasePath   = "/itineraries"
	sharedLinksBasePath   = "/shared-links"
	placesBasePath        = "/places"
	boostRequestsBasePath = "/boost-requests"
	adminBasePath         = "/admin"

	paramID = "id"
)

func SetupRoutes(
	userHandler *rh.UserHandler,
	itineraryHandler *rh.ItineraryHandler,
	sharedLinkHandler *rh.SharedLinkHandler,
	placesHandler *rh.PlacesHandler,
	weatherHandler *rh.WeatherHandler,
	boostRequestHandler *rh.BoostRequestHandler,
	adminHandler *rh.AdminHandler,
	sessionRepo *datastore.SessionRepository,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route(apiBasePath, func(r chi.Router) {
		r.Use(SetHeader(webutil.HeaderContentType, webutil.ContentTypeJSONUTF8))

		// Endpoints reachable without a session.
		r.Post(authBasePath+"/register", webutil.MakeHandler(userHandler.HandleRegister))
		r.Post(authBasePath+"/login", webutil.MakeHandler(userHandler.HandleLogin))

		// Everything else requires an authenticated session.
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(sessionRepo))

			r.Get(authBasePath+"/me", webutil.MakeHandler(userHandler.HandleMe))
			r.Post(authBasePath+"/logout", webutil.MakeHandler(userHandler.HandleLogout))

			configureItineraryRoutes(r, itineraryHandler, sharedLinkHandler)
			configureSharedLinkRoutes(r, sharedLinkHandler)
			configurePlacesRoutes(r, placesHandler)
			configureBoostRequestRoutes(r, boostRequestHandler)

			r.Get("/weather", webutil.MakeHandler(weatherHandler.HandleGetCurrent))

			configureAdminRoutes(r, boostRequestHandler, adminHandler)
		})
	})

	// Public share page, server-rendered HTML.
	r.Get("/share/{token}", webutil.MakeHandler(sharedLinkHandler.HandlePublicView))

	// Health check endpoint
	r.Get("/healthz", handleHealthCheck)

	return r
}

func pathWithParam(basePath string, paramName string) string {
	if basePath == "" {
		return "/{" + paramName + "}"
	}
	return basePath + "/{" + paramName + "}"
}

func configureItineraryRoutes(r chi.Router, handler *rh.ItineraryHandler, sharedLinkHandler *rh.SharedLinkHandler) {
	specificItineraryPath := pathWithParam("", paramID)

	r.Route(itinerariesBasePath, func(r chi.Router) {
		r.Get("/", webutil.MakeHandler(handler.HandleGetItineraries))
		r.Post("/", webutil.MakeHandler(handler.HandleCreateItinerary))
		r.Post("/generate", webutil.MakeHandler(handler.HandleGenerateItinerary))
		r.Route(specificItineraryPath, func(r chi.Router) {
			r.Get("/", webutil.MakeHandler(handler.HandleGetItinerary))
			r.Patch("/", webutil.MakeHandler(handler.HandleUpdateItinerary))
			r.Delete("/", webutil.MakeHandler(handler.HandleDeleteItinerary))
			r.Get("/pdf", webutil.MakeHandler(handler.HandleExportPDF))
			r.Post("/share", webutil.MakeHandler(sharedLinkHandler.HandleCreateSharedLink))
		})
	})
}

func configureSharedLinkRoutes(r chi.Router, handler *rh.SharedLinkHandler) {
	specificLinkPath := pathWithParam("", paramID)

	r.Route(sharedLinksBasePath, func(r chi.Router) {
		r.Get("/", webutil.MakeHandler(handler.HandleGetSharedLinks))
		r.Route(specificLinkPath, func(r chi.Router) {
			r.Patch("/", webutil.MakeHandler(handler.HandleUpdateSharedLink))
			r.Delete("/", webutil.MakeHandler(handler.HandleDeactivateSharedLink))
			r.Post("/reset-notification", webutil.MakeHandler(handler.HandleResetNotification))
		})
	})
}

func configurePlacesRoutes(r chi.Router, handler *rh.PlacesHandler) {
	r.Route(placesBasePath, func(r chi.Router) {
		r.Get("/search", webutil.MakeHandler(handler.HandleSearch))
		r.Get("/photos/{placeId}", webutil.MakeHandler(handler.HandleGetPhotos))
	})
}

func configureBoostRequestRoutes(r chi.Router, handler *rh.BoostRequestHandler) {
	r.Route(boostRequestsBasePath, func(r chi.Router) {
		r.Get("/", webutil.MakeHandler(handler.HandleGetBoostRequests))
		r.Post("/", webutil.MakeHandler(handler.HandleCreateBoostRequest))
	})
}

func configureAdminRoutes(r chi.Router, boostRequestHandler *rh.BoostRequestHandler, adminHandler *rh.AdminHandler) {
	r.Route(adminBasePath, func(r chi.Router) {
		r.Use(auth.RequireAdmin)

		r.Get(boostRequestsBasePath, webutil.MakeHandler(boostRequestHandler.HandleGetPendingBoostRequests))
		r.Patch(pathWithParam(boostRequestsBasePath, paramID)+"/status", webutil.MakeHandler(boostRequestHandler.HandleResolveBoostRequest))
		r.Get("/stats/daily", webutil.MakeHandler(adminHandler.HandleGetDailyStats))
	})
}

// handleHealthCheck responds to a health check request.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeTextPlainUTF8)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// SetHeader is a middleware to set a response header.
func SetHeader(key, value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(key, value)
			next.ServeHTTP(w, r)
		})
	}
}
