package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/api"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/datastore"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/mail"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/notifier"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/pdfexport"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/places"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/planner"
	rh "github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/route-handlers"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/storage"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/weather"
)

const (
	defaultPort        = "8080"
	defaultDatabaseURL = "user=postgres password=password dbname=planviaje host=localhost port=5432 sslmode=disable"
	defaultBaseURL     = "http://localhost:8080"
	defaultMailFrom    = "avisos@plandeviaje.example"
	defaultMailName    = "Plan de Viaje"
	defaultExportDir   = "_output"
	dbPingTimeout      = 5 * time.Second
	shutdownTimeout    = 15 * time.Second
	dbMaxOpenConns     = 25
	dbMaxIdleConns     = 25
	dbConnMaxLifetime  = 5 * time.Minute
)

type config struct {
	port              string
	databaseURL       string
	baseURL           string
	resendAPIKey      string
	mailFromEmail     string
	mailFromName      string
	cronSecret        string
	openAIAPIKey      string
	googlePlacesKey   string
	openWeatherAPIKey string
	exportDir         string
}

func main() {
	cfg := loadConfig()

	db, err := setupDatabase(cfg.databaseURL)
	if err != nil {
		log.Fatalf("Database setup failed: %v", err)
	}
	defer db.Close()

	userRepo := datastore.NewUserRepository(db)
	sessionRepo := datastore.NewSessionRepository(db)
	itineraryRepo := datastore.NewItineraryRepository(db)
	sharedLinkRepo := datastore.NewSharedLinkRepository(db)
	placeRepo := datastore.NewPlaceRepository(db)
	boostRequestRepo := datastore.NewBoostRequestRepository(db)
	metricRepo := datastore.NewGenerationMetricRepository(db)

	// External service clients
	placesClient := places.NewClient(cfg.googlePlacesKey)
	photoCache := places.NewPhotoCache(placeRepo, placesClient)
	weatherClient := weather.NewClient(cfg.openWeatherAPIKey)
	itineraryGenerator := planner.NewGenerator(cfg.openAIAPIKey, metricRepo)

	pdfGenerator, err := pdfexport.NewGenerator()
	if err != nil {
		log.Fatalf("PDF generator setup failed: %v", err)
	}
	contentStore := storage.NewLocalFileStorer(cfg.exportDir)

	mailProvider := mail.NewResendProvider(cfg.resendAPIKey, cfg.mailFromEmail, cfg.mailFromName)
	expiryNotifier := notifier.New(sharedLinkRepo, mailProvider, cfg.cronSecret, cfg.baseURL)

	userHandler := rh.NewUserHandler(userRepo, sessionRepo)
	itineraryHandler := rh.NewItineraryHandler(itineraryRepo, userRepo, itineraryGenerator, pdfGenerator, contentStore)
	sharedLinkHandler := rh.NewSharedLinkHandler(sharedLinkRepo, itineraryRepo, cfg.baseURL)
	placesHandler := rh.NewPlacesHandler(photoCache, placesClient)
	weatherHandler := rh.NewWeatherHandler(weatherClient)
	boostRequestHandler := rh.NewBoostRequestHandler(boostRequestRepo, userRepo)
	adminHandler := rh.NewAdminHandler(metricRepo)

	apiRouter := api.SetupRoutes(
		userHandler,
		itineraryHandler,
		sharedLinkHandler,
		placesHandler,
		weatherHandler,
		boostRequestHandler,
		adminHandler,
		sessionRepo,
	)

	mainRouter := chi.NewRouter()
	mainRouter.Mount("/", apiRouter)

	mainRouter.Get("/cron/check-link-expirations", expiryNotifier.HandleRun)
	mainRouter.Handle("/metrics", promhttp.Handler())

	startServer(cfg.port, mainRouter)
}

func loadConfig() config {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	dbURL := os.Getenv("DB_CONNECTION_STRING")
	if dbURL == "" {
		dbURL = defaultDatabaseURL
		log.Println("WARNING: DB_CONNECTION_STRING not set, using default local connection string.")
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
		log.Println("WARNING: BASE_URL not set, share links will point at localhost.")
	}

	resendAPIKey := os.Getenv("RESEND_API_KEY")
	if resendAPIKey == "" {
		log.Println("WARNING: RESEND_API_KEY not set. Expiry notification emails will fail at runtime.")
	}

	mailFrom := os.Getenv("MAIL_FROM_EMAIL")
	if mailFrom == "" {
		mailFrom = defaultMailFrom
	}

	mailName := os.Getenv("MAIL_FROM_NAME")
	if mailName == "" {
		mailName = defaultMailName
	}

	cronSecret := os.Getenv("CRON_SECRET")
	if cronSecret == "" {
		log.Println("WARNING: CRON_SECRET not set. The notification endpoint will reject all runs.")
	}

	openAIAPIKey := os.Getenv("OPENAI_API_KEY")
	if openAIAPIKey == "" {
		log.Println("WARNING: OPENAI_API_KEY not set. Itinerary generation will fail at runtime.")
	}

	googlePlacesKey := os.Getenv("GOOGLE_PLACES_API_KEY")
	if googlePlacesKey == "" {
		log.Println("WARNING: GOOGLE_PLACES_API_KEY not set. Place search and photos will fail at runtime.")
	}

	openWeatherAPIKey := os.Getenv("OPENWEATHER_API_KEY")
	if openWeatherAPIKey == "" {
		log.Println("WARNING: OPENWEATHER_API_KEY not set. Weather lookups will fail at runtime.")
	}

	exportDir := os.Getenv("EXPORT_DIR")
	if exportDir == "" {
		exportDir = defaultExportDir
	}

	return config{
		port:              port,
		databaseURL:       dbURL,
		baseURL:           baseURL,
		resendAPIKey:      resendAPIKey,
		mailFromEmail:     mailFrom,
		mailFromName:      mailName,
		cronSecret:        cronSecret,
		openAIAPIKey:      openAIAPIKey,
		googlePlacesKey:   googlePlacesKey,
		openWeatherAPIKey: openWeatherAPIKey,
		exportDir:         exportDir,
	}
}

func setupDatabase(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close() // Close unusable connection pool
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection successful")
	return db, nil
}

func startServer(port string, router http.Handler) {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownSignal // Block until signal received
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
