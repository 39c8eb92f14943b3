package routehandlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/auth"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/datastore"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/models"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/pdfexport"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/planner"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/storage"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/webutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ItineraryHandler struct {
	Repo         *datastore.ItineraryRepository
	UserRepo     *datastore.UserRepository
	Generator    *planner.Generator
	PDFGenerator *pdfexport.Generator
	ContentStore storage.ContentStorer
}

func NewItineraryHandler(
	repo *datastore.ItineraryRepository,
	userRepo *datastore.UserRepository,
	generator *planner.Generator,
	pdfGenerator *pdfexport.Generator,
	contentStore storage.ContentStorer,
) *ItineraryHandler {
	return &ItineraryHandler{
		Repo:         repo,
		UserRepo:     userRepo,
		Generator:    generator,
		PDFGenerator: pdfGenerator,
		ContentStore: contentStore,
	}
}

type generateItineraryRequest struct {
	Title       string `json:"title"`
	Destination string `json:"destination"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Travelers   int    `json:"travelers"`
	Budget      string `json:"budget"`
	Preferences string `json:"preferences"`
}

func (req *generateItineraryRequest) validate() error {
	if req.Destination == "" {
		return webutil.ErrBadRequest("destination is required")
	}
	for _, d := range []string{req.StartDate, req.EndDate} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return webutil.ErrBadRequest("start_date and end_date must be YYYY-MM-DD")
		}
	}
	if req.Travelers < 1 {
		return webutil.ErrBadRequest("travelers must be at least 1")
	}
	return nil
}

// HandleGenerateItinerary consumes one itinerary credit (rolling the
// usage windows over if stale), generates content with the LLM and
// persists the result as a new itinerary.
func (h *ItineraryHandler) HandleGenerateItinerary(w http.ResponseWriter, r *http.Request) error {
	session := auth.SessionFrom(r.Context())
	if session == nil {
		return webutil.ErrUnauthorized("")
	}

	var req generateItineraryRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	if err := req.validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	user, err := h.UserRepo.ConsumeItineraryCredit(r.Context(), session.UserID, now)
	if err != nil {
		if errors.Is(err, datastore.ErrQuotaExceeded) {
			return webutil.ErrTooManyRequests("Monthly itinerary limit reached")
		}
		if errors.Is(err, sql.ErrNoRows) {
			return webutil.ErrNotFound("User not found")
		}
		return fmt.Errorf("failed to consume itinerary credit: %w", err)
	}

	content, err := h.Generator.Generate(r.Context(), session.UserID, planner.Request{
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Travelers:   req.Travelers,
		Budget:      req.Budget,
		Preferences: req.Preferences,
	})
	if err != nil {
		return fmt.Errorf("itinerary generation failed: %w", err)
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("%s, %s", req.Destination, req.StartDate)
	}

	itinerary := models.Itinerary{
		ID:          uuid.NewString(),
		UserID:      session.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Title:       title,
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Travelers:   req.Travelers,
		Budget:      req.Budget,
		Content:     content,
		Status:      models.ItineraryStatusGenerated,
	}
	if err := h.Repo.CreateItinerary(r.Context(), &itinerary); err != nil {
		return fmt.Errorf("failed to create itinerary: %w", err)
	}

	webutil.RespondWithJSON(w, http.StatusCreated, struct {
		models.Itinerary
		UsedToday     int `json:"itineraries_created_today"`
		UsedThisMonth int `json:"itineraries_created_this_month"`
	}{itinerary, user.ItinerariesCreatedToday, user.ItinerariesCreatedThisMonth})
	return nil
}

type createItineraryRequest struct {
	Title       string `json:"title"`
	Destination string `json:"destination"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Travelers   int    `json:"travelers"`
	Budget      string `json:"budget"`
	Content     string `json:"content"`
}

// HandleCreateItinerary creates a manually written itinerary. It counts
// against the same usage windows as generated ones.
func (h *ItineraryHandler) HandleCreateItinerary(w http.ResponseWriter, r *http.Request) error {
	session := auth.SessionFrom(r.Context())
	if session == nil {
		return webutil.ErrUnauthorized("")
	}

	var req createItineraryRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	if req.Title == "" || req.Destination == "" {
		return webutil.ErrBadRequest("title and destination are required")
	}

	now := time.Now().UTC()
	if _, err := h.UserRepo.ConsumeItineraryCredit(r.Context(), session.UserID, now); err != nil {
		if errors.Is(err, datastore.ErrQuotaExceeded) {
			return webutil.ErrTooManyRequests("Monthly itinerary limit reached")
		}
		return fmt.Errorf("failed to consume itinerary credit: %w", err)
	}

	itinerary := models.Itinerary{
		ID:          uuid.NewString(),
		UserID:      session.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Title:       req.Title,
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Travelers:   req.Travelers,
		Budget:      req.Budget,
		Content:     req.Content,
		Status:      models.ItineraryStatusDraft,
	}
	if err := h.Repo.CreateItinerary(r.Context(), &itinerary); err != nil {
		return fmt.Errorf("failed to create itinerary: %w", err)
	}

	webutil.RespondWithJSON(w, http.StatusCreated, itinerary)
	return nil
}

func (h *ItineraryHandler) HandleGetItineraries(w http.ResponseWriter, r *http.Request) error {
	session := auth.SessionFrom(r.Context())
	if session == nil {
		return webutil.ErrUnauthorized("")
	}

	itineraries, err := h.Repo.GetItinerariesByUserID(r.Context(), session.UserID)
	if err != nil {
		return fmt.Errorf("failed to retrieve itineraries: %w", err)
	}
	if itineraries == nil {
		itineraries = []models.Itinerary{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, itineraries)
	return nil
}

// loadOwnedItinerary fetches an itinerary and enforces ownership. Admins
// may read any itinerary.
func (h *ItineraryHandler) loadOwnedItinerary(r *http.Request) (*models.Itinerary, error) {
	session := auth.SessionFrom(r.Context())
	if session == nil {
		return nil, webutil.ErrUnauthorized("")
	}

	itineraryID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(itineraryID); err != nil {
		return nil, webutil.ErrBadRequest("Invalid itinerary ID format")
	}

	itinerary, err := h.Repo.GetItineraryByID(r.Context(), itineraryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, webutil.ErrNotFound("Itinerary not found")
		}
		return nil, fmt.Errorf("failed to retrieve itinerary %s: %w", itineraryID, err)
	}
	if itinerary.UserID != session.UserID && !session.IsAdmin() {
		return nil, webutil.ErrForbidden("You do not own this itinerary")
	}
	return itinerary, nil
}

func (h *ItineraryHandler) HandleGetItinerary(w http.ResponseWriter, r *http.Request) error {
	itinerary, err := h.loadOwnedItinerary(r)
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, itinerary)
	return nil
}

type updateItineraryRequest struct {
	Title       *string `json:"title"`
	Destination *string `json:"destination"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Travelers   *int    `json:"travelers"`
	Budget      *string `json:"budget"`
	Content     *string `json:"content"`
}

func (h *ItineraryHandler) HandleUpdateItinerary(w http.ResponseWriter, r *http.Request) error {
	itinerary, err := h.loadOwnedItinerary(r)
	if err != nil {
		return err
	}

	var req updateItineraryRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	if req.Title != nil {
		itinerary.Title = *req.Title
	}
	if req.Destination != nil {
		itinerary.Destination = *req.Destination
	}
	if req.StartDate != nil {
		itinerary.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		itinerary.EndDate = *req.EndDate
	}
	if req.Travelers != nil {
		itinerary.Travelers = *req.Travelers
	}
	if req.Budget != nil {
		itinerary.Budget = *req.Budget
	}
	if req.Content != nil {
		itinerary.Content = *req.Content
		itinerary.Status = models.ItineraryStatusEdited
	}
	itinerary.UpdatedAt = time.Now().UTC()

	if err := h.Repo.UpdateItinerary(r.Context(), itinerary); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webutil.ErrNotFound("Itinerary not found")
		}
		return fmt.Errorf("failed to update itinerary %s: %w", itinerary.ID, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, itinerary)
	return nil
}

func (h *ItineraryHandler) HandleDeleteItinerary(w http.ResponseWriter, r *http.Request) error {
	itinerary, err := h.loadOwnedItinerary(r)
	if err != nil {
		return err
	}

	if err := h.Repo.DeleteItinerary(r.Context(), itinerary.ID, itinerary.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webutil.ErrNotFound("Itinerary not found")
		}
		return fmt.Errorf("failed to delete itinerary %s: %w", itinerary.ID, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
	return nil
}

// HandleExportPDF renders the itinerary to PDF, stores a copy locally
// and streams it back as a download.
func (h *ItineraryHandler) HandleExportPDF(w http.ResponseWriter, r *http.Request) error {
	itinerary, err := h.loadOwnedItinerary(r)
	if err != nil {
		return err
	}

	pdfBytes, err := h.PDFGenerator.Generate(itinerary)
	if err != nil {
		return fmt.Errorf("failed to generate PDF for itinerary %s: %w", itinerary.ID, err)
	}

	if _, err := h.ContentStore.Store(itinerary.UserID, itinerary.ID, pdfBytes, "pdf"); err != nil {
		// Storing a copy is best effort; the download still proceeds.
		log.Printf("WARN (ItineraryHandler): Failed to store PDF copy for itinerary %s: %v", itinerary.ID, err)
	}

	w.Header().Set(webutil.HeaderContentType, webutil.ContentTypePDF)
	w.Header().Set(webutil.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.pdf"`, itinerary.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdfBytes)
	return nil
}
