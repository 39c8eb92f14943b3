package routehandlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/auth"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/datastore"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/models"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/webutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type BoostRequestHandler struct {
	Repo     *datastore.BoostRequestRepository
	UserRepo *datastore.UserRepository
}

func NewBoostRequestHandler(repo *datastore.BoostRequestRepository, userRepo *datastore.UserRepository) *BoostRequestHandler {
	return &BoostRequestHandler{Repo: repo, UserRepo: userRepo}
}

type createBoostRequest struct {
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"totalPrice"`
}

// HandleCreateBoostRequest accepts a quota boost purchase request.
// Requires 80% quota consumption and no other pending request.
func (h *BoostRequestHandler) HandleCreateBoostRequest(w http.ResponseWriter, r *http.Request) error {
	session := auth.SessionFrom(r.Context())
	if session == nil {
		return webutil.ErrUnauthorized("")
	}

	var req createBoostRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	expectedPrice, ok := models.BoostPriceTable[req.Quantity]
	if !ok {
		return webutil.ErrBadRequest("quantity must be one of 5, 10, 15, 20")
	}
	if math.Abs(req.TotalPrice-expectedPrice) > 0.001 {
		return webutil.ErrBadRequest(fmt.Sprintf("totalPrice for quantity %d must be %.2f", req.Quantity, expectedPrice))
	}

	user, err := h.UserRepo.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webutil.ErrNotFound("User not found")
		}
		return fmt.Errorf("failed to retrieve user %s: %w", session.UserID, err)
	}
	if !user.BoostEligible(time.Now().UTC()) {
		return webutil.ErrBadRequest("Boost requests require at least 80% of the monthly quota used")
	}

	hasPending, err := h.Repo.HasPendingBoostRequest(r.Context(), session.UserID)
	if err != nil {
		return fmt.Errorf("failed to check pending boost requests: %w", err)
	}
	if hasPending {
		return webutil.ErrBadRequest("A pending boost request already exists")
	}

	boostRequest := models.BoostRequest{
		ID:         uuid.NewString(),
		UserID:     session.UserID,
		CreatedAt:  time.Now().UTC(),
		Quantity:   req.Quantity,
		TotalPrice: expectedPrice,
		Status:     models.BoostRequestStatusPending,
	}
	if err := h.Repo.CreateBoostRequest(r.Context(), &boostRequest); err != nil {
		return fmt.Errorf("failed to create boost request: %w", err)
	}

	webutil.RespondWithJSON(w, http.StatusCreated, boostRequest)
	return nil
}

func (h *BoostRequestHandler) HandleGetBoostRequests(w http.ResponseWriter, r *http.Request) error {
	session := auth.SessionFrom(r.Context())
	if session == nil {
		return webutil.ErrUnauthorized("")
	}

	requests, err := h.Repo.GetBoostRequestsByUserID(r.Context(), session.UserID)
	if err != nil {
		return fmt.Errorf("failed to retrieve boost requests: %w", err)
	}
	if requests == nil {
		requests = []models.BoostRequest{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, requests)
	return nil
}

// HandleGetPendingBoostRequests lists the admin review queue.
func (h *BoostRequestHandler) HandleGetPendingBoostRequests(w http.ResponseWriter, r *http.Request) error {
	requests, err := h.Repo.GetPendingBoostRequests(r.Context())
	if err != nil {
		return fmt.Errorf("failed to retrieve pending boost requests: %w", err)
	}
	if requests == nil {
		requests = []models.BoostRequest{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, requests)
	return nil
}

type resolveBoostRequest struct {
	Status string `json:"status"` // approved or rejected
}

// HandleResolveBoostRequest approves or rejects a pending request.
// Approval raises the requester's monthly limit by the quantity bought.
func (h *BoostRequestHandler) HandleResolveBoostRequest(w http.ResponseWriter, r *http.Request) error {
	requestID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(requestID); err != nil {
		return webutil.ErrBadRequest("Invalid boost request ID format")
	}

	var req resolveBoostRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	status := models.BoostRequestStatus(req.Status)
	if status != models.BoostRequestStatusApproved && status != models.BoostRequestStatusRejected {
		return webutil.ErrBadRequest("status must be approved or rejected")
	}

	boostRequest, err := h.Repo.GetBoostRequestByID(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webutil.ErrNotFound("Boost request not found")
		}
		return fmt.Errorf("failed to retrieve boost request %s: %w", requestID, err)
	}
	if boostRequest.Status != models.BoostRequestStatusPending {
		return webutil.ErrConflict("Boost request already resolved")
	}

	now := time.Now().UTC()
	if err := h.Repo.ResolveBoostRequest(r.Context(), requestID, status, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webutil.ErrConflict("Boost request already resolved")
		}
		return fmt.Errorf("failed to resolve boost request %s: %w", requestID, err)
	}

	if status == models.BoostRequestStatusApproved {
		if err := h.UserRepo.AddMonthlyQuota(r.Context(), boostRequest.UserID, boostRequest.Quantity); err != nil {
			return fmt.Errorf("boost request %s approved but quota update failed: %w", requestID, err)
		}
	}

	boostRequest.Status = status
	boostRequest.ResolvedAt = &now
	webutil.RespondWithJSON(w, http.StatusOK, boostRequest)
	return nil
}
