package routehandlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/auth"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/datastore"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/models"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/temporal"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/webutil"
	"github.com/google/uuid"
)

type UserHandler struct {
	UserRepo    *datastore.UserRepository
	SessionRepo *datastore.SessionRepository
}

func NewUserHandler(userRepo *datastore.UserRepository, sessionRepo *datastore.SessionRepository) *UserHandler {
	return &UserHandler{UserRepo: userRepo, SessionRepo: sessionRepo}
}

type registerRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	AgencyName string `json:"agency_name"`
	Password   string `json:"password"`
}

func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return webutil.ErrBadRequest("A valid email is required")
	}
	if len(req.Password) < 8 {
		return webutil.ErrBadRequest("Password must be at least 8 characters")
	}

	passwordHash, err := webutil.GenerateHash(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	newUser := models.User{
		ID:                    uuid.NewString(),
		CreatedAt:             now,
		Email:                 req.Email,
		Name:                  req.Name,
		AgencyName:            req.AgencyName,
		Role:                  models.UserRoleAgent,
		PasswordHash:          passwordHash,
		LastResetDate:         temporal.DayKey(now),
		LastItineraryMonth:    temporal.MonthKey(now),
		MonthlyItineraryLimit: models.DefaultMonthlyItineraryLimit,
	}

	if err := h.UserRepo.CreateUser(r.Context(), &newUser); err != nil {
		return fmt.Errorf("failed to create user %s: %w", newUser.Email, err)
	}

	webutil.RespondWithJSON(w, http.StatusCreated, newUser)
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	user, err := h.UserRepo.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webutil.ErrUnauthorized("Invalid email or password")
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	passwordHash, err := webutil.GenerateHash(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if passwordHash != user.PasswordHash {
		return webutil.ErrUnauthorized("Invalid email or password")
	}

	token, err := webutil.GenerateRandomToken(32)
	if err != nil {
		return fmt.Errorf("failed to generate session token: %w", err)
	}
	tokenHash, err := webutil.GenerateHash(token)
	if err != nil {
		return fmt.Errorf("failed to hash session token: %w", err)
	}

	now := time.Now().UTC()
	session := models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(models.SessionLifetime),
		UserEmail: user.Email,
		UserRole:  user.Role,
	}
	if err := h.SessionRepo.CreateSession(r.Context(), &session, tokenHash); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	// Opportunistic cleanup of lapsed sessions. Non-fatal; the lookup
	// path rejects expired sessions anyway.
	if err := h.SessionRepo.DeleteExpiredSessions(r.Context()); err != nil {
		log.Printf("WARN (User): Failed to clean up expired sessions: %v", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	webutil.RespondWithJSON(w, http.StatusOK, user)
	return nil
}

func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) error {
	session := auth.SessionFrom(r.Context())
	if session == nil {
		return webutil.ErrUnauthorized("")
	}

	if err := h.SessionRepo.DeleteSession(r.Context(), session.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	webutil.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
	return nil
}

// HandleMe returns the authenticated user's profile including usage
// counters and boost eligibility.
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) error {
	session := auth.SessionFrom(r.Context())
	if session == nil {
		return webutil.ErrUnauthorized("")
	}

	user, err := h.UserRepo.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webutil.ErrNotFound("User not found")
		}
		return fmt.Errorf("failed to retrieve user %s: %w", session.UserID, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, struct {
		*models.User
		BoostEligible bool `json:"boost_eligible"`
	}{user, user.BoostEligible(time.Now().UTC())})
	return nil
}
