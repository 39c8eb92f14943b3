package routehandlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/datastore"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/webutil"
)

type AdminHandler struct {
	MetricRepo *datastore.GenerationMetricRepository
}

func NewAdminHandler(metricRepo *datastore.GenerationMetricRepository) *AdminHandler {
	return &AdminHandler{MetricRepo: metricRepo}
}

const defaultStatsDays = 30

// HandleGetDailyStats returns per-day generation activity for the admin
// dashboard. Optional ?days= overrides the 30-day default.
func (h *AdminHandler) HandleGetDailyStats(w http.ResponseWriter, r *http.Request) error {
	days := defaultStatsDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			return webutil.ErrBadRequest("days must be an integer between 1 and 365")
		}
		days = parsed
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	stats, err := h.MetricRepo.GetDailyStats(r.Context(), since)
	if err != nil {
		return fmt.Errorf("failed to retrieve daily stats: %w", err)
	}
	if stats == nil {
		stats = []datastore.DailyStat{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, stats)
	return nil
}
