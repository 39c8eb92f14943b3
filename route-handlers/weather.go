package routehandlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/weather"
	"github.com/JuanjoRodri/Plan-de-viaje-a-medida-sub002/webutil"
)

type WeatherHandler struct {
	Client *weather.Client
}

func NewWeatherHandler(client *weather.Client) *WeatherHandler {
	return &WeatherHandler{Client: client}
}

// HandleGetCurrent proxies current conditions for a coordinate pair.
func (h *WeatherHandler) HandleGetCurrent(w http.ResponseWriter, r *http.Request) error {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return webutil.ErrBadRequest("lat must be a number between -90 and 90")
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		return webutil.ErrBadRequest("lon must be a number between -180 and 180")
	}

	report, err := h.Client.Current(r.Context(), lat, lon)
	if err != nil {
		return fmt.Errorf("weather lookup failed: %w", err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, report)
	return nil
}
