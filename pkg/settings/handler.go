package settings

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type DarkModeDTO struct {
	Enabled bool `json:"enabled"`
}

type Handler struct {
	repository Repository
}

func NewHandler(repository Repository) *Handler {
	return &Handler{repository}
}

func (handler *Handler) GetDarkMode(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	enabled, err := handler.repository.DarkMode(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(DarkModeDTO{Enabled: enabled}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) SetDarkMode(w http.ResponseWriter, r *http.Request) {
	log.Debug("Updating dark mode flag")
	w.Header().Set("Content-Type", "application/json")

	var dto DarkModeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.repository.StoreDarkMode(r.Context(), dto.Enabled); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
