package allocation

import (
	"encoding/json"
	"net/http"

	"github.com/kwarta/kwarta/pkg/budget"
	log "github.com/sirupsen/logrus"
)

type ConfigDTO struct {
	Targets map[string]float64 `json:"targets"`
	Caps    map[string]float64 `json:"caps"`
}

func ConfigToDTO(c Config) ConfigDTO {
	dto := ConfigDTO{Targets: map[string]float64{}, Caps: map[string]float64{}}
	for g, v := range c.Targets {
		dto.Targets[string(g)] = v
	}
	for g, v := range c.Caps {
		dto.Caps[string(g)] = v
	}
	return dto
}

func DTOToConfig(dto ConfigDTO) Config {
	c := Config{Targets: map[budget.Group]float64{}, Caps: map[budget.Group]float64{}}
	for name, v := range dto.Targets {
		c.Targets[budget.Group(name)] = v
	}
	for name, v := range dto.Caps {
		c.Caps[budget.Group(name)] = v
	}
	return c
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

func (handler *Handler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	cfg, err := handler.service.Get(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ConfigToDTO(cfg)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log.Debug("Updating allocation configuration")
	w.Header().Set("Content-Type", "application/json")

	var dto ConfigDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := handler.service.Update(r.Context(), DTOToConfig(dto))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ConfigToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	log.Debug("Resetting allocation configuration to defaults")
	w.Header().Set("Content-Type", "application/json")

	cfg, err := handler.service.Reset(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ConfigToDTO(cfg)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
