package preset

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type EntryDTO struct {
	Category string  `json:"category"`
	Budget   float64 `json:"budget"`
	Type     string  `json:"type,omitempty"`
}

type PresetDTO struct {
	Slot   int        `json:"slot"`
	Name   string     `json:"name"`
	First  []EntryDTO `json:"first"`
	Second []EntryDTO `json:"second"`
}

func PresetToDTO(slot int, p Preset) PresetDTO {
	dto := PresetDTO{
		Slot:   slot,
		Name:   p.Name,
		First:  make([]EntryDTO, 0, len(p.First)),
		Second: make([]EntryDTO, 0, len(p.Second)),
	}
	for _, e := range p.First {
		dto.First = append(dto.First, EntryDTO{Category: e.Category, Budget: e.Budget, Type: string(e.Kind)})
	}
	for _, e := range p.Second {
		dto.Second = append(dto.Second, EntryDTO{Category: e.Category, Budget: e.Budget, Type: string(e.Kind)})
	}
	return dto
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

func (handler *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	presets, err := handler.service.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]PresetDTO, 0, len(presets))
	for slot := 1; slot <= SlotCount; slot++ {
		if p, ok := presets[slot]; ok {
			dtos = append(dtos, PresetToDTO(slot, p))
		}
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	log.Debug("Applying preset")
	w.Header().Set("Content-Type", "application/json")
	slot, ok := parseSlot(w, r)
	if !ok {
		return
	}

	p, err := handler.service.Apply(r.Context(), slot)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(PresetToDTO(slot, p)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) SaveCurrent(w http.ResponseWriter, r *http.Request) {
	log.Debug("Saving current view as preset")
	w.Header().Set("Content-Type", "application/json")
	slot, ok := parseSlot(w, r)
	if !ok {
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := handler.service.SaveCurrent(r.Context(), slot, body.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(PresetToDTO(slot, p)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	log.Debug("Resetting preset to factory default")
	w.Header().Set("Content-Type", "application/json")
	slot, ok := parseSlot(w, r)
	if !ok {
		return
	}

	p, err := handler.service.ResetToDefault(r.Context(), slot)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(PresetToDTO(slot, p)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrUnknownSlot) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func parseSlot(w http.ResponseWriter, r *http.Request) (int, bool) {
	slot, err := strconv.Atoi(mux.Vars(r)["slot"])
	if err != nil {
		http.Error(w, "invalid preset slot", http.StatusBadRequest)
		return 0, false
	}
	return slot, true
}
