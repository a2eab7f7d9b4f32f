package settings

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nextup/nextup/internal/rest"
)

type Handler struct {
	service Service
}

type SettingsDTO struct {
	RefreshIntervalSeconds int64 `json:"refreshIntervalSeconds"`
	LeadTimeSeconds        int64 `json:"leadTimeSeconds"`
	ShowOnlyAccepted       bool  `json:"showOnlyAccepted"`
	PopupEnabled           bool  `json:"popupEnabled"`
	SoundEnabled           bool  `json:"soundEnabled"`
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Current(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(toDTO(settings)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var dto SettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Update(r.Context(), fromDTO(dto)); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error:   "Invalid settings",
			Details: err.Error(),
		})
		if encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toDTO(s Settings) SettingsDTO {
	return SettingsDTO{
		RefreshIntervalSeconds: int64(s.RefreshInterval.Seconds()),
		LeadTimeSeconds:        int64(s.LeadTime.Seconds()),
		ShowOnlyAccepted:       s.ShowOnlyAccepted,
		PopupEnabled:           s.PopupEnabled,
		SoundEnabled:           s.SoundEnabled,
	}
}

func fromDTO(dto SettingsDTO) Settings {
	return Settings{
		RefreshInterval:  time.Duration(dto.RefreshIntervalSeconds) * time.Second,
		LeadTime:         time.Duration(dto.LeadTimeSeconds) * time.Second,
		ShowOnlyAccepted: dto.ShowOnlyAccepted,
		PopupEnabled:     dto.PopupEnabled,
		SoundEnabled:     dto.SoundEnabled,
	}
}
