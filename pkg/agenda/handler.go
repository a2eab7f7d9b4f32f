package agenda

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nextup/nextup/pkg/calendar"
)

type Handler struct {
	service *Service
}

type ViewDTO struct {
	Generation int64              `json:"generation"`
	Timed      []calendar.Event   `json:"timed"`
	AllDay     []calendar.Event   `json:"allDay"`
	Groups     [][]calendar.Event `json:"groups"`
}

func NewHandler(service *Service) *Handler {
	return &Handler{service}
}

func (h *Handler) GetAgenda(w http.ResponseWriter, r *http.Request) {
	view := h.service.View()

	dto := ViewDTO{
		Generation: h.service.Generation(),
		Timed:      view.Timed,
		AllDay:     view.AllDay,
		Groups:     GroupByStart(view.Timed),
	}
	if dto.Timed == nil {
		dto.Timed = []calendar.Event{}
	}
	if dto.AllDay == nil {
		dto.AllDay = []calendar.Event{}
	}
	if dto.Groups == nil {
		dto.Groups = [][]calendar.Event{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) DismissEvent(w http.ResponseWriter, r *http.Request) {
	eventId := mux.Vars(r)["eventId"]
	if eventId == "" {
		http.Error(w, "eventId is required", http.StatusBadRequest)
		return
	}

	if err := h.service.Dismiss(r.Context(), eventId); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ClearDismissed(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearDismissed(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
