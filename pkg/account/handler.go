package account

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

type Handler struct {
	service Service
}

type AccountDTO struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Enabled     bool      `json:"enabled"`
	NeedsReauth bool      `json:"needsReauth"`
	TokenExpiry time.Time `json:"tokenExpiry"`
}

type enabledDTO struct {
	Enabled bool `json:"enabled"`
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Tokens stay server-side; the UI only needs identity and status.
	dtos := make([]AccountDTO, 0, len(accounts))
	for _, a := range accounts {
		dtos = append(dtos, AccountDTO{
			ID:          a.ID,
			Email:       a.Email,
			DisplayName: a.DisplayName,
			Enabled:     a.Enabled,
			NeedsReauth: a.NeedsReauth,
			TokenExpiry: a.TokenExpiry,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) SetAccountEnabled(w http.ResponseWriter, r *http.Request) {
	accountId := mux.Vars(r)["accountId"]

	var body enabledDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.SetEnabled(r.Context(), accountId, body.Enabled); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountId := mux.Vars(r)["accountId"]

	if err := h.service.Remove(r.Context(), accountId); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
