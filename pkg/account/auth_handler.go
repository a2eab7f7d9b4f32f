package account

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/nextup/nextup/internal/rest"
	log "github.com/sirupsen/logrus"
)

type authRedirect struct {
	RedirectUrl string `json:"redirectUrl"`
}

// AuthHandler serves the interactive authorization endpoints for the UI
// collaborator: it hands out the consent URL and completes the callback.
type AuthHandler struct {
	flow    *Flow
	service Service
}

func NewAuthHandler(flow *Flow, service Service) *AuthHandler {
	return &AuthHandler{flow: flow, service: service}
}

func (h *AuthHandler) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	stateNonce := uuid.New().String()
	finalUrl := r.URL.Query().Get("finalUrl")

	u := h.flow.Begin(stateNonce, finalUrl)
	log.Tracef("Redirecting to authorization URL with nonce: %s", stateNonce)

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(authRedirect{RedirectUrl: u}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.FormValue("code")
	state := r.FormValue("state")

	parts := strings.SplitN(state, "|", 2)
	if len(parts) != 2 {
		writeJSONError(w, http.StatusBadRequest, "Invalid authorization state")
		return
	}
	finalUrl := parts[0]
	nonce := parts[1]

	// A cancelled consent screen is a no-op, not an error.
	if authErr := r.FormValue("error"); authErr != "" || code == "" {
		log.Debugf("authorization cancelled or denied: %q", authErr)
		h.flow.Cancel(nonce)
		redirectBack(w, r, finalUrl, false)
		return
	}

	acc, err := h.flow.Complete(r.Context(), nonce, code)
	if err != nil {
		log.Errorf("failed to complete authorization: %v", err)
		redirectBack(w, r, finalUrl, false)
		return
	}

	if err := h.service.Add(r.Context(), acc); err != nil {
		log.Errorf("failed to store account after authorization: %v", err)
		redirectBack(w, r, finalUrl, false)
		return
	}

	redirectBack(w, r, finalUrl, true)
}

func redirectBack(w http.ResponseWriter, r *http.Request, finalUrl string, success bool) {
	suffix := "?success=false"
	if success {
		suffix = "?success=true"
	}
	http.Redirect(w, r, finalUrl+suffix, http.StatusFound)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(rest.ErrorResponse{Error: message}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
