package app

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, forceSync http.HandlerFunc) {

	// Agenda (relevant-now view)
	r.HandleFunc("/api/agenda", deps.AgendaHandler.GetAgenda).Methods("GET")
	r.HandleFunc("/api/agenda/{eventId}/dismiss", deps.AgendaHandler.DismissEvent).Methods("POST")
	r.HandleFunc("/api/agenda/dismissed", deps.AgendaHandler.ClearDismissed).Methods("DELETE")

	// Settings
	r.HandleFunc("/api/settings", deps.SettingsHandler.GetSettings).Methods("GET")
	r.HandleFunc("/api/settings", deps.SettingsHandler.UpdateSettings).Methods("PUT")

	// Accounts
	r.HandleFunc("/api/accounts", deps.AccountHandler.ListAccounts).Methods("GET")
	r.HandleFunc("/api/accounts/{accountId}/enabled", deps.AccountHandler.SetAccountEnabled).Methods("PUT")
	r.HandleFunc("/api/accounts/{accountId}", deps.AccountHandler.DeleteAccount).Methods("DELETE")
	r.HandleFunc("/api/accounts/auth/login", deps.AuthHandler.OAuthLogin).Methods("GET")
	r.HandleFunc("/api/accounts/auth/callback", deps.AuthHandler.OAuthCallback).Methods("GET")

	// Sync
	r.HandleFunc("/api/sync", forceSync).Methods("POST")
}
