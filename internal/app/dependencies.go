package app

import (
	"context"
	"database/sql"

	"github.com/nextup/nextup/internal/config"
	"github.com/nextup/nextup/internal/event_bus"
	"github.com/nextup/nextup/internal/utils"
	"github.com/nextup/nextup/pkg/account"
	"github.com/nextup/nextup/pkg/agenda"
	"github.com/nextup/nextup/pkg/calendar"
	"github.com/nextup/nextup/pkg/calendar_sync"
	"github.com/nextup/nextup/pkg/notification"
	"github.com/nextup/nextup/pkg/settings"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Bus *event_bus.EventBus

	AccountRepo    account.Repository
	AccountService account.Service
	AccountHandler *account.Handler
	AuthFlow       *account.Flow
	AuthHandler    *account.AuthHandler
	TokenManager   *account.TokenManager

	Orchestrator *calendar_sync.Orchestrator

	SettingsRepo    settings.Repository
	SettingsService settings.Service
	SettingsHandler *settings.Handler

	DismissedRepo agenda.DismissedRepo
	AgendaService *agenda.Service
	AgendaHandler *agenda.Handler

	Popup     notification.Popup
	Scheduler *notification.Scheduler

	Clock utils.Clock
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, cfg config.Application, bus *event_bus.EventBus) (*Dependencies, error) {
	deps := &Dependencies{Bus: bus}
	deps.Clock = &utils.SystemClock{}

	deps.AccountRepo = account.NewRepository(db)
	deps.AccountService = account.NewService(deps.AccountRepo, bus)
	deps.AccountHandler = account.NewHandler(deps.AccountService)
	deps.AuthFlow = account.NewFlow(cfg.Google.ClientId, cfg.Google.ClientSecret,
		cfg.Host+"/api/accounts/auth/callback")
	deps.AuthHandler = account.NewAuthHandler(deps.AuthFlow, deps.AccountService)
	deps.TokenManager = account.NewTokenManager(cfg.Google.ClientId, cfg.Google.ClientSecret, deps.AccountRepo)

	deps.Orchestrator = calendar_sync.NewOrchestrator(deps.TokenManager, calendar.NewGoogleClient)

	deps.SettingsRepo = settings.NewRepository(db)
	deps.SettingsService = settings.NewService(deps.SettingsRepo, bus)
	deps.SettingsHandler = settings.NewHandler(deps.SettingsService)

	initialSettings, err := deps.SettingsRepo.Load(context.Background())
	if err != nil {
		return nil, err
	}

	deps.DismissedRepo = agenda.NewDismissedRepo(db)
	deps.AgendaService = agenda.NewService(deps.DismissedRepo, bus, initialSettings)
	deps.AgendaHandler = agenda.NewHandler(deps.AgendaService)
	if err := deps.AgendaService.Restore(context.Background()); err != nil {
		return nil, err
	}

	deps.Popup = notification.NewLogPopup()
	deps.Scheduler = notification.NewScheduler(deps.Popup, initialSettings)

	return deps, nil
}
