package app

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/nextup/nextup/internal/config"
	"github.com/nextup/nextup/internal/database"
	"github.com/nextup/nextup/internal/event_bus"
	"github.com/nextup/nextup/pkg/notification"
	"github.com/nextup/nextup/pkg/settings"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Application wires configuration, storage, the sync pipeline, the periodic
// jobs, and the local HTTP API consumed by the UI collaborators.
type Application struct {
	cfg    config.Application
	db     *sql.DB
	deps   *Dependencies
	router *mux.Router
	srv    *http.Server
	cron   *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	syncEntry cron.EntryID
}

// NewApplication constructs the full application, ready to Run().
func NewApplication() (*Application, error) {
	cfg, err := config.Load("./config/application.yaml")
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	bus := event_bus.NewEventBus()
	deps, err := BuildDependencies(db, cfg, bus)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &Application{
		cfg:    cfg,
		db:     db,
		deps:   deps,
		cron:   cron.New(cron.WithSeconds()),
		ctx:    ctx,
		cancel: cancel,
	}

	r := mux.NewRouter()
	SetupMiddleware(r)
	RegisterRoutes(r, deps, a.forceSync)
	a.router = r
	a.srv = &http.Server{
		Handler:      r,
		Addr:         cfg.Listen,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	a.subscribe()
	if err := a.schedulePeriodicJobs(); err != nil {
		cancel()
		return nil, err
	}

	return a, nil
}

// subscribe connects the pipeline stages through the event bus: settings
// changes re-derive the agenda and re-arm the sync interval, agenda updates
// reschedule notifications, account removals purge events immediately.
func (a *Application) subscribe() {
	event_bus.SubscribeTyped[settings.Settings](a.deps.Bus, event_bus.TypeSettingsChanged,
		func(e event_bus.EventT[settings.Settings]) error {
			a.rearmSyncJob(e.Data.RefreshInterval)
			a.deps.AgendaService.ApplySettings(e.Context(), e.Data)
			return nil
		})

	event_bus.SubscribeTyped[event_bus.AgendaUpdated](a.deps.Bus, event_bus.TypeAgendaUpdated,
		func(e event_bus.EventT[event_bus.AgendaUpdated]) error {
			view := a.deps.AgendaService.View()
			a.deps.Scheduler.Reschedule(view.Timed, a.deps.AgendaService.Settings())
			return nil
		})

	event_bus.SubscribeTyped[event_bus.AccountRemoved](a.deps.Bus, event_bus.TypeAccountRemoved,
		func(e event_bus.EventT[event_bus.AccountRemoved]) error {
			a.deps.AgendaService.PurgeAccount(e.Context(), e.Data.AccountID)
			return nil
		})
}

func (a *Application) schedulePeriodicJobs() error {
	// Catch-up sweep: the backstop for missed or drifted one-shot timers.
	a.cron.Schedule(cron.Every(notification.SweepInterval), cron.FuncJob(a.deps.Scheduler.Sweep))

	// Minute tick: refresh relative displays and let in-progress events age out.
	if _, err := a.cron.AddFunc("0 * * * * *", func() {
		now := a.deps.Clock.Now()
		a.deps.AgendaService.Refresh(a.ctx)
		if err := a.deps.Bus.Publish(event_bus.NewEvent(a.ctx, event_bus.TypeMinuteTick,
			event_bus.MinuteTick{At: now})); err != nil {
			log.Errorf("failed to publish minute tick: %v", err)
		}
	}); err != nil {
		return err
	}

	a.rearmSyncJob(a.deps.AgendaService.Settings().RefreshInterval)
	return nil
}

// rearmSyncJob replaces the sync-interval entry. Called at startup and
// whenever the user changes the refresh interval.
func (a *Application) rearmSyncJob(interval time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.syncEntry != 0 {
		a.cron.Remove(a.syncEntry)
	}
	a.syncEntry = a.cron.Schedule(cron.Every(interval), cron.FuncJob(a.runSync))
	log.Debugf("sync job armed every %s", interval)
}

// runSync executes one full fetch cycle and applies the snapshot.
func (a *Application) runSync() {
	accounts, err := a.deps.AccountRepo.List(a.ctx)
	if err != nil {
		log.Errorf("sync skipped, could not list accounts: %v", err)
		return
	}

	snapshot := a.deps.Orchestrator.Sync(a.ctx, accounts)
	for _, accountId := range snapshot.NeedsReauth {
		if err := a.deps.AccountRepo.SetNeedsReauth(a.ctx, accountId, true); err != nil {
			log.Errorf("failed to flag account %s for re-auth: %v", accountId, err)
		}
	}
	a.deps.AgendaService.ReplaceSnapshot(a.ctx, snapshot)
}

func (a *Application) forceSync(w http.ResponseWriter, r *http.Request) {
	go a.runSync()
	w.WriteHeader(http.StatusAccepted)
}

// Run starts the periodic jobs and the HTTP server and blocks.
func (a *Application) Run() error {
	a.cron.Start()
	go a.runSync()

	log.Infof("Starting server on %s", a.srv.Addr)
	err := a.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown invalidates all timers and abandons in-flight network requests.
// Token writes are transactional with a decoded refresh response, so nothing
// is left half-written.
func (a *Application) Shutdown() {
	log.Info("shutting down")
	a.cancel()

	cronCtx := a.cron.Stop()
	<-cronCtx.Done()
	a.deps.Scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
	if err := a.db.Close(); err != nil {
		log.Errorf("database close: %v", err)
	}
}
