package agenda

import (
	"context"
	"sync"

	"github.com/nextup/nextup/internal/event_bus"
	"github.com/nextup/nextup/internal/utils"
	"github.com/nextup/nextup/pkg/calendar"
	"github.com/nextup/nextup/pkg/calendar_sync"
	"github.com/nextup/nextup/pkg/settings"
	log "github.com/sirupsen/logrus"
)

// Service is the observable store for the event snapshot and the derived
// relevant-now view. All mutations happen under one lock and end with a bus
// notification, so consumers never observe a half-applied cycle.
type Service struct {
	dismissedRepo DismissedRepo
	bus           *event_bus.EventBus
	clock         utils.Clock

	mu         sync.RWMutex
	generation int64
	events     []calendar.Event
	settings   settings.Settings
	dismissed  map[string]struct{}
	view       View
}

func NewService(dismissedRepo DismissedRepo, bus *event_bus.EventBus, initial settings.Settings) *Service {
	return &Service{
		dismissedRepo: dismissedRepo,
		bus:           bus,
		clock:         utils.SystemClock{},
		settings:      initial,
		dismissed:     map[string]struct{}{},
	}
}

// Restore loads the persisted dismissed set. Called once at startup.
func (s *Service) Restore(ctx context.Context) error {
	dismissed, err := s.dismissedRepo.All(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.dismissed = dismissed
	s.mu.Unlock()
	return nil
}

// View returns the current relevant-now view.
func (s *Service) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Generation returns the snapshot generation the current view was derived from.
func (s *Service) Generation() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Settings returns the settings snapshot the view was derived with.
func (s *Service) Settings() settings.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// ReplaceSnapshot applies a completed sync cycle. Snapshots are applied
// last-writer-wins: a cycle superseded by a newer one is discarded entirely.
func (s *Service) ReplaceSnapshot(ctx context.Context, snapshot calendar_sync.Snapshot) {
	s.mu.Lock()
	if snapshot.Generation <= s.generation {
		s.mu.Unlock()
		log.Debugf("discarding stale sync generation %d (current %d)", snapshot.Generation, s.generation)
		return
	}
	s.generation = snapshot.Generation
	s.events = snapshot.Events
	s.recomputeLocked()
	s.mu.Unlock()

	if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.TypeSnapshotReplaced, event_bus.SnapshotReplaced{
		Generation:  snapshot.Generation,
		EventCount:  len(snapshot.Events),
		NeedsReauth: snapshot.NeedsReauth,
	})); err != nil {
		log.Errorf("failed to publish snapshot replacement: %v", err)
	}
	s.publishUpdated(ctx)
}

// ApplySettings re-derives the view under new settings.
func (s *Service) ApplySettings(ctx context.Context, newSettings settings.Settings) {
	s.mu.Lock()
	s.settings = newSettings
	s.recomputeLocked()
	s.mu.Unlock()
	s.publishUpdated(ctx)
}

// Dismiss suppresses an event id from the view until the set is cleared.
func (s *Service) Dismiss(ctx context.Context, eventId string) error {
	if err := s.dismissedRepo.Add(ctx, eventId, s.clock.Now()); err != nil {
		return err
	}
	s.mu.Lock()
	s.dismissed[eventId] = struct{}{}
	s.recomputeLocked()
	s.mu.Unlock()

	if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.TypeEventDismissed,
		event_bus.EventDismissed{EventID: eventId})); err != nil {
		log.Errorf("failed to publish dismissal: %v", err)
	}
	s.publishUpdated(ctx)
	return nil
}

// ClearDismissed empties the dismissed set.
func (s *Service) ClearDismissed(ctx context.Context) error {
	if err := s.dismissedRepo.Clear(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.dismissed = map[string]struct{}{}
	s.recomputeLocked()
	s.mu.Unlock()
	s.publishUpdated(ctx)
	return nil
}

// PurgeAccount drops a removed account's events without waiting for the next
// sync cycle.
func (s *Service) PurgeAccount(ctx context.Context, accountId string) {
	s.mu.Lock()
	kept := s.events[:0]
	for _, event := range s.events {
		if event.AccountID != accountId {
			kept = append(kept, event)
		}
	}
	s.events = kept
	s.recomputeLocked()
	s.mu.Unlock()
	s.publishUpdated(ctx)
}

// Refresh re-derives the view against the current time so in-progress and
// expired events move without a new snapshot. Driven by the minute tick.
func (s *Service) Refresh(ctx context.Context) {
	s.mu.Lock()
	s.recomputeLocked()
	s.mu.Unlock()
	s.publishUpdated(ctx)
}

func (s *Service) recomputeLocked() {
	s.view = Classify(s.events, s.settings, s.dismissed, s.clock.Now())
}

func (s *Service) publishUpdated(ctx context.Context) {
	s.mu.RLock()
	payload := event_bus.AgendaUpdated{
		Generation:  s.generation,
		TimedCount:  len(s.view.Timed),
		AllDayCount: len(s.view.AllDay),
	}
	s.mu.RUnlock()

	if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.TypeAgendaUpdated, payload)); err != nil {
		log.Errorf("failed to publish agenda update: %v", err)
	}
}
