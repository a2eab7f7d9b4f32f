package notification

import (
	"sync"
	"time"

	"github.com/nextup/nextup/internal/utils"
	"github.com/nextup/nextup/pkg/calendar"
	"github.com/nextup/nextup/pkg/settings"
	log "github.com/sirupsen/logrus"
)

// SweepInterval is how often the catch-up sweep re-checks pending reminders.
// The sweep is the correctness backstop against drifted or missed one-shot
// timers, e.g. after system sleep.
const SweepInterval = 30 * time.Second

type fireState int

const (
	stateUnscheduled fireState = iota
	stateScheduled
	stateFired
)

// entry tracks one event id's reminder lifecycle. stateFired is terminal for
// the id until an explicit Clear; it survives the event disappearing and
// reappearing across sync cycles, which is what makes delivery at-most-once.
type entry struct {
	event  calendar.Event
	state  fireState
	fireAt time.Time
	timer  *time.Timer
}

// Scheduler guarantees each qualifying meeting triggers the popup exactly
// once at start − leadTime. Rescheduling always cancels every pending timer
// first so no stale closure fires with an outdated lead time.
type Scheduler struct {
	popup Popup
	clock utils.Clock

	mu       sync.Mutex
	entries  map[string]*entry
	settings settings.Settings
}

func NewScheduler(popup Popup, initial settings.Settings) *Scheduler {
	return &Scheduler{
		popup:    popup,
		clock:    utils.SystemClock{},
		entries:  map[string]*entry{},
		settings: initial,
	}
}

// Reschedule replaces the candidate set and re-arms all reminders under the
// given settings. Candidates are the relevant-now timed events; all-day
// events carry no time-of-day to remind at and are ignored.
func (s *Scheduler) Reschedule(candidates []calendar.Event, newSettings settings.Settings) {
	s.mu.Lock()

	s.settings = newSettings
	s.cancelAllLocked()

	candidateIds := make(map[string]struct{}, len(candidates))
	var fireNow []string

	if newSettings.PopupEnabled {
		now := s.clock.Now()
		for _, event := range candidates {
			if event.AllDay {
				continue
			}
			candidateIds[event.ID] = struct{}{}

			e := s.entries[event.ID]
			if e == nil {
				e = &entry{}
				s.entries[event.ID] = e
			}
			e.event = event
			if e.state == stateFired {
				continue
			}
			e.fireAt = event.Start.Add(-newSettings.LeadTime)

			switch {
			case !e.fireAt.After(now) && event.Start.After(now):
				// The fire time already passed while the meeting has not
				// started: the process was asleep or just launched. Fire now.
				fireNow = append(fireNow, event.ID)
			case e.fireAt.After(now):
				s.armLocked(event.ID, e, now)
			default:
				// Meeting already started; nothing to remind about.
			}
		}
	}

	// Unfired state for ids no longer in the candidate set is dropped; fired
	// ids are kept so a meeting reappearing next cycle cannot fire again.
	for id, e := range s.entries {
		if _, ok := candidateIds[id]; !ok && e.state != stateFired {
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()

	for _, id := range fireNow {
		s.fire(id)
	}
}

// Sweep fires any pending reminder whose time has passed. It runs on a fixed
// interval independently of the one-shot timers.
func (s *Scheduler) Sweep() {
	s.mu.Lock()
	if !s.settings.PopupEnabled {
		s.mu.Unlock()
		return
	}
	now := s.clock.Now()
	var due []string
	for id, e := range s.entries {
		if e.state == stateFired {
			continue
		}
		if !e.fireAt.After(now) && e.event.Start.After(now) {
			due = append(due, id)
		}
	}
	s.mu.Unlock()

	for _, id := range due {
		s.fire(id)
	}
}

// Clear forgets all reminder state, including fired ids.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	s.cancelAllLocked()
	s.entries = map[string]*entry{}
	s.mu.Unlock()
	s.popup.Close()
}

// Stop cancels all pending timers on shutdown without touching fired state.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.cancelAllLocked()
	s.mu.Unlock()
}

// fire delivers the reminder at most once: the check-and-set of stateFired
// and the timer teardown happen atomically, the popup call happens outside
// the lock.
func (s *Scheduler) fire(id string) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok || e.state == stateFired {
		s.mu.Unlock()
		return
	}
	e.state = stateFired
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	event := e.event
	withSound := s.settings.SoundEnabled
	s.mu.Unlock()

	log.Infof("reminder: %q starts at %s", event.Title, event.Start)
	s.popup.Show(event, withSound)
}

func (s *Scheduler) armLocked(id string, e *entry, now time.Time) {
	e.state = stateScheduled
	e.timer = time.AfterFunc(e.fireAt.Sub(now), func() { s.fire(id) })
	log.Debugf("armed reminder for %s at %s", id, e.fireAt)
}

func (s *Scheduler) cancelAllLocked() {
	for _, e := range s.entries {
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
		if e.state == stateScheduled {
			e.state = stateUnscheduled
		}
	}
}
