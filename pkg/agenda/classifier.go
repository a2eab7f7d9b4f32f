package agenda

import (
	"sort"
	"time"

	"github.com/nextup/nextup/pkg/calendar"
	"github.com/nextup/nextup/pkg/settings"
)

const (
	// horizon bounds the "what matters now" view to the next 24 hours.
	horizon = 24 * time.Hour
	// maxTimedEvents caps the timed list at the earliest N meetings.
	maxTimedEvents = 10
	// sameStartThreshold is the menu-bar grouping tolerance: meetings whose
	// starts differ by less than this count as starting together.
	sameStartThreshold = 60 * time.Second
)

// View is the relevant-now subset of the event snapshot. Timed and all-day
// events are exposed separately for display prioritization.
type View struct {
	Timed  []calendar.Event
	AllDay []calendar.Event
}

// Combined returns one ordered list, timed events first.
func (v View) Combined() []calendar.Event {
	combined := make([]calendar.Event, 0, len(v.Timed)+len(v.AllDay))
	combined = append(combined, v.Timed...)
	combined = append(combined, v.AllDay...)
	return combined
}

// Classify derives the bounded relevant-now view from the raw event snapshot.
func Classify(events []calendar.Event, s settings.Settings, dismissed map[string]struct{}, now time.Time) View {
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	kept := make([]calendar.Event, 0, len(events))
	for _, event := range events {
		if _, ok := dismissed[event.ID]; ok {
			continue
		}
		if !relevant(event, now, startOfToday) {
			continue
		}
		if s.ShowOnlyAccepted && event.ResponseStatus != calendar.ResponseAccepted {
			continue
		}
		kept = append(kept, event)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Start.Before(kept[j].Start)
	})

	var view View
	for _, event := range kept {
		if event.AllDay {
			view.AllDay = append(view.AllDay, event)
			continue
		}
		// Timed events beyond the horizon are only kept while in progress.
		if event.Start.Before(now.Add(horizon)) || event.InProgress(now) {
			view.Timed = append(view.Timed, event)
		}
	}
	if len(view.Timed) > maxTimedEvents {
		view.Timed = view.Timed[:maxTimedEvents]
	}
	return view
}

func relevant(event calendar.Event, now, startOfToday time.Time) bool {
	if event.Start.After(now) {
		return true
	}
	if event.InProgress(now) {
		return true
	}
	return event.AllDay && !event.Start.Before(startOfToday)
}

// GroupByStart buckets ordered events into runs that start together (under
// 60 seconds apart from the run's first event). The menu bar shows one slot
// per group.
func GroupByStart(events []calendar.Event) [][]calendar.Event {
	var groups [][]calendar.Event
	for _, event := range events {
		if len(groups) > 0 {
			head := groups[len(groups)-1][0]
			if absDuration(event.Start.Sub(head.Start)) < sameStartThreshold {
				groups[len(groups)-1] = append(groups[len(groups)-1], event)
				continue
			}
		}
		groups = append(groups, []calendar.Event{event})
	}
	return groups
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
