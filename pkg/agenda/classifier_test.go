package agenda

import (
	"fmt"
	"testing"
	"time"

	"github.com/nextup/nextup/pkg/calendar"
	"github.com/nextup/nextup/pkg/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var classifyNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func timedEvent(id string, start time.Time, duration time.Duration) calendar.Event {
	return calendar.Event{
		ID:             id,
		Title:          id,
		Start:          start,
		End:            start.Add(duration),
		ResponseStatus: calendar.ResponseAccepted,
	}
}

func allDayEvent(id string, day time.Time) calendar.Event {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return calendar.Event{
		ID:             id,
		Title:          id,
		Start:          start,
		End:            start.AddDate(0, 0, 1),
		AllDay:         true,
		ResponseStatus: calendar.ResponseAccepted,
	}
}

func noDismissals() map[string]struct{} {
	return map[string]struct{}{}
}

func TestClassify_FiltersPastEvents(t *testing.T) {
	events := []calendar.Event{
		timedEvent("ended", classifyNow.Add(-2*time.Hour), 30*time.Minute),
		timedEvent("upcoming", classifyNow.Add(time.Hour), 30*time.Minute),
	}

	view := Classify(events, settings.Default(), noDismissals(), classifyNow)

	require.Len(t, view.Timed, 1)
	assert.Equal(t, "upcoming", view.Timed[0].ID)
}

func TestClassify_KeepsInProgressEvents(t *testing.T) {
	events := []calendar.Event{
		timedEvent("running", classifyNow.Add(-10*time.Minute), time.Hour),
	}

	view := Classify(events, settings.Default(), noDismissals(), classifyNow)

	require.Len(t, view.Timed, 1)
	assert.Equal(t, "running", view.Timed[0].ID)
}

func TestClassify_Horizon(t *testing.T) {
	events := []calendar.Event{
		timedEvent("inside", classifyNow.Add(23*time.Hour), 30*time.Minute),
		timedEvent("outside", classifyNow.Add(25*time.Hour), 30*time.Minute),
	}

	view := Classify(events, settings.Default(), noDismissals(), classifyNow)

	require.Len(t, view.Timed, 1)
	assert.Equal(t, "inside", view.Timed[0].ID)
}

func TestClassify_Dismissed(t *testing.T) {
	events := []calendar.Event{
		timedEvent("kept", classifyNow.Add(time.Hour), 30*time.Minute),
		timedEvent("dismissed", classifyNow.Add(2*time.Hour), 30*time.Minute),
	}
	dismissed := map[string]struct{}{"dismissed": {}}

	view := Classify(events, settings.Default(), dismissed, classifyNow)

	require.Len(t, view.Timed, 1)
	assert.Equal(t, "kept", view.Timed[0].ID)
}

func TestClassify_ShowOnlyAccepted(t *testing.T) {
	needsAction := timedEvent("pending", classifyNow.Add(time.Hour), 30*time.Minute)
	needsAction.ResponseStatus = calendar.ResponseNeedsAction
	events := []calendar.Event{
		timedEvent("accepted", classifyNow.Add(2*time.Hour), 30*time.Minute),
		needsAction,
	}

	t.Run("off keeps everything", func(t *testing.T) {
		view := Classify(events, settings.Default(), noDismissals(), classifyNow)
		assert.Len(t, view.Timed, 2)
	})

	t.Run("on drops non-accepted", func(t *testing.T) {
		s := settings.Default()
		s.ShowOnlyAccepted = true
		view := Classify(events, s, noDismissals(), classifyNow)
		require.Len(t, view.Timed, 1)
		assert.Equal(t, "accepted", view.Timed[0].ID)
	})
}

func TestClassify_SortsByStart(t *testing.T) {
	events := []calendar.Event{
		timedEvent("third", classifyNow.Add(3*time.Hour), 30*time.Minute),
		timedEvent("first", classifyNow.Add(time.Hour), 30*time.Minute),
		timedEvent("second", classifyNow.Add(2*time.Hour), 30*time.Minute),
	}

	view := Classify(events, settings.Default(), noDismissals(), classifyNow)

	require.Len(t, view.Timed, 3)
	assert.Equal(t, "first", view.Timed[0].ID)
	assert.Equal(t, "second", view.Timed[1].ID)
	assert.Equal(t, "third", view.Timed[2].ID)
}

func TestClassify_CapsTimedList(t *testing.T) {
	var events []calendar.Event
	for i := 0; i < 15; i++ {
		events = append(events, timedEvent(
			fmt.Sprintf("ev-%02d", i),
			classifyNow.Add(time.Duration(i+1)*10*time.Minute),
			30*time.Minute))
	}

	view := Classify(events, settings.Default(), noDismissals(), classifyNow)

	require.Len(t, view.Timed, maxTimedEvents)
	assert.Equal(t, "ev-00", view.Timed[0].ID)
	assert.Equal(t, "ev-09", view.Timed[len(view.Timed)-1].ID)
}

func TestClassify_AllDay(t *testing.T) {
	events := []calendar.Event{
		allDayEvent("today", classifyNow),
		allDayEvent("yesterday", classifyNow.AddDate(0, 0, -1)),
		allDayEvent("tomorrow", classifyNow.AddDate(0, 0, 1)),
		timedEvent("meeting", classifyNow.Add(time.Hour), 30*time.Minute),
	}

	view := Classify(events, settings.Default(), noDismissals(), classifyNow)

	require.Len(t, view.AllDay, 2)
	assert.Equal(t, "today", view.AllDay[0].ID)
	assert.Equal(t, "tomorrow", view.AllDay[1].ID)
	require.Len(t, view.Timed, 1)
	assert.Equal(t, "meeting", view.Timed[0].ID)
}

func TestView_Combined(t *testing.T) {
	view := View{
		Timed:  []calendar.Event{timedEvent("a", classifyNow, time.Hour)},
		AllDay: []calendar.Event{allDayEvent("b", classifyNow)},
	}

	combined := view.Combined()

	require.Len(t, combined, 2)
	assert.Equal(t, "a", combined[0].ID)
	assert.Equal(t, "b", combined[1].ID)
}

func TestGroupByStart(t *testing.T) {
	t.Run("thirty seconds apart start together", func(t *testing.T) {
		events := []calendar.Event{
			timedEvent("a", classifyNow, time.Hour),
			timedEvent("b", classifyNow.Add(30*time.Second), time.Hour),
			timedEvent("c", classifyNow.Add(5*time.Minute), time.Hour),
		}

		groups := GroupByStart(events)

		require.Len(t, groups, 2)
		assert.Len(t, groups[0], 2)
		assert.Equal(t, "a", groups[0][0].ID)
		assert.Equal(t, "b", groups[0][1].ID)
		assert.Equal(t, "c", groups[1][0].ID)
	})

	t.Run("exactly sixty seconds is a new group", func(t *testing.T) {
		events := []calendar.Event{
			timedEvent("a", classifyNow, time.Hour),
			timedEvent("b", classifyNow.Add(60*time.Second), time.Hour),
		}

		groups := GroupByStart(events)

		assert.Len(t, groups, 2)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, GroupByStart(nil))
	})
}
