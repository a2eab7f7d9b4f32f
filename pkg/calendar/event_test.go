package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInProgress(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	event := Event{Start: now.Add(-10 * time.Minute), End: now.Add(10 * time.Minute)}

	assert.True(t, event.InProgress(now))
	assert.True(t, event.InProgress(event.Start), "start boundary is inclusive")
	assert.False(t, event.InProgress(event.End), "end boundary is exclusive")
	assert.False(t, event.InProgress(event.Start.Add(-time.Second)))
}

func TestInProgress_ZeroDuration(t *testing.T) {
	// Events whose end was missing get pinned to their start and are never
	// considered running.
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	event := Event{Start: now, End: now}

	assert.False(t, event.InProgress(now))
}

func TestEventID(t *testing.T) {
	assert.Equal(t, "acc-1_prov-9", EventID("acc-1", "prov-9"))
}
