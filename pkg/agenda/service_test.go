package agenda

import (
	"context"
	"testing"
	"time"

	"github.com/nextup/nextup/internal/event_bus"
	"github.com/nextup/nextup/internal/utils"
	"github.com/nextup/nextup/pkg/calendar"
	"github.com/nextup/nextup/pkg/calendar_sync"
	"github.com/nextup/nextup/pkg/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (*Service, *event_bus.EventBus, *utils.MockClock) {
	bus := event_bus.NewEventBus()
	service := NewService(NewStubDismissedRepo(), bus, settings.Default())
	clock := &utils.MockClock{FixedNow: classifyNow}
	service.clock = clock
	return service, bus, clock
}

func snapshotWith(generation int64, events ...calendar.Event) calendar_sync.Snapshot {
	return calendar_sync.Snapshot{Generation: generation, Events: events}
}

func TestService_ReplaceSnapshot(t *testing.T) {
	service, bus, _ := newTestService()
	ctx := context.Background()

	var updates []event_bus.AgendaUpdated
	event_bus.SubscribeTyped[event_bus.AgendaUpdated](bus, event_bus.TypeAgendaUpdated,
		func(e event_bus.EventT[event_bus.AgendaUpdated]) error {
			updates = append(updates, e.Data)
			return nil
		})

	service.ReplaceSnapshot(ctx, snapshotWith(1,
		timedEvent("a", classifyNow.Add(time.Hour), 30*time.Minute)))

	assert.Equal(t, int64(1), service.Generation())
	require.Len(t, service.View().Timed, 1)
	require.Len(t, updates, 1)
	assert.Equal(t, 1, updates[0].TimedCount)
}

func TestService_StaleSnapshotDiscarded(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	service.ReplaceSnapshot(ctx, snapshotWith(2,
		timedEvent("newer", classifyNow.Add(time.Hour), 30*time.Minute)))
	service.ReplaceSnapshot(ctx, snapshotWith(1,
		timedEvent("older", classifyNow.Add(time.Hour), 30*time.Minute)))

	assert.Equal(t, int64(2), service.Generation())
	require.Len(t, service.View().Timed, 1)
	assert.Equal(t, "newer", service.View().Timed[0].ID)
}

func TestService_Dismiss(t *testing.T) {
	service, bus, _ := newTestService()
	ctx := context.Background()

	var dismissals []event_bus.EventDismissed
	event_bus.SubscribeTyped[event_bus.EventDismissed](bus, event_bus.TypeEventDismissed,
		func(e event_bus.EventT[event_bus.EventDismissed]) error {
			dismissals = append(dismissals, e.Data)
			return nil
		})

	service.ReplaceSnapshot(ctx, snapshotWith(1,
		timedEvent("a", classifyNow.Add(time.Hour), 30*time.Minute),
		timedEvent("b", classifyNow.Add(2*time.Hour), 30*time.Minute)))

	require.NoError(t, service.Dismiss(ctx, "a"))

	require.Len(t, service.View().Timed, 1)
	assert.Equal(t, "b", service.View().Timed[0].ID)
	require.Len(t, dismissals, 1)
	assert.Equal(t, "a", dismissals[0].EventID)
}

func TestService_DismissalSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	repo := NewStubDismissedRepo()
	require.NoError(t, repo.Add(ctx, "a", classifyNow))

	service := NewService(repo, event_bus.NewEventBus(), settings.Default())
	service.clock = &utils.MockClock{FixedNow: classifyNow}
	require.NoError(t, service.Restore(ctx))

	service.ReplaceSnapshot(ctx, snapshotWith(1,
		timedEvent("a", classifyNow.Add(time.Hour), 30*time.Minute)))

	assert.Empty(t, service.View().Timed)
}

func TestService_ClearDismissed(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	service.ReplaceSnapshot(ctx, snapshotWith(1,
		timedEvent("a", classifyNow.Add(time.Hour), 30*time.Minute)))
	require.NoError(t, service.Dismiss(ctx, "a"))
	require.Empty(t, service.View().Timed)

	require.NoError(t, service.ClearDismissed(ctx))

	assert.Len(t, service.View().Timed, 1)
}

func TestService_ApplySettings(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	pending := timedEvent("pending", classifyNow.Add(time.Hour), 30*time.Minute)
	pending.ResponseStatus = calendar.ResponseNeedsAction
	service.ReplaceSnapshot(ctx, snapshotWith(1, pending))
	require.Len(t, service.View().Timed, 1)

	strict := settings.Default()
	strict.ShowOnlyAccepted = true
	service.ApplySettings(ctx, strict)

	assert.Empty(t, service.View().Timed)
	assert.Equal(t, strict, service.Settings())
}

func TestService_PurgeAccount(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	fromA := timedEvent("a_e1", classifyNow.Add(time.Hour), 30*time.Minute)
	fromA.AccountID = "a"
	fromB := timedEvent("b_e1", classifyNow.Add(2*time.Hour), 30*time.Minute)
	fromB.AccountID = "b"
	service.ReplaceSnapshot(ctx, snapshotWith(1, fromA, fromB))

	service.PurgeAccount(ctx, "a")

	require.Len(t, service.View().Timed, 1)
	assert.Equal(t, "b_e1", service.View().Timed[0].ID)
}

func TestService_RefreshAgesOutEndedEvents(t *testing.T) {
	service, _, clock := newTestService()
	ctx := context.Background()

	service.ReplaceSnapshot(ctx, snapshotWith(1,
		timedEvent("short", classifyNow.Add(time.Minute), 10*time.Minute)))
	require.Len(t, service.View().Timed, 1)

	clock.Advance(30 * time.Minute)
	service.Refresh(ctx)

	assert.Empty(t, service.View().Timed)
}
