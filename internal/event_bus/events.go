package event_bus

import "time"

const (
	// TypeSnapshotReplaced fires after a sync cycle's event set has fully
	// replaced the previous one. Payload: SnapshotReplaced.
	TypeSnapshotReplaced EventType = "sync.snapshot.replaced"
	// TypeSettingsChanged fires after the settings blob is saved.
	// Payload: settings.Settings.
	TypeSettingsChanged EventType = "settings.changed"
	// TypeAgendaUpdated fires after the relevant-now view has been re-derived.
	// Payload: AgendaUpdated.
	TypeAgendaUpdated EventType = "agenda.updated"
	// TypeEventDismissed fires when the user suppresses an event id.
	// Payload: EventDismissed.
	TypeEventDismissed EventType = "agenda.event.dismissed"
	// TypeAccountRemoved fires when an account is deleted, after its stored
	// credentials are gone. Payload: AccountRemoved.
	TypeAccountRemoved EventType = "account.removed"
	// TypeMinuteTick fires once a minute so display consumers can refresh
	// relative times. Payload: MinuteTick.
	TypeMinuteTick EventType = "clock.minute"
)

type SnapshotReplaced struct {
	Generation int64
	EventCount int
	// NeedsReauth lists account ids whose refresh token was rejected this cycle.
	NeedsReauth []string
}

type AgendaUpdated struct {
	Generation  int64
	TimedCount  int
	AllDayCount int
}

type EventDismissed struct {
	EventID string
}

type AccountRemoved struct {
	AccountID string
}

type MinuteTick struct {
	At time.Time
}
