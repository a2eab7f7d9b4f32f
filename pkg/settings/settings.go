package settings

import "time"

// Settings is the immutable snapshot every component consumes per cycle.
// Saving a new value triggers re-derivation of the relevant-now view and a
// full notification reschedule.
type Settings struct {
	// RefreshInterval is how often a sync cycle runs.
	RefreshInterval time.Duration
	// LeadTime is the interval before a meeting's start at which its
	// reminder fires.
	LeadTime time.Duration
	// ShowOnlyAccepted restricts the relevant-now view to accepted events.
	ShowOnlyAccepted bool
	PopupEnabled     bool
	SoundEnabled     bool
}

// Default returns the settings used before the user saves anything.
func Default() Settings {
	return Settings{
		RefreshInterval:  60 * time.Second,
		LeadTime:         5 * time.Minute,
		ShowOnlyAccepted: false,
		PopupEnabled:     true,
		SoundEnabled:     true,
	}
}
