package notification

import (
	"sync"

	"github.com/nextup/nextup/pkg/calendar"
	log "github.com/sirupsen/logrus"
)

func logShow(event calendar.Event, withSound bool) {
	log.Infof("popup: %q at %s (sound=%t)", event.Title, event.Start, withSound)
}

// Popup is the external reminder surface. Calls are fire-and-forget; the
// scheduler consumes no return value.
type Popup interface {
	Show(event calendar.Event, withSound bool)
	Close()
}

// LogPopup is the stand-in collaborator used when no UI surface is attached:
// it only logs the reminder.
type LogPopup struct{}

func NewLogPopup() *LogPopup {
	return &LogPopup{}
}

func (LogPopup) Show(event calendar.Event, withSound bool) {
	logShow(event, withSound)
}

func (LogPopup) Close() {}

// StubPopup records every Show call for tests.
type StubPopup struct {
	mu     sync.Mutex
	Shown  []calendar.Event
	Sounds []bool
	Closed int
}

func NewStubPopup() *StubPopup {
	return &StubPopup{}
}

func (p *StubPopup) Show(event calendar.Event, withSound bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Shown = append(p.Shown, event)
	p.Sounds = append(p.Sounds, withSound)
}

func (p *StubPopup) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed++
}

// ShownIDs returns the ids passed to Show, in order.
func (p *StubPopup) ShownIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.Shown))
	for _, e := range p.Shown {
		ids = append(ids, e.ID)
	}
	return ids
}
