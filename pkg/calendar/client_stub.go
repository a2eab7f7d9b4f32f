package calendar

import (
	"context"
	"time"

	gcal "google.golang.org/api/calendar/v3"
)

// StubAPI is a scripted calendar API for tests. Errors are consumed in FIFO
// order so a test can fail the first call and succeed the retry.
type StubAPI struct {
	Calendars      []CalendarInfo
	Events         map[string][]*gcal.Event
	CalendarErrors []error
	EventErrors    []error

	ListCalendarCalls int
	ListEventCalls    int
}

func NewStubAPI() *StubAPI {
	return &StubAPI{Events: map[string][]*gcal.Event{}}
}

func (s *StubAPI) ListCalendars(_ context.Context) ([]CalendarInfo, error) {
	s.ListCalendarCalls++
	if len(s.CalendarErrors) > 0 {
		err := s.CalendarErrors[0]
		s.CalendarErrors = s.CalendarErrors[1:]
		if err != nil {
			return nil, err
		}
	}
	return s.Calendars, nil
}

func (s *StubAPI) ListEvents(_ context.Context, calendarId string, from, to time.Time) ([]*gcal.Event, error) {
	s.ListEventCalls++
	if len(s.EventErrors) > 0 {
		err := s.EventErrors[0]
		s.EventErrors = s.EventErrors[1:]
		if err != nil {
			return nil, err
		}
	}
	return s.Events[calendarId], nil
}
