package calendar

import (
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
)

// Event types that are placed on the calendar but are not meetings.
// Compared with case and punctuation stripped, so "outOfOffice" and
// "out-of-office" both match.
var nonMeetingEventTypes = map[string]struct{}{
	"workinglocation": {},
	"outofoffice":     {},
	"focustime":       {},
}

// Normalize converts one raw calendar-API event into the canonical meeting
// record. The second return value is false when the payload is not a meeting
// or cannot be interpreted; a skip is not an error and the rest of the batch
// proceeds.
func Normalize(item *gcal.Event, accountID, calendarID, viewerEmail string) (Event, bool) {
	if item == nil || item.Id == "" || item.Summary == "" {
		return Event{}, false
	}

	if _, ok := nonMeetingEventTypes[canonicalEventType(item.EventType)]; ok {
		log.Tracef("skipping non-meeting event %s (%s)", item.Id, item.EventType)
		return Event{}, false
	}

	start, startAllDay, ok := parseEventTime(item.Start)
	if !ok {
		log.Debugf("skipping event %s without a usable start time", item.Id)
		return Event{}, false
	}
	end, _, ok := parseEventTime(item.End)
	if !ok {
		// Zero-length events are valid; an event with no end at all is pinned
		// to its start so end ≥ start holds.
		end = start
	}
	if end.Before(start) {
		end = start
	}

	event := Event{
		ID:          EventID(accountID, item.Id),
		AccountID:   accountID,
		CalendarID:  calendarID,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Start:       start,
		End:         end,
		AllDay:      startAllDay,
		Organizer:   organizerName(item.Organizer),
		HTMLLink:    item.HtmlLink,
	}

	event.Attendees, event.ResponseStatus = resolveAttendees(item.Attendees, viewerEmail)

	var entryPoints []*gcal.EntryPoint
	if item.ConferenceData != nil {
		entryPoints = item.ConferenceData.EntryPoints
	}
	event.Conference = detectConference(conferenceSource{
		entryPoints: entryPoints,
		description: item.Description,
		location:    item.Location,
	})

	return event, true
}

func canonicalEventType(eventType string) string {
	t := strings.ToLower(eventType)
	t = strings.ReplaceAll(t, "-", "")
	t = strings.ReplaceAll(t, "_", "")
	return t
}

// parseEventTime prefers the timestamp field and falls back to the date-only
// field, marking the boundary all-day in that case.
func parseEventTime(edt *gcal.EventDateTime) (t time.Time, allDay bool, ok bool) {
	if edt == nil {
		return time.Time{}, false, false
	}
	if edt.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, edt.DateTime)
		if err != nil {
			return time.Time{}, false, false
		}
		return parsed, false, true
	}
	if edt.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", edt.Date, time.Local)
		if err != nil {
			return time.Time{}, false, false
		}
		return parsed, true, true
	}
	return time.Time{}, false, false
}

func organizerName(organizer *gcal.EventOrganizer) string {
	if organizer == nil {
		return ""
	}
	if organizer.DisplayName != "" {
		return organizer.DisplayName
	}
	return organizer.Email
}

// resolveAttendees maps the raw attendee rows and resolves the viewer's own
// response status. An empty attendee list means a self-created event: the
// viewer is implicitly the sole participant and counts as accepted.
func resolveAttendees(raw []*gcal.EventAttendee, viewerEmail string) ([]Attendee, ResponseStatus) {
	if len(raw) == 0 {
		return nil, ResponseAccepted
	}

	attendees := make([]Attendee, 0, len(raw))
	for _, a := range raw {
		if a == nil {
			continue
		}
		attendees = append(attendees, Attendee{
			Email:          a.Email,
			DisplayName:    a.DisplayName,
			ResponseStatus: mapResponseStatus(a.ResponseStatus),
			Self:           a.Self,
		})
	}

	// The explicit self flag wins over an email match; no matching row at all
	// leaves the event awaiting a reply.
	for _, a := range attendees {
		if a.Self {
			return attendees, a.ResponseStatus
		}
	}
	for _, a := range attendees {
		if strings.EqualFold(a.Email, viewerEmail) {
			return attendees, a.ResponseStatus
		}
	}
	return attendees, ResponseNeedsAction
}

func mapResponseStatus(raw string) ResponseStatus {
	switch raw {
	case "accepted":
		return ResponseAccepted
	case "declined":
		return ResponseDeclined
	case "tentative":
		return ResponseTentative
	default:
		return ResponseNeedsAction
	}
}
