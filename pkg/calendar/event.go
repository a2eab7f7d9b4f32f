package calendar

import "time"

// ResponseStatus is the viewer's reply to a meeting invitation.
type ResponseStatus string

const (
	ResponseAccepted    ResponseStatus = "accepted"
	ResponseDeclined    ResponseStatus = "declined"
	ResponseTentative   ResponseStatus = "tentative"
	ResponseNeedsAction ResponseStatus = "needsAction"
)

// ConferenceProvider tags the detected conferencing solution.
type ConferenceProvider string

const (
	ProviderGoogleMeet ConferenceProvider = "googleMeet"
	ProviderZoom       ConferenceProvider = "zoom"
	ProviderTeams      ConferenceProvider = "teams"
	ProviderWebex      ConferenceProvider = "webex"
	ProviderOther      ConferenceProvider = "other"
)

type ConferenceInfo struct {
	Provider ConferenceProvider `json:"provider"`
	JoinURL  string             `json:"joinUrl,omitempty"`
}

type Attendee struct {
	Email          string         `json:"email"`
	DisplayName    string         `json:"displayName,omitempty"`
	ResponseStatus ResponseStatus `json:"responseStatus"`
	Self           bool           `json:"self"`
}

// Event is the canonical meeting record. The set of events is rebuilt from
// scratch every sync cycle; an Event has no identity beyond its ID string.
type Event struct {
	// ID is <accountID>_<providerEventID>, globally unique across accounts
	// by construction.
	ID          string          `json:"id"`
	AccountID   string          `json:"accountId"`
	CalendarID  string          `json:"calendarId"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Location    string          `json:"location,omitempty"`
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
	AllDay      bool            `json:"allDay"`
	Organizer   string          `json:"organizer,omitempty"`
	Attendees   []Attendee      `json:"attendees,omitempty"`
	// ResponseStatus is the viewer's resolved reply for this event.
	ResponseStatus ResponseStatus  `json:"responseStatus"`
	Conference     *ConferenceInfo `json:"conference,omitempty"`
	// HTMLLink deep-links into the provider's calendar UI.
	HTMLLink string `json:"htmlLink,omitempty"`
}

// EventID builds the globally unique event identifier.
func EventID(accountID, providerEventID string) string {
	return accountID + "_" + providerEventID
}

// InProgress reports whether the event is currently running (start ≤ now < end).
func (e Event) InProgress(now time.Time) bool {
	return !e.Start.After(now) && now.Before(e.End)
}

// CalendarInfo is one entry of the account's calendar list.
type CalendarInfo struct {
	ID         string
	Summary    string
	Primary    bool
	Selected   bool
	AccessRole string
}
