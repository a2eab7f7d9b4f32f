package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// maxEventsPerCalendar caps raw results per calendar; a rolling 24h window
// never legitimately needs more.
const maxEventsPerCalendar = 50

// ErrUnauthorized marks a 401 from the calendar API: the access token was
// invalidated mid-cycle and the caller may refresh and retry once.
var ErrUnauthorized = errors.New("calendar request unauthorized")

// API is the per-account calendar surface the orchestrator consumes.
type API interface {
	ListCalendars(ctx context.Context) ([]CalendarInfo, error)
	// ListEvents returns raw provider events with start in [from, to),
	// recurring events expanded to single instances, ordered by start time.
	ListEvents(ctx context.Context, calendarId string, from, to time.Time) ([]*gcal.Event, error)
}

// APIFactory builds an API bound to one account's access token.
type APIFactory func(ctx context.Context, accessToken string) (API, error)

type googleClient struct {
	service *gcal.Service
}

// NewGoogleClient builds the production API over google.golang.org/api with a
// static bearer token. Token refresh is owned by the account package, not by
// the HTTP client, so an expired token surfaces as ErrUnauthorized instead of
// being silently renewed.
func NewGoogleClient(ctx context.Context, accessToken string) (API, error) {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	service, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create calendar client: %w", err)
	}
	return &googleClient{service: service}, nil
}

func (c *googleClient) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	list, err := c.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError("unable to retrieve calendar list", err)
	}

	calendars := make([]CalendarInfo, 0, len(list.Items))
	for _, item := range list.Items {
		calendars = append(calendars, CalendarInfo{
			ID:         item.Id,
			Summary:    item.Summary,
			Primary:    item.Primary,
			Selected:   item.Selected,
			AccessRole: item.AccessRole,
		})
	}
	return calendars, nil
}

func (c *googleClient) ListEvents(ctx context.Context, calendarId string, from, to time.Time) ([]*gcal.Event, error) {
	events, err := c.service.Events.List(calendarId).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxEventsPerCalendar).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapAPIError(fmt.Sprintf("unable to retrieve events from calendar %s", calendarId), err)
	}
	return events.Items, nil
}

func wrapAPIError(msg string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 401 {
		return fmt.Errorf("%s: %w", msg, ErrUnauthorized)
	}
	wrapped := fmt.Errorf("%s: %w", msg, err)
	log.Error(wrapped)
	return wrapped
}
