package calendar_sync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nextup/nextup/internal/utils"
	"github.com/nextup/nextup/pkg/account"
	"github.com/nextup/nextup/pkg/calendar"
	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
)

// fetchWindow is how far ahead events are retrieved. The classifier applies
// the same horizon, so fetching further would only be discarded.
const fetchWindow = 24 * time.Hour

// Snapshot is the aggregated result of one sync cycle. It fully replaces the
// previous event set; consumers must apply snapshots last-writer-wins by
// Generation and drop anything stale.
type Snapshot struct {
	Generation int64
	Events     []calendar.Event
	// NeedsReauth lists accounts whose refresh token was rejected; they
	// contributed nothing and require interactive re-authentication.
	NeedsReauth []string
	// Errors holds the per-account failure, keyed by account id. A failed
	// account never aborts its siblings.
	Errors map[string]error
}

// TokenEnsurer is the token lifecycle surface the orchestrator needs.
// Satisfied by *account.TokenManager.
type TokenEnsurer interface {
	EnsureValid(ctx context.Context, acc account.Account) (account.Account, error)
	Refresh(ctx context.Context, acc account.Account) (account.Account, error)
}

// Orchestrator runs one fetch chain per enabled account. Accounts proceed
// concurrently; within an account the chain is strictly sequential
// (ensure token → list calendars → fetch events → normalize).
type Orchestrator struct {
	tokens     TokenEnsurer
	newAPI     calendar.APIFactory
	clock      utils.Clock
	generation atomic.Int64
}

func NewOrchestrator(tokens TokenEnsurer, newAPI calendar.APIFactory) *Orchestrator {
	return &Orchestrator{tokens: tokens, newAPI: newAPI, clock: utils.SystemClock{}}
}

type accountResult struct {
	accountId   string
	events      []calendar.Event
	err         error
	needsReauth bool
}

// Sync fetches and normalizes events for all enabled accounts and returns the
// union as a generation-stamped snapshot.
func (o *Orchestrator) Sync(ctx context.Context, accounts []account.Account) Snapshot {
	snapshot := Snapshot{
		Generation: o.generation.Add(1),
		Errors:     map[string]error{},
	}

	results := make(chan accountResult)
	var wg sync.WaitGroup
	for _, acc := range accounts {
		if !acc.Enabled {
			continue
		}
		wg.Add(1)
		go func(acc account.Account) {
			defer wg.Done()
			results <- o.syncAccount(ctx, acc)
		}(acc)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	for result := range results {
		if result.needsReauth {
			snapshot.NeedsReauth = append(snapshot.NeedsReauth, result.accountId)
			continue
		}
		if result.err != nil {
			log.Errorf("account %s skipped this cycle: %v", result.accountId, result.err)
			snapshot.Errors[result.accountId] = result.err
			continue
		}
		snapshot.Events = append(snapshot.Events, result.events...)
	}

	log.Debugf("sync generation %d: %d events, %d accounts needing re-auth, %d account errors",
		snapshot.Generation, len(snapshot.Events), len(snapshot.NeedsReauth), len(snapshot.Errors))
	return snapshot
}

func (o *Orchestrator) syncAccount(ctx context.Context, acc account.Account) accountResult {
	result := accountResult{accountId: acc.ID}

	acc, err := o.tokens.EnsureValid(ctx, acc)
	if err != nil {
		if errors.Is(err, account.ErrRefreshRevoked) || errors.Is(err, account.ErrNoRefreshToken) {
			log.Warnf("account %s needs interactive re-authentication: %v", result.accountId, err)
			result.needsReauth = true
			return result
		}
		result.err = err
		return result
	}

	session := &accountSession{orchestrator: o, account: acc}
	api, err := o.newAPI(ctx, acc.AccessToken)
	if err != nil {
		result.err = err
		return result
	}
	session.api = api

	calendars, err := session.listOwnedCalendars(ctx)
	if err != nil {
		result.err = err
		result.needsReauth = session.needsReauth
		return result
	}

	now := o.clock.Now()
	for _, cal := range calendars {
		items, err := session.listEvents(ctx, cal.ID, now, now.Add(fetchWindow))
		if err != nil {
			result.err = err
			result.needsReauth = session.needsReauth
			return result
		}
		for _, item := range items {
			if event, ok := calendar.Normalize(item, acc.ID, cal.ID, acc.Email); ok {
				result.events = append(result.events, event)
			}
		}
	}
	return result
}

// accountSession carries one account's fetch chain and its single permitted
// mid-cycle token retry. A 401 means the token was invalidated after
// EnsureValid passed; one refresh-and-retry is allowed, a second failure is
// the account's error for this cycle.
type accountSession struct {
	orchestrator *Orchestrator
	account      account.Account
	api          calendar.API
	retried      bool
	needsReauth  bool
}

func (s *accountSession) listOwnedCalendars(ctx context.Context) ([]calendar.CalendarInfo, error) {
	calendars, err := s.api.ListCalendars(ctx)
	if errors.Is(err, calendar.ErrUnauthorized) && s.recover(ctx) {
		calendars, err = s.api.ListCalendars(ctx)
	}
	if err != nil {
		return nil, err
	}

	// Shared and foreign calendars are excluded: only calendars the viewer
	// selected and owns feed the meeting view.
	owned := make([]calendar.CalendarInfo, 0, len(calendars))
	for _, cal := range calendars {
		if cal.Selected && cal.AccessRole == "owner" {
			owned = append(owned, cal)
		}
	}
	return owned, nil
}

func (s *accountSession) listEvents(ctx context.Context, calendarId string, from, to time.Time) ([]*gcal.Event, error) {
	items, err := s.api.ListEvents(ctx, calendarId, from, to)
	if errors.Is(err, calendar.ErrUnauthorized) && s.recover(ctx) {
		items, err = s.api.ListEvents(ctx, calendarId, from, to)
	}
	return items, err
}

// recover performs the one refresh-and-retry this cycle allows. It reports
// whether the chain may retry the failed call.
func (s *accountSession) recover(ctx context.Context) bool {
	if s.retried {
		return false
	}
	s.retried = true

	acc, err := s.orchestrator.tokens.Refresh(ctx, s.account)
	if err != nil {
		if errors.Is(err, account.ErrRefreshRevoked) || errors.Is(err, account.ErrNoRefreshToken) {
			s.needsReauth = true
		}
		log.Warnf("mid-cycle token refresh for account %s failed: %v", s.account.ID, err)
		return false
	}
	api, err := s.orchestrator.newAPI(ctx, acc.AccessToken)
	if err != nil {
		log.Errorf("failed to rebuild calendar client for account %s: %v", s.account.ID, err)
		return false
	}
	s.account = acc
	s.api = api
	log.Debugf("recovered account %s after mid-cycle 401", s.account.ID)
	return true
}
