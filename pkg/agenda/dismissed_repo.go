package agenda

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// DismissedRepo persists event ids the user has explicitly suppressed.
// Dismissals survive restarts and hide the event until the set is cleared.
type DismissedRepo interface {
	Add(ctx context.Context, eventId string, at time.Time) error
	All(ctx context.Context) (map[string]struct{}, error)
	Clear(ctx context.Context) error
}

type DismissedRepoImpl struct {
	db *sql.DB
}

func NewDismissedRepo(db *sql.DB) *DismissedRepoImpl {
	return &DismissedRepoImpl{db: db}
}

func (r *DismissedRepoImpl) Add(ctx context.Context, eventId string, at time.Time) error {
	query := `INSERT INTO dismissed_event (event_id, dismissed_at) VALUES (?, ?)
			  ON CONFLICT (event_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, eventId, at.Unix())
	if err != nil {
		err := fmt.Errorf("could not store dismissed event %s: %w", eventId, err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *DismissedRepoImpl) All(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT event_id FROM dismissed_event")
	if err != nil {
		err := fmt.Errorf("could not query dismissed events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	dismissed := map[string]struct{}{}
	for rows.Next() {
		var eventId string
		if err := rows.Scan(&eventId); err != nil {
			err := fmt.Errorf("could not scan dismissed event row: %w", err)
			log.Error(err)
			return nil, err
		}
		dismissed[eventId] = struct{}{}
	}
	return dismissed, rows.Err()
}

func (r *DismissedRepoImpl) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM dismissed_event"); err != nil {
		err := fmt.Errorf("could not clear dismissed events: %w", err)
		log.Error(err)
		return err
	}
	return nil
}
