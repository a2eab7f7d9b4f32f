package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Repository persists the single settings row. Load falls back to defaults
// when nothing has been saved yet.
type Repository interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, settings Settings) error
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Load(ctx context.Context) (Settings, error) {
	query := `SELECT refresh_interval_s, lead_time_s, only_accepted, popup_enabled, sound_enabled
			  FROM settings WHERE id = 1`

	var refreshSeconds, leadSeconds int64
	var settings Settings
	err := r.db.QueryRowContext(ctx, query).
		Scan(&refreshSeconds, &leadSeconds, &settings.ShowOnlyAccepted, &settings.PopupEnabled, &settings.SoundEnabled)
	if errors.Is(err, sql.ErrNoRows) {
		return Default(), nil
	} else if err != nil {
		err := fmt.Errorf("could not load settings: %w", err)
		log.Error(err)
		return Settings{}, err
	}

	settings.RefreshInterval = time.Duration(refreshSeconds) * time.Second
	settings.LeadTime = time.Duration(leadSeconds) * time.Second
	return settings, nil
}

func (r *RepositoryImpl) Save(ctx context.Context, settings Settings) error {
	query := `INSERT INTO settings (id, refresh_interval_s, lead_time_s, only_accepted, popup_enabled, sound_enabled)
			  VALUES (1, ?, ?, ?, ?, ?)
			  ON CONFLICT (id) DO UPDATE SET
			      refresh_interval_s = excluded.refresh_interval_s,
			      lead_time_s = excluded.lead_time_s,
			      only_accepted = excluded.only_accepted,
			      popup_enabled = excluded.popup_enabled,
			      sound_enabled = excluded.sound_enabled`
	_, err := r.db.ExecContext(ctx, query,
		int64(settings.RefreshInterval.Seconds()), int64(settings.LeadTime.Seconds()),
		settings.ShowOnlyAccepted, settings.PopupEnabled, settings.SoundEnabled)
	if err != nil {
		err := fmt.Errorf("could not save settings: %w", err)
		log.Error(err)
		return err
	}
	return nil
}
