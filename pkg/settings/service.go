package settings

import (
	"context"
	"fmt"

	"github.com/nextup/nextup/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	Current(ctx context.Context) (Settings, error)
	// Update validates and persists new settings and publishes the change so
	// the agenda is re-derived and notifications are rescheduled.
	Update(ctx context.Context, settings Settings) error
}

type ServiceImpl struct {
	repo Repository
	bus  *event_bus.EventBus
}

func NewService(repo Repository, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, bus: bus}
}

func (s *ServiceImpl) Current(ctx context.Context) (Settings, error) {
	return s.repo.Load(ctx)
}

func (s *ServiceImpl) Update(ctx context.Context, settings Settings) error {
	if settings.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}
	if settings.LeadTime < 0 {
		return fmt.Errorf("notification lead time cannot be negative")
	}

	if err := s.repo.Save(ctx, settings); err != nil {
		return err
	}
	log.Infof("settings updated: refresh every %s, lead time %s, acceptedOnly=%t, popup=%t, sound=%t",
		settings.RefreshInterval, settings.LeadTime, settings.ShowOnlyAccepted, settings.PopupEnabled, settings.SoundEnabled)

	if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.TypeSettingsChanged, settings)); err != nil {
		log.Errorf("failed to publish settings change: %v", err)
	}
	return nil
}
