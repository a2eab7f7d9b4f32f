package account

import (
	"context"
	"fmt"

	"github.com/nextup/nextup/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	List(ctx context.Context) ([]Account, error)
	// Add upserts an account created by a completed OAuth exchange.
	Add(ctx context.Context, account Account) error
	SetEnabled(ctx context.Context, accountId string, enabled bool) error
	// Remove deletes the account and its stored credentials and announces the
	// removal so the next sync cycle purges that account's events.
	Remove(ctx context.Context, accountId string) error
}

type ServiceImpl struct {
	repo Repository
	bus  *event_bus.EventBus
}

func NewService(repo Repository, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, bus: bus}
}

func (s *ServiceImpl) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

func (s *ServiceImpl) Add(ctx context.Context, account Account) error {
	if account.ID == "" || account.Email == "" {
		return fmt.Errorf("account requires an id and email")
	}
	if err := s.repo.Store(ctx, account); err != nil {
		return err
	}
	log.Infof("connected account %s (%s)", account.Email, account.ID)
	return nil
}

func (s *ServiceImpl) SetEnabled(ctx context.Context, accountId string, enabled bool) error {
	return s.repo.SetEnabled(ctx, accountId, enabled)
}

func (s *ServiceImpl) Remove(ctx context.Context, accountId string) error {
	if err := s.repo.Delete(ctx, accountId); err != nil {
		return err
	}
	log.Infof("removed account %s", accountId)
	if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.TypeAccountRemoved,
		event_bus.AccountRemoved{AccountID: accountId})); err != nil {
		log.Errorf("failed to publish account removal: %v", err)
	}
	return nil
}
