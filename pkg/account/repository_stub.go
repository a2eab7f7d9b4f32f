package account

import (
	"context"
	"sync"
	"time"
)

// StubRepository is an in-memory credential store for tests.
type StubRepository struct {
	mu       sync.Mutex
	accounts map[string]Account
}

func NewStubRepository() *StubRepository {
	return &StubRepository{accounts: map[string]Account{}}
}

func (s *StubRepository) List(_ context.Context) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts := make([]Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func (s *StubRepository) Get(_ context.Context, accountId string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountId]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (s *StubRepository) Store(_ context.Context, account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.ID] = account
	return nil
}

func (s *StubRepository) UpdateTokens(_ context.Context, accountId, accessToken, refreshToken string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountId]
	if !ok {
		return ErrAccountNotFound
	}
	account.AccessToken = accessToken
	account.RefreshToken = refreshToken
	account.TokenExpiry = expiry
	account.NeedsReauth = false
	s.accounts[accountId] = account
	return nil
}

func (s *StubRepository) SetEnabled(_ context.Context, accountId string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountId]
	if !ok {
		return ErrAccountNotFound
	}
	account.Enabled = enabled
	s.accounts[accountId] = account
	return nil
}

func (s *StubRepository) SetNeedsReauth(_ context.Context, accountId string, needsReauth bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountId]
	if !ok {
		return ErrAccountNotFound
	}
	account.NeedsReauth = needsReauth
	s.accounts[accountId] = account
	return nil
}

func (s *StubRepository) Delete(_ context.Context, accountId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[accountId]; !ok {
		return ErrAccountNotFound
	}
	delete(s.accounts, accountId)
	return nil
}

func (s *StubRepository) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = map[string]Account{}
}
