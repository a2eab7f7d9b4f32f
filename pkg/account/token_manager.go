package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nextup/nextup/internal/utils"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2/google"
)

var (
	// ErrNoRefreshToken means the account never completed offline consent or
	// lost its refresh token; interactive re-authentication is required.
	ErrNoRefreshToken = errors.New("account has no refresh token")
	// ErrRefreshRevoked means the provider rejected the refresh token (400/401).
	// It is never retried; the caller must fall back to interactive re-auth.
	ErrRefreshRevoked = errors.New("refresh token revoked")
	// ErrRefreshFailed covers transport and provider errors other than revocation.
	ErrRefreshFailed = errors.New("token refresh failed")
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// TokenManager owns per-account access-token freshness. Refresh is a single
// form-encoded POST with no retry or backoff: a failed attempt surfaces
// immediately so the orchestrator can isolate it to one account.
type TokenManager struct {
	clientId     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
	repo         Repository
	clock        utils.Clock
}

func NewTokenManager(clientId, clientSecret string, repo Repository) *TokenManager {
	return &TokenManager{
		clientId:     clientId,
		clientSecret: clientSecret,
		tokenURL:     google.Endpoint.TokenURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		repo:         repo,
		clock:        utils.SystemClock{},
	}
}

// EnsureValid returns the account carrying a non-expired access token,
// refreshing it first if needed. On ErrRefreshRevoked the account is flagged
// for re-authentication before the error is returned.
func (m *TokenManager) EnsureValid(ctx context.Context, account Account) (Account, error) {
	if !account.TokenExpired(m.clock.Now()) {
		return account, nil
	}
	return m.Refresh(ctx, account)
}

// Refresh unconditionally exchanges the refresh token for a new access token
// and persists the result. The stored refresh token is replaced only when the
// provider returns a new one; providers do not always rotate it.
func (m *TokenManager) Refresh(ctx context.Context, account Account) (Account, error) {
	if account.RefreshToken == "" {
		return Account{}, fmt.Errorf("account %s: %w", account.ID, ErrNoRefreshToken)
	}

	form := url.Values{}
	form.Set("client_id", m.clientId)
	form.Set("refresh_token", account.RefreshToken)
	form.Set("grant_type", "refresh_token")
	if m.clientSecret != "" {
		form.Set("client_secret", m.clientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Account{}, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return Account{}, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		log.Warnf("refresh token for account %s rejected with status %d", account.ID, resp.StatusCode)
		if err := m.repo.SetNeedsReauth(ctx, account.ID, true); err != nil {
			log.Errorf("failed to flag account %s for re-auth: %v", account.ID, err)
		}
		return Account{}, fmt.Errorf("account %s: %w", account.ID, ErrRefreshRevoked)
	}
	if resp.StatusCode != http.StatusOK {
		return Account{}, fmt.Errorf("%w: unexpected status %d", ErrRefreshFailed, resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return Account{}, fmt.Errorf("%w: malformed token response: %v", ErrRefreshFailed, err)
	}
	if token.AccessToken == "" {
		return Account{}, fmt.Errorf("%w: token response without access_token", ErrRefreshFailed)
	}

	account.AccessToken = token.AccessToken
	account.TokenExpiry = m.clock.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	if token.RefreshToken != "" {
		account.RefreshToken = token.RefreshToken
	}
	account.NeedsReauth = false

	// Tokens are written only after the response decoded cleanly, so a refresh
	// cancelled mid-flight never leaves a partial token row behind.
	if err := m.repo.UpdateTokens(ctx, account.ID, account.AccessToken, account.RefreshToken, account.TokenExpiry); err != nil {
		return Account{}, fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}

	log.Debugf("refreshed access token for account %s, valid until %s", account.ID, account.TokenExpiry)
	return account, nil
}
