package account

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nextup/nextup/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type tokenServer struct {
	srv      *httptest.Server
	requests atomic.Int64
	lastForm map[string][]string
}

// newTokenServer serves canned token-endpoint responses and counts requests.
func newTokenServer(t *testing.T, status int, body string) *tokenServer {
	ts := &tokenServer{}
	ts.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.requests.Add(1)
		require.NoError(t, r.ParseForm())
		ts.lastForm = r.PostForm
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.srv.Close)
	return ts
}

func newTestTokenManager(srv *tokenServer, repo Repository) *TokenManager {
	return &TokenManager{
		clientId:     "client-id",
		clientSecret: "client-secret",
		tokenURL:     srv.srv.URL,
		httpClient:   srv.srv.Client(),
		repo:         repo,
		clock:        &utils.MockClock{FixedNow: tokenNow},
	}
}

func storedAccount(repo *StubRepository, expiry time.Time) Account {
	acc := Account{
		ID:           "acc-1",
		Email:        "viewer@example.com",
		Enabled:      true,
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
		TokenExpiry:  expiry,
	}
	_ = repo.Store(context.Background(), acc)
	return acc
}

func TestEnsureValid_SkipsRefreshForFreshToken(t *testing.T) {
	repo := NewStubRepository()
	srv := newTokenServer(t, http.StatusOK, `{}`)
	manager := newTestTokenManager(srv, repo)
	acc := storedAccount(repo, tokenNow.Add(time.Hour))

	got, err := manager.EnsureValid(context.Background(), acc)

	require.NoError(t, err)
	assert.Equal(t, "old-access", got.AccessToken)
	assert.Equal(t, int64(0), srv.requests.Load(), "fresh token must not hit the token endpoint")
}

func TestEnsureValid_RefreshesWithinExpiryBuffer(t *testing.T) {
	repo := NewStubRepository()
	srv := newTokenServer(t, http.StatusOK, `{"access_token":"new-access","expires_in":3600}`)
	manager := newTestTokenManager(srv, repo)
	// 30s of validity left is inside the 60s buffer.
	acc := storedAccount(repo, tokenNow.Add(30*time.Second))

	got, err := manager.EnsureValid(context.Background(), acc)

	require.NoError(t, err)
	assert.Equal(t, "new-access", got.AccessToken)
	assert.Equal(t, int64(1), srv.requests.Load())
}

func TestRefresh_PersistsNewTokens(t *testing.T) {
	repo := NewStubRepository()
	srv := newTokenServer(t, http.StatusOK,
		`{"access_token":"new-access","expires_in":3600,"refresh_token":"new-refresh"}`)
	manager := newTestTokenManager(srv, repo)
	acc := storedAccount(repo, tokenNow.Add(-time.Hour))

	got, err := manager.Refresh(context.Background(), acc)

	require.NoError(t, err)
	assert.Equal(t, "new-access", got.AccessToken)
	assert.Equal(t, "new-refresh", got.RefreshToken)
	assert.True(t, got.TokenExpiry.Equal(tokenNow.Add(time.Hour)))

	stored, err := repo.Get(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-access", stored.AccessToken)
	assert.Equal(t, "new-refresh", stored.RefreshToken)

	assert.Equal(t, []string{"refresh_token"}, srv.lastForm["grant_type"])
	assert.Equal(t, []string{"old-refresh"}, srv.lastForm["refresh_token"])
	assert.Equal(t, []string{"client-id"}, srv.lastForm["client_id"])
}

func TestRefresh_KeepsRefreshTokenWhenProviderOmitsIt(t *testing.T) {
	repo := NewStubRepository()
	srv := newTokenServer(t, http.StatusOK, `{"access_token":"new-access","expires_in":3600}`)
	manager := newTestTokenManager(srv, repo)
	acc := storedAccount(repo, tokenNow.Add(-time.Hour))

	got, err := manager.Refresh(context.Background(), acc)

	require.NoError(t, err)
	assert.Equal(t, "old-refresh", got.RefreshToken)

	stored, _ := repo.Get(context.Background(), acc.ID)
	assert.Equal(t, "old-refresh", stored.RefreshToken)
}

func TestRefresh_RevokedTokenIsNotRetried(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			repo := NewStubRepository()
			srv := newTokenServer(t, status, `{"error":"invalid_grant"}`)
			manager := newTestTokenManager(srv, repo)
			acc := storedAccount(repo, tokenNow.Add(-time.Hour))

			_, err := manager.Refresh(context.Background(), acc)

			assert.ErrorIs(t, err, ErrRefreshRevoked)
			assert.Equal(t, int64(1), srv.requests.Load(), "revocation must not be retried")

			stored, _ := repo.Get(context.Background(), acc.ID)
			assert.True(t, stored.NeedsReauth)
			assert.Equal(t, "old-access", stored.AccessToken, "stored tokens must be untouched")
		})
	}
}

func TestRefresh_ServerErrorIsNotRevocation(t *testing.T) {
	repo := NewStubRepository()
	srv := newTokenServer(t, http.StatusInternalServerError, `oops`)
	manager := newTestTokenManager(srv, repo)
	acc := storedAccount(repo, tokenNow.Add(-time.Hour))

	_, err := manager.Refresh(context.Background(), acc)

	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.NotErrorIs(t, err, ErrRefreshRevoked)

	stored, _ := repo.Get(context.Background(), acc.ID)
	assert.False(t, stored.NeedsReauth)
}

func TestRefresh_MissingRefreshToken(t *testing.T) {
	repo := NewStubRepository()
	srv := newTokenServer(t, http.StatusOK, `{}`)
	manager := newTestTokenManager(srv, repo)
	acc := Account{ID: "acc-1", AccessToken: "old-access"}

	_, err := manager.Refresh(context.Background(), acc)

	assert.ErrorIs(t, err, ErrNoRefreshToken)
	assert.Equal(t, int64(0), srv.requests.Load())
}

func TestRefresh_MalformedResponse(t *testing.T) {
	repo := NewStubRepository()
	srv := newTokenServer(t, http.StatusOK, `{"expires_in":3600}`)
	manager := newTestTokenManager(srv, repo)
	acc := storedAccount(repo, tokenNow.Add(-time.Hour))

	_, err := manager.Refresh(context.Background(), acc)

	assert.ErrorIs(t, err, ErrRefreshFailed)

	stored, _ := repo.Get(context.Background(), acc.ID)
	assert.Equal(t, "old-access", stored.AccessToken)
}

func TestTokenExpired(t *testing.T) {
	t.Run("empty access token", func(t *testing.T) {
		acc := Account{RefreshToken: "r", TokenExpiry: tokenNow.Add(time.Hour)}
		assert.True(t, acc.TokenExpired(tokenNow))
	})

	t.Run("well within validity", func(t *testing.T) {
		acc := Account{AccessToken: "a", TokenExpiry: tokenNow.Add(time.Hour)}
		assert.False(t, acc.TokenExpired(tokenNow))
	})

	t.Run("inside the buffer", func(t *testing.T) {
		acc := Account{AccessToken: "a", TokenExpiry: tokenNow.Add(59 * time.Second)}
		assert.True(t, acc.TokenExpired(tokenNow))
	})
}
