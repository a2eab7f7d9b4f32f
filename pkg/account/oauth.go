package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var calendarScopes = []string{
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// ErrAuthCancelled is returned when the user abandons the consent screen.
// It is benign: no account state changes.
var ErrAuthCancelled = errors.New("authorization cancelled by user")

type pendingAuth struct {
	verifier string
	finalUrl string
	started  time.Time
}

// Flow runs the interactive authorization-code exchange with PKCE. Presenting
// the URL to the user is the caller's concern (browser, UI webview); Flow only
// builds the redirect and completes the callback.
type Flow struct {
	oauthConfig *oauth2.Config
	httpClient  *http.Client

	mu      sync.Mutex
	pending map[string]pendingAuth
}

func NewFlow(clientId, clientSecret, redirectURL string) *Flow {
	return &Flow{
		oauthConfig: &oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  redirectURL,
			Scopes:       calendarScopes,
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		pending:    map[string]pendingAuth{},
	}
}

// Begin creates a PKCE verifier for the given state nonce and returns the
// authorization URL to present. finalUrl is where the user lands afterwards.
func (f *Flow) Begin(nonce, finalUrl string) string {
	verifier := oauth2.GenerateVerifier()

	f.mu.Lock()
	f.pending[nonce] = pendingAuth{verifier: verifier, finalUrl: finalUrl, started: time.Now()}
	f.mu.Unlock()

	return f.oauthConfig.AuthCodeURL(finalUrl+"|"+nonce,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Cancel drops the pending verifier for a nonce. Used when the callback
// reports user cancellation.
func (f *Flow) Cancel(nonce string) {
	f.mu.Lock()
	delete(f.pending, nonce)
	f.mu.Unlock()
}

// Complete exchanges the authorization code using the stored PKCE verifier and
// resolves the account identity from the userinfo endpoint. The returned
// account is enabled and carries the full token triple; the token endpoint
// guarantees a refresh token on code exchange with offline access.
func (f *Flow) Complete(ctx context.Context, nonce, code string) (Account, error) {
	f.mu.Lock()
	auth, ok := f.pending[nonce]
	delete(f.pending, nonce)
	f.mu.Unlock()
	if !ok {
		return Account{}, fmt.Errorf("unknown or expired authorization state")
	}

	token, err := f.oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(auth.verifier))
	if err != nil {
		return Account{}, fmt.Errorf("unable to exchange code for token: %w", err)
	}

	identity, err := f.fetchUserInfo(ctx, token.AccessToken)
	if err != nil {
		return Account{}, err
	}

	return Account{
		ID:           identity.ID,
		Email:        identity.Email,
		DisplayName:  identity.Name,
		Enabled:      true,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenExpiry:  token.Expiry,
	}, nil
}

// FinalUrl returns the post-auth landing URL recorded for a nonce, if any.
func (f *Flow) FinalUrl(nonce string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending[nonce].finalUrl
}

type userInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (f *Flow) fetchUserInfo(ctx context.Context, accessToken string) (userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
	if err != nil {
		return userInfo{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return userInfo{}, fmt.Errorf("unable to fetch user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return userInfo{}, fmt.Errorf("user info request failed with status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return userInfo{}, fmt.Errorf("malformed user info response: %w", err)
	}
	if info.Email == "" {
		return userInfo{}, fmt.Errorf("user info response without email")
	}
	if info.ID == "" {
		info.ID = info.Email
	}
	if info.Name == "" {
		info.Name = info.Email
	}
	return info, nil
}
