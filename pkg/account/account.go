package account

import "time"

// tokenExpiryBuffer makes a token count as expired slightly early so a fetch
// never starts with a token about to lapse mid-request.
const tokenExpiryBuffer = 60 * time.Second

// Account is one connected calendar account with its OAuth credential state.
type Account struct {
	ID           string
	Email        string
	DisplayName  string
	Enabled      bool
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	// NeedsReauth is set when the provider rejected the refresh token; the
	// account contributes nothing until the user re-authenticates.
	NeedsReauth bool
}

// TokenExpired reports whether the access token must be refreshed before use,
// applying the 60-second safety buffer.
func (a Account) TokenExpired(now time.Time) bool {
	if a.AccessToken == "" {
		return true
	}
	return !now.Add(tokenExpiryBuffer).Before(a.TokenExpiry)
}
