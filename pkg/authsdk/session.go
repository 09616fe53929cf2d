package authsdk

import (
	"context"
	"errors"
	"sync"
	"time"
)

// refreshSkew is how long before expiry a Session proactively refreshes.
const refreshSkew = 30 * time.Second

// ErrNoRefreshToken is returned when a Session's access token has expired
// and it holds no refresh token.
var ErrNoRefreshToken = errors.New("authsdk: access token expired and no refresh token available")

// Session holds a token pair and refreshes it transparently. Every refresh
// replaces both tokens.
type Session struct {
	client *Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time

	now func() time.Time
}

// LoginSession logs in and wraps the resulting pair in a Session.
func (c *Client) LoginSession(ctx context.Context, username, password string) (*Session, error) {
	pair, err := c.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return c.NewSession(pair), nil
}

// NewSession wraps an existing pair, e.g. one restored from storage.
func (c *Client) NewSession(pair *TokenResponse) *Session {
	s := &Session{client: c, now: time.Now}
	s.store(pair)
	return s
}

func (s *Session) store(pair *TokenResponse) {
	s.accessToken = pair.AccessToken
	s.refreshToken = pair.RefreshToken
	s.expiresAt = s.now().Add(time.Duration(pair.ExpiresIn)*time.Second - refreshSkew)
}

// Token returns a usable access token, refreshing first when the current
// one is about to expire.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if s.now().Before(s.expiresAt) {
		return s.accessToken, nil
	}
	if s.refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	pair, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", err
	}
	s.store(pair)
	return s.accessToken, nil
}

// Me calls Client.Me with a fresh access token.
func (s *Session) Me(ctx context.Context) (*MeResponse, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.Me(ctx, token)
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}
