// Package credentials owns the signed-in user's bearer session: where the
// current access token comes from and how it is refreshed.
package credentials

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Session is the credential the gateway attaches to outgoing requests.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the session is known to have expired at now.
// A zero ExpiresAt means the expiry is unknown and is never treated as expired.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}

// Valid reports whether the session carries an access token.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != ""
}

// Clone returns a copy safe to hand to callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Store is what the gateway needs from the identity provider.
type Store interface {
	// CurrentSession returns the current session, or nil with a nil error
	// when nobody is signed in.
	CurrentSession(ctx context.Context) (*Session, error)
	// RefreshSession exchanges the refresh credential for a new session.
	RefreshSession(ctx context.Context) (*Session, error)
}

// SignOuter is implemented by stores that can forget the session.
type SignOuter interface {
	SignOut(ctx context.Context) error
}

// ExpiryFromAccessToken reads the exp claim of a JWT access token without
// verifying its signature. Verification is the backend's job; the client
// only needs to know when to refresh.
func ExpiryFromAccessToken(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// SessionFromToken converts an oauth2 token. previousRefresh is kept when the
// provider does not rotate refresh tokens.
func SessionFromToken(tok *oauth2.Token, previousRefresh string) *Session {
	if tok == nil {
		return nil
	}
	s := &Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	if s.RefreshToken == "" {
		s.RefreshToken = previousRefresh
	}
	if s.ExpiresAt.IsZero() {
		if exp, ok := ExpiryFromAccessToken(tok.AccessToken); ok {
			s.ExpiresAt = exp
		}
	}
	return s
}
