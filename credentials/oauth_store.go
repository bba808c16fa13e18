package credentials

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jrsteele09/fpl-companion/internal/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const defaultRefreshTimeout = 30 * time.Second

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Persister keeps the session across process restarts.
type Persister interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Clear(ctx context.Context) error
}

// OAuthStore is a Store backed by an OAuth2 token endpoint. Refreshes use the
// refresh_token grant and are de-duplicated: concurrent callers that all hit
// a 401 share a single round trip to the identity provider.
type OAuthStore struct {
	config     *oauth2.Config
	persister  Persister
	httpClient *http.Client
	logger     zerolog.Logger

	refreshTimeout time.Duration

	mu      sync.RWMutex
	session *Session
	loaded  bool

	refreshGroup singleflight.Group
}

type OAuthStoreOption func(*OAuthStore)

func WithPersister(p Persister) OAuthStoreOption {
	return func(s *OAuthStore) {
		s.persister = p
	}
}

// WithHTTPClient sets the client used to talk to the token endpoint.
func WithHTTPClient(client *http.Client) OAuthStoreOption {
	return func(s *OAuthStore) {
		s.httpClient = client
	}
}

// WithRefreshTimeout bounds a single refresh round trip.
func WithRefreshTimeout(timeout time.Duration) OAuthStoreOption {
	return func(s *OAuthStore) {
		if timeout > 0 {
			s.refreshTimeout = timeout
		}
	}
}

func WithLogger(logger zerolog.Logger) OAuthStoreOption {
	return func(s *OAuthStore) {
		s.logger = logger
	}
}

func NewOAuthStore(config *oauth2.Config, options ...OAuthStoreOption) *OAuthStore {
	s := &OAuthStore{
		config:         config,
		logger:         zerolog.Nop(),
		refreshTimeout: defaultRefreshTimeout,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

var (
	_ Store     = (*OAuthStore)(nil)
	_ SignOuter = (*OAuthStore)(nil)
)

func (s *OAuthStore) withClient(ctx context.Context) context.Context {
	if s.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// CurrentSession returns the in-memory session, lazily loading the persisted
// one on first use.
func (s *OAuthStore) CurrentSession(ctx context.Context) (*Session, error) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.session.Clone(), nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		if s.persister != nil {
			persisted, err := s.persister.Load(ctx)
			if err != nil {
				// a corrupt or unreadable file means signed out, not a hard failure
				s.logger.Warn().Err(err).Msg("Ignoring unreadable persisted session")
			} else {
				s.session = persisted
			}
		}
		s.loaded = true
	}
	return s.session.Clone(), nil
}

// SignIn performs the resource-owner password grant and stores the result.
func (s *OAuthStore) SignIn(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[OAuthStore SignIn] username and password are required")
	}
	tok, err := s.config.PasswordCredentialsToken(s.withClient(ctx), username, password)
	if err != nil {
		return nil, fmt.Errorf("[OAuthStore SignIn] %w", err)
	}
	session := SessionFromToken(tok, "")
	if err := s.store(ctx, session); err != nil {
		return nil, err
	}
	return session.Clone(), nil
}

// SetSession replaces the current session, e.g. after an authorization code
// exchange done elsewhere.
func (s *OAuthStore) SetSession(ctx context.Context, session *Session) error {
	return s.store(ctx, session.Clone())
}

// RefreshSession exchanges the stored refresh token for a new session.
// The shared round trip is detached from ctx, so one caller giving up does
// not fail the others; that caller just stops waiting.
func (s *OAuthStore) RefreshSession(ctx context.Context) (*Session, error) {
	ch := s.refreshGroup.DoChan("refresh", func() (interface{}, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
		defer cancel()
		return s.refresh(refreshCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.logger.Debug().Msg("Joined in-flight session refresh")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Session).Clone(), nil
	}
}

func (s *OAuthStore) refresh(ctx context.Context) (*Session, error) {
	current, err := s.CurrentSession(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil || current.RefreshToken == "" {
		return nil, fmt.Errorf("%w: %w", errors.ErrRefreshFailed, errors.ErrNoSession)
	}

	// An empty access token forces the token source to hit the endpoint.
	source := s.config.TokenSource(s.withClient(ctx), &oauth2.Token{RefreshToken: current.RefreshToken})
	tok, err := source.Token()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Session refresh rejected by identity provider")
		return nil, fmt.Errorf("%w: %w", errors.ErrRefreshFailed, err)
	}

	session := SessionFromToken(tok, current.RefreshToken)
	if !session.Valid() {
		return nil, fmt.Errorf("%w: empty access token", errors.ErrRefreshFailed)
	}
	// persistence failures are logged by store; the refreshed session is still good
	_ = s.store(ctx, session)
	s.logger.Debug().Time("expires_at", session.ExpiresAt).Msg("Session refreshed")
	return session, nil
}

// SignOut forgets the session in memory and on disk.
func (s *OAuthStore) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.session = nil
	s.loaded = true
	s.mu.Unlock()

	if s.persister == nil {
		return nil
	}
	if err := s.persister.Clear(ctx); err != nil {
		return fmt.Errorf("[OAuthStore SignOut] %w", err)
	}
	return nil
}

func (s *OAuthStore) store(ctx context.Context, session *Session) error {
	s.mu.Lock()
	s.session = session
	s.loaded = true
	s.mu.Unlock()

	if s.persister == nil {
		return nil
	}
	if err := s.persister.Save(ctx, session); err != nil {
		// the in-memory session is still usable for this process
		s.logger.Error().Err(err).Msg("Failed to persist session")
		return fmt.Errorf("[OAuthStore store] %w", err)
	}
	return nil
}
