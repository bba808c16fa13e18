// Package dashboard sequences the backend calls that fill the entity cache:
// the initial loads on session start and the link, unlink and sync flows,
// including where to send the user afterwards.
package dashboard

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/fpl-companion/cache"
	"github.com/jrsteele09/fpl-companion/credentials"
	"github.com/jrsteele09/fpl-companion/fpl"
	"github.com/jrsteele09/fpl-companion/gateway"
	"github.com/jrsteele09/fpl-companion/internal/errors"
	"github.com/jrsteele09/fpl-companion/metrics"
	"github.com/jrsteele09/fpl-companion/navigation"
	"github.com/rs/zerolog"
)

const DefaultRedirectDelay = 2 * time.Second

// API is the backend surface the orchestrator drives.
type API interface {
	LinkTeam(ctx context.Context, fplID int) error
	SyncTeam(ctx context.Context, fplID int) error
	Dashboard(ctx context.Context) (*fpl.Dashboard, error)
	Team(ctx context.Context) (*fpl.Team, error)
	Leagues(ctx context.Context) (*fpl.Leagues, error)
	LeagueStandings(ctx context.Context, leagueID, page int) (*fpl.LeagueStandings, error)
	Unlink(ctx context.Context) error
}

var _ API = (*fpl.Client)(nil)

type Orchestrator struct {
	api           API
	cache         *cache.Cache
	navigator     navigation.Navigator
	redirectDelay time.Duration
	logger        zerolog.Logger
	metrics       *metrics.Metrics
	creds         credentials.Store
	detached      atomic.Bool
}

type Option func(*Orchestrator)

func WithNavigator(n navigation.Navigator) Option {
	return func(o *Orchestrator) {
		o.navigator = n
	}
}

func WithRedirectDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.redirectDelay = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithCredentials lets Start detect a signed-out user and Logout sign out.
func WithCredentials(creds credentials.Store) Option {
	return func(o *Orchestrator) {
		o.creds = creds
	}
}

func New(api API, c *cache.Cache, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		api:           api,
		cache:         c,
		redirectDelay: DefaultRedirectDelay,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Cache() *cache.Cache {
	return o.cache
}

// Close detaches the orchestrator. Operations still in flight finish their
// network call but leave the cache and navigator untouched.
func (o *Orchestrator) Close() {
	o.detached.Store(true)
}

func (o *Orchestrator) Detached() bool {
	return o.detached.Load()
}

// finish records the outcome and dispatches the intent. Intents after an
// unrecoverable session were already dispatched by the gateway.
func (o *Orchestrator) finish(op string, res Result, err error) (Result, error) {
	o.metrics.ObserveOperation(op, string(res.Status))
	if res.Status == StatusDetached {
		return res, nil
	}
	if unrecoverable(err) {
		res.Intent = navigation.Redirect(navigation.PathLogin)
		return res, err
	}
	if !res.Intent.IsZero() && o.navigator != nil {
		o.navigator.Navigate(res.Intent)
	}
	return res, err
}

// persist logs mirror failures. The in-memory slot is already updated, so
// the operation itself still succeeds.
func (o *Orchestrator) persist(err error) {
	if err != nil {
		o.logger.Warn().Err(err).Msg("[dashboard persist] durable mirror out of date")
	}
}

func unrecoverable(err error) bool {
	return errors.Is(err, errors.ErrSessionUnrecoverable)
}

// describe picks the backend's reason when there is one.
func describe(err error) string {
	var se *gateway.StatusError
	if errors.As(err, &se) {
		if detail := se.Detail(); detail != "" {
			return detail
		}
	}
	return err.Error()
}
