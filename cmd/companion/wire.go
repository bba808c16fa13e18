package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jrsteele09/fpl-companion/cache"
	"github.com/jrsteele09/fpl-companion/chat"
	"github.com/jrsteele09/fpl-companion/credentials"
	"github.com/jrsteele09/fpl-companion/dashboard"
	"github.com/jrsteele09/fpl-companion/fpl"
	"github.com/jrsteele09/fpl-companion/gateway"
	"github.com/jrsteele09/fpl-companion/internal/config"
	"github.com/jrsteele09/fpl-companion/metrics"
	"github.com/jrsteele09/fpl-companion/navigation"
	"github.com/jrsteele09/fpl-companion/server"
	"github.com/jrsteele09/fpl-companion/storage"
	"github.com/jrsteele09/fpl-companion/storage/boltstore"
	"github.com/jrsteele09/fpl-companion/storage/memory"
	"github.com/jrsteele09/fpl-companion/storage/redisstore"
	"github.com/jrsteele09/fpl-companion/storage/sqlitestore"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

type app struct {
	server     *server.Server
	dispatcher *navigation.Dispatcher
	closers    []func() error
}

func (a *app) close() {
	a.dispatcher.Stop()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("closing resource")
		}
	}
}

func wire(ctx context.Context, c config.Config) (*app, error) {
	a := &app{}
	m := metrics.New()

	// The UI reads redirects from API responses; here they are only logged.
	a.dispatcher = navigation.NewDispatcher(navigation.NavigatorFunc(func(intent navigation.Intent) {
		log.Info().Str("to", intent.To).Msg("navigate")
	}))

	store, err := openStorage(c, a)
	if err != nil {
		return nil, err
	}

	creds, err := newCredentialStore(ctx, c)
	if err != nil {
		return nil, err
	}

	gw, err := gateway.New(c.GetAPIBaseURL(), creds,
		gateway.WithHTTPClient(&http.Client{Timeout: c.GetHTTPTimeout()}),
		gateway.WithNavigator(a.dispatcher),
		gateway.WithMetrics(m),
		gateway.WithLogger(log.Logger.With().Str("component", "gateway").Logger()),
	)
	if err != nil {
		return nil, err
	}
	api := fpl.NewClient(gw)

	entities := cache.New(store,
		cache.WithLogger(log.Logger.With().Str("component", "cache").Logger()),
		cache.WithMetrics(m),
	)
	orchestrator := dashboard.New(api, entities,
		dashboard.WithNavigator(a.dispatcher),
		dashboard.WithRedirectDelay(c.GetRedirectDelay()),
		dashboard.WithLogger(log.Logger.With().Str("component", "dashboard").Logger()),
		dashboard.WithMetrics(m),
		dashboard.WithCredentials(creds),
	)
	a.closers = append(a.closers, func() error {
		orchestrator.Close()
		return nil
	})

	a.server, err = server.New(c, orchestrator, chat.New(api, chat.WithLogger(log.Logger)),
		server.WithMetrics(m),
		server.WithBackendHealth(api),
		server.WithPasswordSignIn(creds),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func openStorage(c config.Config, a *app) (storage.Store, error) {
	var store storage.Store
	switch c.GetStorageDriver() {
	case "memory":
		store = memory.New()
	case "bolt":
		if err := ensureDir(c.GetStoragePath()); err != nil {
			return nil, err
		}
		s, err := boltstore.Open(c.GetStoragePath())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		store = s
	case "sqlite":
		if err := ensureDir(c.GetStoragePath()); err != nil {
			return nil, err
		}
		s, err := sqlitestore.Open(c.GetStoragePath())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		store = s
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		s := redisstore.New(rdb, "")
		a.closers = append(a.closers, s.Close)
		store = s
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", c.GetStorageDriver())
	}
	log.Info().Str("driver", c.GetStorageDriver()).Msg("Entity mirror ready")
	return storage.WithPrefix(store, c.GetStoragePrefix()), nil
}

// newCredentialStore builds the OAuth session store. The token endpoint comes
// from AUTH_TOKEN_URL or, failing that, from the issuer's discovery document.
func newCredentialStore(ctx context.Context, c config.Config) (*credentials.OAuthStore, error) {
	endpoint := oauth2.Endpoint{TokenURL: c.GetAuthTokenURL()}
	if endpoint.TokenURL == "" && c.GetAuthIssuer() != "" {
		discovered, err := credentials.Discover(ctx, c.GetAuthIssuer())
		if err != nil {
			return nil, err
		}
		endpoint = discovered
	}

	opts := []credentials.OAuthStoreOption{
		credentials.WithLogger(log.Logger.With().Str("component", "credentials").Logger()),
		credentials.WithRefreshTimeout(c.GetHTTPTimeout()),
	}
	if c.GetSessionKey() != "" {
		if err := ensureDir(c.GetSessionFile()); err != nil {
			return nil, err
		}
		file, err := credentials.NewSessionFile(c.GetSessionFile(), c.GetSessionKey())
		if err != nil {
			return nil, err
		}
		opts = append(opts, credentials.WithPersister(file))
	} else {
		log.Warn().Msg("SESSION_KEY not set, sessions will not survive a restart")
	}

	return credentials.NewOAuthStore(&oauth2.Config{
		ClientID:     c.GetAuthClientID(),
		ClientSecret: c.GetAuthClientSecret(),
		Endpoint:     endpoint,
		Scopes:       c.GetAuthScopes(),
	}, opts...), nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o700)
}
