// Package server exposes the companion's cache and operations over a small
// local HTTP API for the UI.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/fpl-companion/chat"
	"github.com/jrsteele09/fpl-companion/credentials"
	"github.com/jrsteele09/fpl-companion/dashboard"
	"github.com/jrsteele09/fpl-companion/fpl"
	"github.com/jrsteele09/fpl-companion/internal/config"
	"github.com/jrsteele09/fpl-companion/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PasswordSignIn signs a user in with the resource owner password grant.
type PasswordSignIn interface {
	SignIn(ctx context.Context, username, password string) (*credentials.Session, error)
}

// BackendHealth reports whether the companion backend is reachable.
type BackendHealth interface {
	Health(ctx context.Context) (*fpl.Health, error)
}

var (
	_ PasswordSignIn = (*credentials.OAuthStore)(nil)
	_ BackendHealth  = (*fpl.Client)(nil)
)

type Server struct {
	env          string // Environment (e.g., "DEV", "PROD")
	mux          *http.ServeMux
	routes       []string
	config       config.Config
	orchestrator *dashboard.Orchestrator
	conversation *chat.Conversation
	metrics      *metrics.Metrics
	signIn       PasswordSignIn
	backend      BackendHealth
	logger       zerolog.Logger
}

type Option func(*Server)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

func WithPasswordSignIn(p PasswordSignIn) Option {
	return func(s *Server) {
		s.signIn = p
	}
}

func WithBackendHealth(b BackendHealth) Option {
	return func(s *Server) {
		s.backend = b
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

func New(config config.Config, orchestrator *dashboard.Orchestrator, conversation *chat.Conversation, opts ...Option) (*Server, error) {
	if orchestrator == nil {
		return nil, fmt.Errorf("[Server New] orchestrator is required")
	}

	s := &Server{
		mux:          http.NewServeMux(),
		config:       config,
		orchestrator: orchestrator,
		conversation: conversation,
		logger:       log.Logger,
	}
	s.env = config.GetEnv()
	for _, opt := range opts {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	s.logger.Debug().Msgf("[%s] %s", color+paddedMethod+ResetColor, path)
}
