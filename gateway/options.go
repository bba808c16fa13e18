package gateway

import (
	"net/http"
	"time"

	"github.com/jrsteele09/fpl-companion/metrics"
	"github.com/jrsteele09/fpl-companion/navigation"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithNavigator receives the re-authentication intent when a session cannot
// be recovered.
func WithNavigator(n navigation.Navigator) Option {
	return func(c *Client) {
		c.navigator = n
	}
}

func WithReauthPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.reauthPath = path
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithDefaultHeader is sent on every request unless the request sets it.
func WithDefaultHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}
