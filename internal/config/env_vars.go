package config

import (
	"fmt"
	"strings"
	"time"
)

// EnvVars holds every environment-sourced setting. Getters for each concern
// live next to the interface they satisfy.
type EnvVars struct {
	Port         string `env:"PORT" envDefault:"8081"`
	AppName      string `env:"APP_NAME" envDefault:"FPL Companion"`
	Env          string `env:"ENV" envDefault:"DEV"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	OtelEndpoint string `env:"OTEL_ENDPOINT"`

	APIBaseURL    string        `env:"API_BASE_URL" envDefault:"http://localhost:8000"`
	HTTPTimeout   time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	RedirectDelay time.Duration `env:"REDIRECT_DELAY" envDefault:"2s"`

	AuthIssuer       string   `env:"AUTH_ISSUER"`
	AuthClientID     string   `env:"AUTH_CLIENT_ID"`
	AuthClientSecret string   `env:"AUTH_CLIENT_SECRET"`
	AuthTokenURL     string   `env:"AUTH_TOKEN_URL"`
	AuthScopes       []string `env:"AUTH_SCOPES" envSeparator:"," envDefault:"openid,email"`
	SessionFile      string   `env:"SESSION_FILE" envDefault:"./data/session.sealed"`
	SessionKey       string   `env:"SESSION_KEY"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"bolt"`
	StoragePath   string `env:"STORAGE_PATH" envDefault:"./data/companion.db"`
	StoragePrefix string `env:"STORAGE_PREFIX"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port == "" {
		port = "8081"
	}
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

// GetOtelEndpoint returns the OTLP/HTTP endpoint; empty disables tracing.
func (e EnvVars) GetOtelEndpoint() string {
	return e.OtelEndpoint
}
