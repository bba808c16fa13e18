package config

import "time"

type BackendConfig interface {
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
	GetRedirectDelay() time.Duration
}

var _ BackendConfig = EnvVars{}

func (e EnvVars) GetAPIBaseURL() string {
	return e.APIBaseURL
}

func (e EnvVars) GetHTTPTimeout() time.Duration {
	if e.HTTPTimeout <= 0 {
		return 30 * time.Second
	}
	return e.HTTPTimeout
}

// GetRedirectDelay is how long confirmation screens stay up before a
// post-mutation redirect fires.
func (e EnvVars) GetRedirectDelay() time.Duration {
	if e.RedirectDelay < 0 {
		return 0
	}
	return e.RedirectDelay
}
