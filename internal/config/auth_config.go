package config

type AuthConfig interface {
	GetAuthIssuer() string
	GetAuthClientID() string
	GetAuthClientSecret() string
	GetAuthTokenURL() string
	GetAuthScopes() []string
	GetSessionFile() string
	GetSessionKey() string
}

var _ AuthConfig = EnvVars{}

// GetAuthIssuer returns the OIDC issuer used to discover the token endpoint.
// When empty, GetAuthTokenURL must be set.
func (e EnvVars) GetAuthIssuer() string {
	return e.AuthIssuer
}

func (e EnvVars) GetAuthClientID() string {
	return e.AuthClientID
}

func (e EnvVars) GetAuthClientSecret() string {
	return e.AuthClientSecret
}

func (e EnvVars) GetAuthTokenURL() string {
	return e.AuthTokenURL
}

func (e EnvVars) GetAuthScopes() []string {
	return e.AuthScopes
}

func (e EnvVars) GetSessionFile() string {
	return e.SessionFile
}

// GetSessionKey returns the passphrase sealing the session file at rest.
func (e EnvVars) GetSessionKey() string {
	return e.SessionKey
}
