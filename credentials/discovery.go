package credentials

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Discover resolves the issuer's OAuth2 endpoints from its
// /.well-known/openid-configuration document.
func Discover(ctx context.Context, issuer string) (oauth2.Endpoint, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return oauth2.Endpoint{}, fmt.Errorf("[credentials Discover] %s: %w", issuer, err)
	}
	return provider.Endpoint(), nil
}
