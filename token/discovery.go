package token

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
)

// DiscoverEndpoint resolves the OAuth2 token endpoint advertised by an OpenID
// Connect issuer's discovery document.
func DiscoverEndpoint(ctx context.Context, client *http.Client, issuer string) (string, error) {
	if client != nil {
		ctx = oidc.ClientContext(ctx, client)
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return "", fmt.Errorf("discovering %s: %w", issuer, err)
	}
	endpoint := provider.Endpoint().TokenURL
	if endpoint == "" {
		return "", fmt.Errorf("issuer %s does not advertise a token endpoint", issuer)
	}
	return endpoint, nil
}
