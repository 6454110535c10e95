package token

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-kb-chat/kvstore"
)

// Well-known keys in the host key-value store.
const (
	KeyUseOAuth       = "kb_chat_use_oauth"
	KeyClientID       = "kb_chat_client_id"
	KeyClientSecret   = "kb_chat_client_secret"
	KeyTenantID       = "kb_chat_tenant_id"
	KeyScope          = "kb_chat_scope"
	KeyEndpoint       = "kb_chat_oauth_endpoint"
	KeyManualToken    = "kb_chat_api_token"
	KeyOAuthToken     = "kb_chat_oauth_token"
	KeyTokenExpiresAt = "kb_chat_token_expires_at"
)

const microsoftTokenEndpoint = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"

// OAuthSettings is the credential configuration held by the host.
type OAuthSettings struct {
	UseOAuth     bool
	ClientID     string
	ClientSecret string
	TenantID     string
	Scope        string
	Endpoint     string
	ManualToken  string
}

// TokenEndpoint returns the configured endpoint, or the Microsoft identity
// platform endpoint for TenantID when none is configured.
func (o OAuthSettings) TokenEndpoint() string {
	if endpoint := strings.TrimSpace(o.Endpoint); endpoint != "" {
		return endpoint
	}
	if tenant := strings.TrimSpace(o.TenantID); tenant != "" {
		return fmt.Sprintf(microsoftTokenEndpoint, tenant)
	}
	return ""
}

// Complete reports whether a client-credentials request can be attempted.
func (o OAuthSettings) Complete() bool {
	return strings.TrimSpace(o.ClientID) != "" &&
		strings.TrimSpace(o.ClientSecret) != "" &&
		o.TokenEndpoint() != ""
}

// Repo reads and writes credential state by well-known key. Absent keys
// read as empty, 0 or false.
type Repo struct {
	store kvstore.Store
}

func NewRepo(store kvstore.Store) *Repo {
	return &Repo{store: store}
}

// LoadSettings reads the OAuth configuration.
func (r *Repo) LoadSettings(ctx context.Context) (OAuthSettings, error) {
	var (
		s   OAuthSettings
		err error
	)
	if s.UseOAuth, err = kvstore.GetBool(ctx, r.store, KeyUseOAuth); err != nil {
		return OAuthSettings{}, fmt.Errorf("loading %s: %w", KeyUseOAuth, err)
	}
	fields := []struct {
		key string
		dst *string
	}{
		{KeyClientID, &s.ClientID},
		{KeyClientSecret, &s.ClientSecret},
		{KeyTenantID, &s.TenantID},
		{KeyScope, &s.Scope},
		{KeyEndpoint, &s.Endpoint},
		{KeyManualToken, &s.ManualToken},
	}
	for _, f := range fields {
		if *f.dst, err = kvstore.GetString(ctx, r.store, f.key); err != nil {
			return OAuthSettings{}, fmt.Errorf("loading %s: %w", f.key, err)
		}
	}
	return s, nil
}

// SaveSettings writes the OAuth configuration in one batch.
func (r *Repo) SaveSettings(ctx context.Context, s OAuthSettings) error {
	err := r.store.SetMany(ctx, map[string]string{
		KeyUseOAuth:     kvstore.FormatBool(s.UseOAuth),
		KeyClientID:     s.ClientID,
		KeyClientSecret: s.ClientSecret,
		KeyTenantID:     s.TenantID,
		KeyScope:        s.Scope,
		KeyEndpoint:     s.Endpoint,
		KeyManualToken:  s.ManualToken,
	})
	if err != nil {
		return fmt.Errorf("saving oauth settings: %w", err)
	}
	return nil
}

// LoadCredential reads the persisted OAuth credential.
func (r *Repo) LoadCredential(ctx context.Context) (Credential, error) {
	tok, err := kvstore.GetString(ctx, r.store, KeyOAuthToken)
	if err != nil {
		return Credential{}, fmt.Errorf("loading %s: %w", KeyOAuthToken, err)
	}
	exp, err := kvstore.GetInt64(ctx, r.store, KeyTokenExpiresAt)
	if err != nil {
		return Credential{}, fmt.Errorf("loading %s: %w", KeyTokenExpiresAt, err)
	}
	return Credential{Token: tok, ExpiresAt: exp, Source: SourceOAuth}, nil
}

// SaveCredential replaces token and expiry together.
func (r *Repo) SaveCredential(ctx context.Context, c Credential) error {
	err := r.store.SetMany(ctx, map[string]string{
		KeyOAuthToken:     c.Token,
		KeyTokenExpiresAt: kvstore.FormatInt64(c.ExpiresAt),
	})
	if err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	return nil
}

// ZeroExpiry forces the persisted credential to read as invalid while
// keeping the token string.
func (r *Repo) ZeroExpiry(ctx context.Context) error {
	if err := r.store.Set(ctx, KeyTokenExpiresAt, "0"); err != nil {
		return fmt.Errorf("clearing %s: %w", KeyTokenExpiresAt, err)
	}
	return nil
}
