package token

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-kb-chat/internal/errors"
	"github.com/jrsteele09/go-kb-chat/kvstore"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Cache keeps one bearer token available to callers, refreshing it lazily
// through the OAuth2 client-credentials grant.
//
// Refreshes are not de-duplicated: concurrent callers that all find the
// token invalid each call the issuer, and the last successful write wins.
// Token and expiry are always written together, so no reader sees a mixed
// pair.
type Cache struct {
	repo       *Repo
	httpClient *http.Client
	nowFunc    func() time.Time

	mu     sync.RWMutex
	cached *Credential
}

type CacheOption func(*Cache)

func WithNowFunc(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.nowFunc = now
	}
}

// WithHTTPClient sets the client used for token requests. Its Timeout bounds
// a refresh; a timed out refresh is a refresh failure.
func WithHTTPClient(client *http.Client) CacheOption {
	return func(c *Cache) {
		c.httpClient = client
	}
}

// WithTimeout is shorthand for an http.Client with the given timeout.
func WithTimeout(timeout time.Duration) CacheOption {
	return func(c *Cache) {
		c.httpClient = &http.Client{Timeout: timeout}
	}
}

func NewCache(store kvstore.Store, options ...CacheOption) *Cache {
	c := &Cache{
		repo: NewRepo(store),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.nowFunc == nil {
		c.nowFunc = time.Now
	}
	return c
}

// Repo exposes the persisted settings.
func (c *Cache) Repo() *Repo {
	return c.repo
}

// GetValidToken returns a usable bearer token or an error matching
// errors.ErrUnavailable. A cached or persisted OAuth token is only returned
// while its expiry is more than ExpiryBuffer away; the manual token is exempt
// from expiry. A token the issuer has just minted with a lifetime at or under
// ExpiryBuffer is returned from that refresh, since nothing fresher exists,
// and the next call refreshes again.
func (c *Cache) GetValidToken(ctx context.Context) (string, error) {
	settings, err := c.repo.LoadSettings(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrUnavailable, err)
	}

	if !settings.UseOAuth {
		if strings.TrimSpace(settings.ManualToken) == "" {
			return "", fmt.Errorf("%w: manual token is blank", errors.ErrUnavailable)
		}
		return settings.ManualToken, nil
	}

	now := c.nowFunc()
	if cached, ok := c.memory(); ok && cached.ValidAt(now) {
		return cached.Token, nil
	}

	persisted, err := c.repo.LoadCredential(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load persisted credential")
	} else if persisted.ValidAt(now) {
		c.remember(persisted)
		return persisted.Token, nil
	}

	token, refreshErr := c.refresh(ctx, settings)
	if refreshErr == nil {
		return token, nil
	}

	if strings.TrimSpace(settings.ManualToken) != "" {
		log.Info().Err(refreshErr).Msg("Token refresh failed, falling back to manual token")
		return settings.ManualToken, nil
	}
	log.Warn().Err(refreshErr).Msg("Token refresh failed and no manual token configured")
	return "", fmt.Errorf("%w: %w", errors.ErrUnavailable, refreshErr)
}

// Refresh fetches a new token from the issuer regardless of the cached one.
// It fails with errors.ErrConfigIncomplete before any network call when the
// client id, secret or endpoint is missing, and with errors.ErrRefreshFailed
// for any transport, status or decoding problem. On failure the previously
// cached credential is left untouched.
func (c *Cache) Refresh(ctx context.Context) (string, error) {
	settings, err := c.repo.LoadSettings(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrRefreshFailed, err)
	}
	return c.refresh(ctx, settings)
}

func (c *Cache) refresh(ctx context.Context, settings OAuthSettings) (string, error) {
	if !settings.Complete() {
		return "", errors.ErrConfigIncomplete
	}

	cc := clientcredentials.Config{
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		TokenURL:     settings.TokenEndpoint(),
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	if scope := strings.TrimSpace(settings.Scope); scope != "" {
		cc.Scopes = []string{scope}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := cc.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrRefreshFailed, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: response missing access_token", errors.ErrRefreshFailed)
	}

	lifetime := expiresIn(tok)
	if lifetime <= ExpiryBuffer {
		log.Warn().Dur("lifetime", lifetime).Msg("Issuer granted a token shorter than the expiry buffer")
	}
	cred := Credential{
		Token:     tok.AccessToken,
		ExpiresAt: c.nowFunc().Add(lifetime).Unix(),
		Source:    SourceOAuth,
	}
	if err := c.repo.SaveCredential(ctx, cred); err != nil {
		// The token is still good for this process.
		log.Warn().Err(err).Msg("Failed to persist refreshed credential")
	}
	c.remember(cred)

	log.Debug().Int64("expires_at", cred.ExpiresAt).Msg("Token refreshed")
	return cred.Token, nil
}

// ClearCache drops the in-memory credential and zeroes the persisted expiry so
// the next GetValidToken reloads or refreshes. The stored token string is kept.
func (c *Cache) ClearCache(ctx context.Context) error {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()

	return c.repo.ZeroExpiry(ctx)
}

func (c *Cache) memory() (Credential, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cached == nil {
		return Credential{}, false
	}
	return *c.cached, true
}

func (c *Cache) remember(cred Credential) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = &cred
}

// expiresIn reads expires_in from the raw token response. An absent,
// unparsable or non-positive value means DefaultExpiresIn.
func expiresIn(tok *oauth2.Token) time.Duration {
	var secs int64
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		secs = int64(v)
	case int64:
		secs = v
	case json.Number:
		secs, _ = v.Int64()
	case string:
		secs, _ = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	}
	if secs <= 0 {
		return DefaultExpiresIn
	}
	return time.Duration(secs) * time.Second
}
