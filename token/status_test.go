package token_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	kvstorefake "github.com/jrsteele09/go-kb-chat/kvstore/repofake"
	"github.com/jrsteele09/go-kb-chat/token"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		expiresAt     int64
		wantStatus    token.StatusKind
		wantRemaining string
	}{
		{"never fetched", 0, token.StatusNone, ""},
		{"expired", testNow.Unix() - 60, token.StatusExpired, ""},
		{"expires now", testNow.Unix(), token.StatusExpired, ""},
		{"expiring soon", testNow.Unix() + 120, token.StatusExpiringSoon, "2 mins"},
		{"valid", testNow.Unix() + 7200, token.StatusValid, "2 hours"},
		{"valid for days", testNow.Unix() + 86400, token.StatusValid, "1 day"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			f.persist(t, "opaque", tt.expiresAt)

			s, err := f.cache.Status(ctx)
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, s.Status)
			require.Equal(t, tt.wantRemaining, s.HumanRemaining)
			require.NotEmpty(t, s.Message)
			if tt.expiresAt == 0 {
				require.Nil(t, s.ExpiresAt)
			} else {
				require.Equal(t, tt.expiresAt, *s.ExpiresAt)
			}
			require.Zero(t, f.issuer.calls.Load())
		})
	}
}

func TestStatus_DoesNotMutate(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.persist(t, "opaque", testNow.Unix()+10)
	writes := f.store.Writes()

	_, err := f.cache.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, writes, f.store.Writes())
}

func TestStatus_StorageError(t *testing.T) {
	store := kvstorefake.NewFakeKVStore()
	store.FailGets(kvstorefake.ErrInjected)

	_, err := token.NewCache(store).Status(context.Background())
	require.ErrorIs(t, err, kvstorefake.ErrInjected)
}

func TestInspectClaims(t *testing.T) {
	t.Run("jwt", func(t *testing.T) {
		raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
			"iss": "https://issuer.example",
			"sub": testClientID,
			"aud": "api://kb",
			"iat": testNow.Unix(),
			"exp": testNow.Add(time.Hour).Unix(),
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		claims := token.InspectClaims(raw)
		require.NotNil(t, claims)
		require.Equal(t, "https://issuer.example", *claims.Iss)
		require.Equal(t, testClientID, *claims.Sub)
		require.Equal(t, []string{"api://kb"}, claims.Aud)
		require.Equal(t, testNow.Add(time.Hour).Unix(), *claims.Exp)
		require.Equal(t, testNow.Unix(), *claims.Iat)
	})

	t.Run("opaque", func(t *testing.T) {
		require.Nil(t, token.InspectClaims("not-a-jwt"))
		require.Nil(t, token.InspectClaims("a.b.c"))
		require.Nil(t, token.InspectClaims(""))
	})
}

func TestDiscoverEndpoint(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 server.URL,
			"authorization_endpoint": server.URL + "/oauth2/authorize",
			"token_endpoint":         server.URL + "/oauth2/token",
			"jwks_uri":               server.URL + "/.well-known/jwks.json",
		})
	}))
	t.Cleanup(server.Close)

	endpoint, err := token.DiscoverEndpoint(context.Background(), server.Client(), server.URL)
	require.NoError(t, err)
	require.Equal(t, server.URL+"/oauth2/token", endpoint)

	_, err = token.DiscoverEndpoint(context.Background(), server.Client(), server.URL+"/missing")
	require.Error(t, err)
}
