package relay_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-kb-chat/internal/errors"
	"github.com/jrsteele09/go-kb-chat/relay"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token string
	err   error
	calls int
}

func (s *staticTokens) GetValidToken(context.Context) (string, error) {
	s.calls++
	return s.token, s.err
}

func newKnowledgeBase(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestAsk(t *testing.T) {
	var gotAuth string
	var gotBody relay.Question
	kb := newKnowledgeBase(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(relay.Answer{
			Answer:     "Use the self-service portal.",
			References: []relay.Reference{{Title: "Password reset", URL: "https://kb.example.com/reset"}},
		})
	})

	client := relay.NewClient(kb.URL, &staticTokens{token: "abc"})
	answer, err := client.Ask(context.Background(), relay.Question{Question: "reset password?", Context: "/help"})
	require.NoError(t, err)
	require.Equal(t, "Bearer abc", gotAuth)
	require.Equal(t, "reset password?", gotBody.Question)
	require.Equal(t, "/help", gotBody.Context)
	require.Equal(t, "Use the self-service portal.", answer.Answer)
	require.Len(t, answer.References, 1)
}

func TestAskErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty question", func(t *testing.T) {
		tokens := &staticTokens{token: "abc"}
		client := relay.NewClient("http://unused", tokens)
		_, err := client.Ask(ctx, relay.Question{Question: "  "})
		require.ErrorIs(t, err, errors.ErrEmptyQuestion)
		require.Zero(t, tokens.calls)
	})

	t.Run("no url", func(t *testing.T) {
		client := relay.NewClient("", &staticTokens{token: "abc"})
		_, err := client.Ask(ctx, relay.Question{Question: "hi"})
		require.ErrorIs(t, err, errors.ErrRelayNotConfig)
	})

	t.Run("token unavailable passes through", func(t *testing.T) {
		called := false
		kb := newKnowledgeBase(t, func(w http.ResponseWriter, r *http.Request) { called = true })
		client := relay.NewClient(kb.URL, &staticTokens{err: errors.ErrUnavailable})
		_, err := client.Ask(ctx, relay.Question{Question: "hi"})
		require.ErrorIs(t, err, errors.ErrUnavailable)
		require.False(t, called)
	})

	t.Run("non-200", func(t *testing.T) {
		kb := newKnowledgeBase(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "token expired", http.StatusUnauthorized)
		})
		client := relay.NewClient(kb.URL, &staticTokens{token: "abc"})
		_, err := client.Ask(ctx, relay.Question{Question: "hi"})
		require.ErrorIs(t, err, errors.ErrUpstream)
		require.Contains(t, err.Error(), "401")
	})

	t.Run("malformed body", func(t *testing.T) {
		kb := newKnowledgeBase(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		})
		client := relay.NewClient(kb.URL, &staticTokens{token: "abc"})
		_, err := client.Ask(ctx, relay.Question{Question: "hi"})
		require.ErrorIs(t, err, errors.ErrUpstream)
	})
}
