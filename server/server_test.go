package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jrsteele09/go-kb-chat/internal/config"
	"github.com/jrsteele09/go-kb-chat/internal/errors"
	"github.com/jrsteele09/go-kb-chat/internal/utils"
	"github.com/jrsteele09/go-kb-chat/relay"
	"github.com/jrsteele09/go-kb-chat/server"
	"github.com/jrsteele09/go-kb-chat/token"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	refreshErr error
	status     token.Status
	statusErr  error
	refreshes  int
	clears     int
}

func (f *fakeTokens) Refresh(context.Context) (string, error) {
	f.refreshes++
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	return "fresh-token", nil
}

func (f *fakeTokens) Status(context.Context) (token.Status, error) {
	return f.status, f.statusErr
}

func (f *fakeTokens) ClearCache(context.Context) error {
	f.clears++
	return nil
}

type fakeAsker struct {
	answer *relay.Answer
	err    error
	panics bool
}

func (f *fakeAsker) Ask(_ context.Context, q relay.Question) (*relay.Answer, error) {
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	if q.Question == "" {
		return nil, errors.ErrEmptyQuestion
	}
	return f.answer, nil
}

type serverFixture struct {
	tokens *fakeTokens
	asker  *fakeAsker
	srv    *server.Server
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("ALLOWED_ORIGINS", "https://intranet.example.com")

	f := &serverFixture{
		tokens: &fakeTokens{status: token.Status{Status: token.StatusValid, Message: "Token valid for 1 hour", ExpiresAt: utils.Ptr(int64(1_700_003_600))}},
		asker:  &fakeAsker{answer: &relay.Answer{Answer: "42"}},
	}
	f.srv = server.New(config.New(), f.tokens, f.asker)
	return f
}

func (f *serverFixture) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func TestRoutes(t *testing.T) {
	f := newServerFixture(t)
	require.ElementsMatch(t, []string{
		"GET " + server.RouteHealth,
		"POST " + server.RouteChat,
		"GET " + server.RouteTokenStatus,
		"POST " + server.RouteTokenRefresh,
		"POST " + server.RouteTokenClear,
		"OPTIONS /api/",
	}, f.srv.Routes())
}

func TestHealth(t *testing.T) {
	f := newServerFixture(t)
	rec := f.do(http.MethodGet, server.RouteHealth, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestChatHandler(t *testing.T) {
	t.Run("answer", func(t *testing.T) {
		f := newServerFixture(t)
		rec := f.do(http.MethodPost, server.RouteChat, `{"question":"meaning of life?","context":"/faq"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var answer relay.Answer
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&answer))
		require.Equal(t, "42", answer.Answer)
	})

	t.Run("invalid body", func(t *testing.T) {
		f := newServerFixture(t)
		rec := f.do(http.MethodPost, server.RouteChat, `not json`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "invalid_request", decodeError(t, rec))
	})

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{err: errors.ErrEmptyQuestion, status: http.StatusBadRequest, code: "invalid_request"},
		{err: fmt.Errorf("%w: no manual token", errors.ErrUnavailable), status: http.StatusServiceUnavailable, code: "service_unavailable"},
		{err: errors.ErrRelayNotConfig, status: http.StatusServiceUnavailable, code: "service_unavailable"},
		{err: fmt.Errorf("%w: status 500", errors.ErrUpstream), status: http.StatusBadGateway, code: "upstream_error"},
		{err: fmt.Errorf("disk on fire"), status: http.StatusInternalServerError, code: "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			f := newServerFixture(t)
			f.asker.err = tt.err
			rec := f.do(http.MethodPost, server.RouteChat, `{"question":"hi"}`)
			require.Equal(t, tt.status, rec.Code)
			require.Equal(t, tt.code, decodeError(t, rec))
		})
	}

	t.Run("panic is recovered", func(t *testing.T) {
		f := newServerFixture(t)
		f.asker.panics = true
		rec := f.do(http.MethodPost, server.RouteChat, `{"question":"hi"}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestTokenHandlers(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		f := newServerFixture(t)
		rec := f.do(http.MethodGet, server.RouteTokenStatus, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var status token.Status
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
		require.Equal(t, token.StatusValid, status.Status)
		require.Equal(t, int64(1_700_003_600), *status.ExpiresAt)
	})

	t.Run("refresh does not leak the token", func(t *testing.T) {
		f := newServerFixture(t)
		rec := f.do(http.MethodPost, server.RouteTokenRefresh, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, 1, f.tokens.refreshes)
		require.NotContains(t, rec.Body.String(), "fresh-token")
	})

	t.Run("refresh with incomplete config", func(t *testing.T) {
		f := newServerFixture(t)
		f.tokens.refreshErr = errors.ErrConfigIncomplete
		rec := f.do(http.MethodPost, server.RouteTokenRefresh, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "config_incomplete", decodeError(t, rec))
	})

	t.Run("refresh failure", func(t *testing.T) {
		f := newServerFixture(t)
		f.tokens.refreshErr = fmt.Errorf("%w: 401", errors.ErrRefreshFailed)
		rec := f.do(http.MethodPost, server.RouteTokenRefresh, "")
		require.Equal(t, http.StatusBadGateway, rec.Code)
		require.Equal(t, "refresh_failed", decodeError(t, rec))
	})

	t.Run("clear", func(t *testing.T) {
		f := newServerFixture(t)
		rec := f.do(http.MethodPost, server.RouteTokenClear, "")
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, 1, f.tokens.clears)
	})

	t.Run("wrong method", func(t *testing.T) {
		f := newServerFixture(t)
		rec := f.do(http.MethodGet, server.RouteTokenClear, "")
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestCors(t *testing.T) {
	t.Run("allowed origin", func(t *testing.T) {
		f := newServerFixture(t)
		rec := f.do(http.MethodPost, server.RouteChat, `{"question":"hi"}`, "Origin", "https://intranet.example.com")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "https://intranet.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		f := newServerFixture(t)
		rec := f.do(http.MethodPost, server.RouteChat, `{"question":"hi"}`, "Origin", "https://evil.example.com")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		f := newServerFixture(t)
		rec := f.do(http.MethodOptions, server.RouteChat, "",
			"Origin", "https://intranet.example.com",
			"Access-Control-Request-Method", "POST")
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		require.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("wildcard", func(t *testing.T) {
		f := newServerFixture(t)
		t.Setenv("ALLOWED_ORIGINS", "*")
		rec := f.do(http.MethodGet, server.RouteTokenStatus, "", "Origin", "https://anywhere.example.com")
		require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
	})
}
