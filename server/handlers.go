package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-kb-chat/internal/errors"
	"github.com/jrsteele09/go-kb-chat/relay"
	"github.com/rs/zerolog/log"
)

// maxChatBody bounds the JSON body accepted by the chat endpoint.
const maxChatBody = 64 << 10

type chatRequest struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"app":    s.config.GetAppName(),
		})
	}
}

func (s *Server) NoContentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// ChatHandler relays one question to the knowledge base.
func (s *Server) ChatHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "request body must be JSON with a question", http.StatusBadRequest)
			return
		}

		answer, err := s.asker.Ask(r.Context(), relay.Question{
			Question: strings.TrimSpace(req.Question),
			Context:  req.Context,
		})
		if err != nil {
			logError(r.Method, r.URL.Path, err)
			code, status := relayErrorStatus(err)
			writeJSONError(w, code, err.Error(), status)
			return
		}
		writeJSON(w, http.StatusOK, answer)
	}
}

func relayErrorStatus(err error) (string, int) {
	switch {
	case errors.Is(err, errors.ErrEmptyQuestion):
		return "invalid_request", http.StatusBadRequest
	case errors.Is(err, errors.ErrUnavailable), errors.Is(err, errors.ErrRelayNotConfig):
		return "service_unavailable", http.StatusServiceUnavailable
	case errors.Is(err, errors.ErrUpstream):
		return "upstream_error", http.StatusBadGateway
	default:
		return "internal_error", http.StatusInternalServerError
	}
}

func (s *Server) TokenStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := s.tokens.Status(r.Context())
		if err != nil {
			log.Err(err).Msg("Failed to read token status")
			writeJSONError(w, "internal_error", "failed to read token status", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// TokenRefreshHandler forces a refresh and reports the resulting status. The
// token itself is never returned.
func (s *Server) TokenRefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.tokens.Refresh(r.Context()); err != nil {
			logError(r.Method, r.URL.Path, err)
			switch {
			case errors.Is(err, errors.ErrConfigIncomplete):
				writeJSONError(w, "config_incomplete", err.Error(), http.StatusBadRequest)
			default:
				writeJSONError(w, "refresh_failed", err.Error(), http.StatusBadGateway)
			}
			return
		}

		status, err := s.tokens.Status(r.Context())
		if err != nil {
			log.Err(err).Msg("Failed to read token status after refresh")
			writeJSONError(w, "internal_error", "failed to read token status", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

func (s *Server) TokenClearHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.tokens.ClearCache(r.Context()); err != nil {
			log.Err(err).Msg("Failed to clear token cache")
			writeJSONError(w, "internal_error", "failed to clear token cache", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
