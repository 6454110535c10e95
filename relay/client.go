package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-kb-chat/internal/errors"
	"github.com/rs/zerolog/log"
)

// maxErrorBody caps how much of an upstream error body is kept for the error.
const maxErrorBody = 512

// TokenSource supplies the bearer token for each request. *token.Cache
// satisfies it.
type TokenSource interface {
	GetValidToken(ctx context.Context) (string, error)
}

// Question is the knowledge-base request body.
type Question struct {
	Question string `json:"question"`
	Context  string `json:"context,omitempty"`
}

// Reference is a source document cited by an Answer.
type Reference struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Answer is the knowledge-base response body.
type Answer struct {
	Answer     string      `json:"answer"`
	References []Reference `json:"references,omitempty"`
}

// Client relays questions to the knowledge-base API with a bearer token.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: timeout}
	}
}

func NewClient(baseURL string, tokens TokenSource, options ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSpace(baseURL),
		tokens:  tokens,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return c
}

// Ask sends q and returns the answer. Token errors are returned unchanged so
// callers can still match errors.ErrUnavailable; anything the API rejects
// or returns malformed matches errors.ErrUpstream.
func (c *Client) Ask(ctx context.Context, q Question) (*Answer, error) {
	if strings.TrimSpace(q.Question) == "" {
		return nil, errors.ErrEmptyQuestion
	}
	if c.baseURL == "" {
		return nil, errors.ErrRelayNotConfig
	}

	bearer, err := c.tokens.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal question: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Warn().Int("status", resp.StatusCode).Msg("Knowledge base rejected question")
		return nil, fmt.Errorf("%w: status %d: %s", errors.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var answer Answer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("%w: decoding answer: %w", errors.ErrUpstream, err)
	}
	return &answer, nil
}
