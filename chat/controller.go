package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-kb-chat/internal/errors"
	"github.com/jrsteele09/go-kb-chat/relay"
	"github.com/jrsteele09/go-kb-chat/sessions"
	"github.com/rs/zerolog/log"
)

// Asker answers one question. *relay.Client satisfies it.
type Asker interface {
	Ask(ctx context.Context, q relay.Question) (*relay.Answer, error)
}

// Controller records a conversation in the session store while relaying each
// question to the knowledge base.
type Controller struct {
	store       *sessions.Store
	asker       Asker
	titleLength int
	nowFunc     func() time.Time
}

type ControllerOption func(*Controller)

func WithNowFunc(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.nowFunc = now
	}
}

func WithTitleLength(n int) ControllerOption {
	return func(c *Controller) {
		c.titleLength = n
	}
}

func NewController(store *sessions.Store, asker Asker, options ...ControllerOption) *Controller {
	c := &Controller{
		store:       store,
		asker:       asker,
		titleLength: 30,
		nowFunc:     time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Send appends question to the active conversation, relays it and appends
// the answer. The user message is stored before the relay call, so a relay
// failure leaves it in place and the error is returned with the session as
// it stands.
func (c *Controller) Send(ctx context.Context, question, pageContext string) (*sessions.Session, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.ErrEmptyQuestion
	}

	active, err := c.store.GetOrCreateActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving active session: %w", err)
	}

	userMsg := sessions.NewMessage(sessions.RoleUser, question, c.nowFunc())
	patch := sessions.Patch{Messages: append(active.Messages, userMsg)}
	if title, ok := sessions.DerivedTitle(active, userMsg, c.titleLength); ok {
		patch.Title = &title
	}
	current, err := c.store.Update(ctx, active.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("storing question: %w", err)
	}

	answer, askErr := c.asker.Ask(ctx, relay.Question{Question: question, Context: pageContext})
	if askErr != nil {
		log.Warn().Err(askErr).Str("session_id", current.ID).Msg("Relay failed")
		return current, askErr
	}

	// Re-read so messages written while the relay was in flight are kept.
	current, err = c.store.Get(active.ID)
	if err != nil {
		return nil, err
	}
	reply := sessions.NewMessage(sessions.RoleAssistant, answer.Answer, c.nowFunc())
	reply.References = toSessionReferences(answer.References)

	current, err = c.store.Update(ctx, current.ID, sessions.Patch{Messages: append(current.Messages, reply)})
	if err != nil {
		return nil, fmt.Errorf("storing answer: %w", err)
	}
	return current, nil
}

func toSessionReferences(refs []relay.Reference) []sessions.Reference {
	if len(refs) == 0 {
		return nil
	}
	out := make([]sessions.Reference, len(refs))
	for i, r := range refs {
		out[i] = sessions.Reference{Title: r.Title, URL: r.URL, Description: r.Description}
	}
	return out
}
