// Package app wires configuration, storage and the domain services together
// for the binaries.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-kb-chat/chat"
	"github.com/jrsteele09/go-kb-chat/internal/config"
	"github.com/jrsteele09/go-kb-chat/kvstore"
	"github.com/jrsteele09/go-kb-chat/kvstore/backend"
	"github.com/jrsteele09/go-kb-chat/relay"
	"github.com/jrsteele09/go-kb-chat/server"
	"github.com/jrsteele09/go-kb-chat/sessions"
	"github.com/jrsteele09/go-kb-chat/token"
	"github.com/rs/zerolog/log"
)

type App struct {
	Config config.Config
	Store  kvstore.Store
	Tokens *token.Cache
	Relay  *relay.Client

	close backend.CloseFunc
}

// New opens the configured key-value backend and builds the credential
// cache and relay client on top of it.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	store, closeFn, err := backend.Open(ctx, cfg.GetStoreDriver(), cfg.GetStoreDSN(), cfg.GetDataFolder())
	if err != nil {
		return nil, fmt.Errorf("[app New] %w", err)
	}
	log.Debug().Str("driver", cfg.GetStoreDriver()).Msg("Opened key-value store")

	tokens := token.NewCache(store, token.WithTimeout(cfg.GetRequestTimeout()))
	return &App{
		Config: cfg,
		Store:  store,
		Tokens: tokens,
		Relay:  relay.NewClient(cfg.GetKnowledgeBaseURL(), tokens, relay.WithTimeout(cfg.GetRequestTimeout())),
		close:  closeFn,
	}, nil
}

// LoadSessions loads the conversation store without initializing it.
func (a *App) LoadSessions(ctx context.Context) (*sessions.Store, error) {
	return sessions.New(ctx, a.Store,
		sessions.WithStorageKey(a.Config.GetSessionStorageKey()),
		sessions.WithMaxSessions(a.Config.GetMaxSessions()),
		sessions.WithMaxAge(a.Config.GetMaxSessionAge()),
	)
}

// Sessions loads the conversation store and runs its one-time
// initialization.
func (a *App) Sessions(ctx context.Context) (*sessions.Store, error) {
	s, err := a.LoadSessions(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Chat returns a controller over an initialized session store.
func (a *App) Chat(ctx context.Context) (*chat.Controller, *sessions.Store, error) {
	s, err := a.Sessions(ctx)
	if err != nil {
		return nil, nil, err
	}
	return chat.NewController(s, a.Relay, chat.WithTitleLength(a.Config.GetTitleLength())), s, nil
}

// Handler returns the HTTP relay surface.
func (a *App) Handler() http.Handler {
	return server.New(a.Config, a.Tokens, a.Relay)
}

func (a *App) Close() error {
	return a.close()
}
