package sessions

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jrsteele09/go-kb-chat/internal/errors"
	"github.com/jrsteele09/go-kb-chat/kvstore"
	"github.com/rs/zerolog/log"
)

const (
	DefaultStorageKey  = "kb_chat_sessions"
	DefaultMaxSessions = 50
	DefaultMaxAge      = 30 * 24 * time.Hour
)

// Store is a bounded, ordered collection of conversations with one active
// conversation, persisted as a single blob under one key.
//
// The mutex only protects this instance. Two Store instances over the same
// key (two browser tabs, two processes) do not coordinate: each persists its
// full snapshot and the last writer wins.
type Store struct {
	repo        kvstore.Store
	key         string
	maxSessions int
	maxAge      time.Duration
	nowFunc     func() time.Time

	mu    sync.Mutex
	state State
}

type StoreOption func(*Store)

func WithNowFunc(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowFunc = now
	}
}

func WithStorageKey(key string) StoreOption {
	return func(s *Store) {
		s.key = key
	}
}

// WithMaxSessions bounds the number of stored conversations.
func WithMaxSessions(n int) StoreOption {
	return func(s *Store) {
		s.maxSessions = n
	}
}

// WithMaxAge sets how long an untouched conversation survives CleanupOld.
func WithMaxAge(age time.Duration) StoreOption {
	return func(s *Store) {
		s.maxAge = age
	}
}

// New loads the store from repo. A missing or corrupt blob starts an empty
// store; a corrupt one is logged and overwritten on the next write.
func New(ctx context.Context, repo kvstore.Store, options ...StoreOption) (*Store, error) {
	s := &Store{
		repo:        repo,
		key:         DefaultStorageKey,
		maxSessions: DefaultMaxSessions,
		maxAge:      DefaultMaxAge,
		nowFunc:     time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.maxSessions < 1 {
		s.maxSessions = 1
	}

	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	s.state = emptyState()

	blob, found, err := s.repo.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("loading %s: %w", s.key, err)
	}
	if !found || blob == "" {
		return nil
	}

	st, err := Decode([]byte(blob))
	if err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("Discarding unreadable session storage")
		return nil
	}
	s.state = st
	return nil
}

// Initialize removes expired conversations and guarantees an active one.
// Call it once per process.
func (s *Store) Initialize(ctx context.Context) error {
	if _, err := s.CleanupOld(ctx); err != nil {
		return err
	}
	if _, err := s.GetOrCreateActive(ctx); err != nil {
		return err
	}
	return nil
}

// Create starts a new, empty, active conversation. When the store is at
// capacity the conversation created longest ago is evicted, regardless of
// how recently it was updated.
func (s *Store) Create(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.createLocked()
	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}
	return sess.Clone(), nil
}

func (s *Store) createLocked() *Session {
	now := s.now()
	sess := &Session{
		ID:       newID("session", now),
		Title:    DefaultTitle,
		Messages: []Message{},
		Created:  now,
		Updated:  now,
	}
	s.state.Sessions[sess.ID] = sess
	s.state.SessionOrder = append([]string{sess.ID}, s.state.SessionOrder...)
	id := sess.ID
	s.state.ActiveSessionID = &id

	for len(s.state.SessionOrder) > s.maxSessions {
		oldest := s.state.SessionOrder[len(s.state.SessionOrder)-1]
		s.state.SessionOrder = s.state.SessionOrder[:len(s.state.SessionOrder)-1]
		delete(s.state.Sessions, oldest)
		log.Debug().Str("session_id", oldest).Msg("Evicted oldest session")
	}
	return sess
}

// GetOrCreateActive returns the active conversation, creating (and
// persisting) a new one when there is none or the pointer is dangling. It is
// a read with a possible write; the store never reports "no active session".
func (s *Store) GetOrCreateActive(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.activeLocked(); ok {
		return sess.Clone(), nil
	}
	sess := s.createLocked()
	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}
	return sess.Clone(), nil
}

func (s *Store) activeLocked() (*Session, bool) {
	if s.state.ActiveSessionID == nil {
		return nil, false
	}
	sess, ok := s.state.Sessions[*s.state.ActiveSessionID]
	return sess, ok
}

// ActiveID returns the active conversation id without creating one.
func (s *Store) ActiveID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.activeLocked(); ok {
		return sess.ID, true
	}
	return "", false
}

// Get returns one conversation or errors.ErrUnknownSession.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.state.Sessions[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownSession, "session %s", id)
	}
	return sess.Clone(), nil
}

// All returns every conversation, most recently updated first. This is the
// order user-facing history lists use; it is unrelated to eviction order.
func (s *Store) All() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Session, 0, len(s.state.Sessions))
	for _, sess := range s.state.Sessions {
		out = append(out, sess.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Updated.Equal(out[j].Updated) {
			return out[i].Updated.After(out[j].Updated)
		}
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.After(out[j].Created)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Order returns the eviction order, most recently created first.
func (s *Store) Order() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.state.SessionOrder...)
}

// Len reports the number of stored conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Sessions)
}

// Snapshot returns a deep copy of the full persisted state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// SetActive switches the active pointer to id.
func (s *Store) SetActive(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.state.Sessions[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownSession, "session %s", id)
	}
	activeID := id
	s.state.ActiveSessionID = &activeID
	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}
	return sess.Clone(), nil
}

// Patch lists the fields Update may change. Nil fields are left alone.
// Messages replaces the whole sequence; there is no append primitive.
type Patch struct {
	Title    *string
	Messages []Message
}

// Update merges p into the conversation and bumps its Updated time.
func (s *Store) Update(ctx context.Context, id string, p Patch) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.state.Sessions[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownSession, "session %s", id)
	}
	if p.Title != nil {
		sess.Title = *p.Title
	}
	if p.Messages != nil {
		sess.Messages = cloneMessages(p.Messages)
		for i := range sess.Messages {
			sess.Messages[i].Timestamp = normalizeTime(sess.Messages[i].Timestamp)
		}
	}
	if now := s.now(); now.After(sess.Updated) {
		sess.Updated = now
	}

	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}
	return sess.Clone(), nil
}

// Rename changes only the title.
func (s *Store) Rename(ctx context.Context, id, title string) (*Session, error) {
	return s.Update(ctx, id, Patch{Title: &title})
}

// Delete removes a conversation. Deleting the active conversation promotes
// the most recently created remaining one, or creates a fresh conversation
// when none remain. It reports false for an unknown id.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Sessions[id]; !ok {
		return false, nil
	}
	s.removeLocked(id)

	if s.state.ActiveSessionID == nil {
		if len(s.state.SessionOrder) > 0 {
			next := s.state.SessionOrder[0]
			s.state.ActiveSessionID = &next
		} else {
			s.createLocked()
		}
	}

	if err := s.persistLocked(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// CleanupOld removes conversations not updated within the maximum age and
// reports how many were removed. Nothing is written when nothing expired.
func (s *Store) CleanupOld(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.maxAge)
	var expired []string
	for id, sess := range s.state.Sessions {
		if sess.Updated.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}

	for _, id := range expired {
		s.removeLocked(id)
	}
	log.Debug().Int("removed", len(expired)).Msg("Removed expired sessions")

	if err := s.persistLocked(ctx); err != nil {
		return len(expired), err
	}
	return len(expired), nil
}

// removeLocked drops id from the sessions, the order and the active pointer.
func (s *Store) removeLocked(id string) {
	delete(s.state.Sessions, id)
	for i, oid := range s.state.SessionOrder {
		if oid == id {
			s.state.SessionOrder = append(s.state.SessionOrder[:i], s.state.SessionOrder[i+1:]...)
			break
		}
	}
	if s.state.ActiveSessionID != nil && *s.state.ActiveSessionID == id {
		s.state.ActiveSessionID = nil
	}
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := Encode(s.state)
	if err != nil {
		return err
	}
	if err := s.repo.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("saving %s: %w", s.key, err)
	}
	return nil
}

func (s *Store) now() time.Time {
	return normalizeTime(s.nowFunc())
}
