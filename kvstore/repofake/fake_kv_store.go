package kvstorefake

import (
	"context"
	"errors"
	"sync"

	"github.com/jrsteele09/go-kb-chat/kvstore"
)

var _ kvstore.Store = (*FakeKVStore)(nil)

// FakeKVStore is an in-memory Store. Failures can be injected to exercise
// storage error paths.
type FakeKVStore struct {
	values  map[string]string
	writes  int
	failGet error
	failSet error
	lock    sync.RWMutex
}

func NewFakeKVStore() *FakeKVStore {
	return &FakeKVStore{
		values: make(map[string]string),
	}
}

func (s *FakeKVStore) Get(_ context.Context, key string) (string, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.failGet != nil {
		return "", false, s.failGet
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *FakeKVStore) Set(_ context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.failSet != nil {
		return s.failSet
	}
	s.values[key] = value
	s.writes++
	return nil
}

func (s *FakeKVStore) SetMany(_ context.Context, values map[string]string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.failSet != nil {
		return s.failSet
	}
	for k, v := range values {
		s.values[k] = v
	}
	s.writes++
	return nil
}

func (s *FakeKVStore) Delete(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	s.writes++
	return nil
}

// Writes counts successful mutating calls.
func (s *FakeKVStore) Writes() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.writes
}

// FailGets makes every Get return err (nil clears it).
func (s *FakeKVStore) FailGets(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.failGet = err
}

// FailSets makes every write return err (nil clears it).
func (s *FakeKVStore) FailSets(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.failSet = err
}

// ErrInjected is a convenience error for tests.
var ErrInjected = errors.New("injected storage failure")
