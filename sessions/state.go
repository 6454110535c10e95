package sessions

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jrsteele09/go-kb-chat/internal/errors"
)

// State is the persisted aggregate. SessionOrder holds every key of Sessions
// exactly once, most recently created first; it drives eviction only.
// ActiveSessionID is nil or references a key of Sessions.
type State struct {
	Sessions        map[string]*Session `json:"sessions"`
	ActiveSessionID *string             `json:"activeSessionId"`
	SessionOrder    []string            `json:"sessionOrder"`
}

func emptyState() State {
	return State{
		Sessions:     make(map[string]*Session),
		SessionOrder: []string{},
	}
}

// Clone returns a deep copy.
func (st State) Clone() State {
	out := State{
		Sessions:     make(map[string]*Session, len(st.Sessions)),
		SessionOrder: append([]string{}, st.SessionOrder...),
	}
	for id, s := range st.Sessions {
		out.Sessions[id] = s.Clone()
	}
	if st.ActiveSessionID != nil {
		id := *st.ActiveSessionID
		out.ActiveSessionID = &id
	}
	return out
}

// Encode serializes st as the storage blob.
func Encode(st State) ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session state: %w", err)
	}
	return data, nil
}

// Decode parses a storage blob. Unparsable input returns errors.ErrStorageCorrupt.
// The result is repaired so its invariants hold even for hand-edited blobs.
func Decode(data []byte) (State, error) {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return emptyState(), fmt.Errorf("%w: %w", errors.ErrStorageCorrupt, err)
	}
	return repair(st), nil
}

// repair restores the State invariants: order is a permutation of the
// session keys and the active id, when set, exists.
func repair(st State) State {
	if st.Sessions == nil {
		st.Sessions = make(map[string]*Session)
	}
	for id, s := range st.Sessions {
		if s == nil {
			delete(st.Sessions, id)
			continue
		}
		s.ID = id
		if s.Messages == nil {
			s.Messages = []Message{}
		}
	}

	seen := make(map[string]bool, len(st.Sessions))
	order := make([]string, 0, len(st.Sessions))
	for _, id := range st.SessionOrder {
		if _, ok := st.Sessions[id]; ok && !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}
	var missing []*Session
	for id, s := range st.Sessions {
		if !seen[id] {
			missing = append(missing, s)
		}
	}
	// Unordered sessions are treated as the oldest, newest of them first.
	sort.Slice(missing, func(i, j int) bool {
		if !missing[i].Created.Equal(missing[j].Created) {
			return missing[i].Created.After(missing[j].Created)
		}
		return missing[i].ID < missing[j].ID
	})
	for _, s := range missing {
		order = append(order, s.ID)
	}
	st.SessionOrder = order

	if st.ActiveSessionID != nil {
		if _, ok := st.Sessions[*st.ActiveSessionID]; !ok {
			st.ActiveSessionID = nil
		}
	}
	return st
}
