package store

import (
	"sync"
)

// Subscriber observes every dispatched action with the resulting state.
// It is called under the store lock and must not dispatch.
type Subscriber func(sid string, action Action, state State)

// Store keeps one State per browser session. Dispatch is the only way to
// change a State.
type Store struct {
	mu     sync.Mutex
	states map[string]State

	subsMu  sync.RWMutex
	subs    map[int]Subscriber
	nextSub int
}

func New() *Store {
	return &Store{
		states: map[string]State{},
		subs:   map[int]Subscriber{},
	}
}

// Dispatch reduces action into the state of sid and notifies subscribers.
// SessionCleared removes the session entirely. Only SessionSet creates a
// session; other actions for an unknown sid are dropped, which covers saves
// finishing after sign-out.
func (s *Store) Dispatch(sid string, action Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.states[sid]
	if !ok && action.Kind != KindSessionSet {
		return State{}
	}

	next := Reduce(current, action)
	if action.Kind == KindSessionCleared {
		delete(s.states, sid)
	} else {
		s.states[sid] = next
	}

	s.subsMu.RLock()
	for _, sub := range s.subs {
		sub(sid, action, next)
	}
	s.subsMu.RUnlock()

	return next
}

// State returns the current state of sid, false when the session is unknown.
func (s *Store) State(sid string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[sid]
	return state, ok
}

// Subscribe registers fn and returns the function that removes it.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// ForEachSession calls fn for a snapshot of all sessions, outside the lock.
func (s *Store) ForEachSession(fn func(sid string, state State)) {
	s.mu.Lock()
	snapshot := make(map[string]State, len(s.states))
	for sid, state := range s.states {
		snapshot[sid] = state
	}
	s.mu.Unlock()

	for sid, state := range snapshot {
		fn(sid, state)
	}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}
