package store

import (
	"strings"
	"sync"
)

// Store serialises actions and notifies subscribers after each one.
type Store struct {
	mu          sync.Mutex
	state       State
	generations map[string]uint64
	subscribers map[int]func(State)
	nextID      int
}

// New returns a store holding initial.
func New(initial State) *Store {
	return &Store{
		state:       initial,
		generations: make(map[string]uint64),
		subscribers: make(map[int]func(State)),
	}
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies action and returns the new state.
func (s *Store) Dispatch(action Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, action)
	state := s.state
	subscribers := s.snapshotSubscribers()
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(state)
	}
	return state
}

// Begin starts a fetch of key and returns its generation. A fetch begun
// later for the same resource supersedes it, whatever its query: both
// write the same part of the state.
func (s *Store) Begin(key string) uint64 {
	s.mu.Lock()
	s.generations[resourceOf(key)]++
	generation := s.generations[resourceOf(key)]
	s.mu.Unlock()

	s.Dispatch(FetchStarted{Key: key})
	return generation
}

// Complete applies the result of the fetch of key begun at generation.
// Results of superseded fetches are dropped and false is returned.
func (s *Store) Complete(key string, generation uint64, action Action) bool {
	s.mu.Lock()
	current := s.generations[resourceOf(key)] == generation
	if !current {
		action = FetchSuperseded{Key: key}
	}
	s.state = Reduce(s.state, action)
	state := s.state
	subscribers := s.snapshotSubscribers()
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(state)
	}
	return current
}

// resourceOf strips the query from a fetch key.
func resourceOf(key string) string {
	if i := strings.IndexByte(key, '?'); i >= 0 {
		return key[:i]
	}
	return key
}

// Subscribe registers fn to run after every applied action. Call the
// returned function to unsubscribe.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) snapshotSubscribers() []func(State) {
	subscribers := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	return subscribers
}
