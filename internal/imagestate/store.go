package imagestate

import (
	"sync"
)

// Store holds the current ImageState. Every replacement is announced to the
// subscribers in the order they subscribed, after the store lock is released.
type Store struct {
	mu    sync.Mutex
	state ImageState
	subs  []subscription
	next  int
}

type subscription struct {
	id int
	fn func(ImageState)
}

// NewStore creates a store holding the empty session state.
func NewStore() *Store {
	return &Store{state: New()}
}

// State returns a copy of the current state.
func (s *Store) State() ImageState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Update replaces the state with fn(previous) atomically and returns the new
// state.
func (s *Store) Update(fn func(ImageState) ImageState) ImageState {
	s.mu.Lock()
	next := fn(s.state)
	s.state = next
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(next)
	}
	return next
}

// Dispatch applies a through Reduce.
func (s *Store) Dispatch(a Action) ImageState {
	return s.Update(func(prev ImageState) ImageState { return Reduce(prev, a) })
}

// Subscribe registers fn for change notifications. The returned function
// removes the subscription.
func (s *Store) Subscribe(fn func(ImageState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}
