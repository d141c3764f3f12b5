// Package serial runs work one at a time per key, in arrival order, inside a single process.
package serial

import (
	"context"
	"sync"
)

// Serializer keeps a FIFO chain of waiters per key. A call for a key starts only after every
// earlier call for the same key has released; calls for different keys never wait on each other.
// There is no timeout and no cancellation: a waiter stays in line until its turn.
//
// The zero value is ready to use.
type Serializer struct {
	mu    sync.Mutex
	chain map[string]*link
}

// link is the tail of one key's chain. n counts the holder plus every waiter.
type link struct {
	tail chan struct{}
	n    int
}

// New returns an empty Serializer.
func New() *Serializer {
	return &Serializer{chain: make(map[string]*link)}
}

// Lock blocks until the caller holds the key and returns the release func.
// The release func must be called exactly once, normally via defer.
// ctx is accepted to satisfy lock interfaces and is not consulted.
func (s *Serializer) Lock(ctx context.Context, key string) (func(), error) {
	return s.acquire(key), nil
}

// Do runs fn while holding key. The key is released when fn returns or panics.
func (s *Serializer) Do(key string, fn func() error) error {
	release := s.acquire(key)
	defer release()
	return fn()
}

// Pending returns the number of keys with a holder or waiter.
func (s *Serializer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chain)
}

func (s *Serializer) queued(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.chain[key]; ok {
		return l.n - 1
	}
	return 0
}

func (s *Serializer) acquire(key string) func() {
	done := make(chan struct{})

	s.mu.Lock()
	if s.chain == nil {
		s.chain = make(map[string]*link)
	}
	l, ok := s.chain[key]
	if !ok {
		l = &link{}
		s.chain[key] = l
	}
	prev := l.tail
	l.tail = done
	l.n++
	s.mu.Unlock()

	if prev != nil {
		<-prev
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			l.n--
			if l.n == 0 {
				delete(s.chain, key)
			}
			s.mu.Unlock()
			close(done)
		})
	}
}
