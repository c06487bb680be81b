package policy

import (
	"errors"
	"sync"
	"sync/atomic"
)

// Loader builds a complete Engine, typically from files.
type Loader func() (*Engine, error)

// FileLoader returns a Loader that calls LoadFiles(paths).
func FileLoader(paths Paths) Loader {
	return func() (*Engine, error) {
		return LoadFiles(paths)
	}
}

// Store holds the current Engine and swaps in replacements atomically.
//
// Readers call Engine once per decision and evaluate against that snapshot,
// so no request ever sees a partially loaded rule set.
type Store struct {
	current    atomic.Pointer[Engine]
	generation atomic.Uint64
	loader     Loader
	reloadMu   sync.Mutex
}

// NewStore loads the initial Engine. An error here is fatal to startup.
func NewStore(loader Loader) (*Store, error) {
	if loader == nil {
		return nil, errors.New("policy: loader is required")
	}
	e, err := loader()
	if err != nil {
		return nil, err
	}
	s := &Store{loader: loader}
	s.current.Store(e)
	s.generation.Store(1)
	return s, nil
}

// StaticStore wraps an already built Engine. Reload rebuilds nothing and
// keeps e.
func StaticStore(e *Engine) *Store {
	s := &Store{loader: func() (*Engine, error) { return e, nil }}
	s.current.Store(e)
	s.generation.Store(1)
	return s
}

// Engine returns the current snapshot.
func (s *Store) Engine() *Engine {
	return s.current.Load()
}

// Generation counts successful loads, starting at 1.
func (s *Store) Generation() uint64 {
	return s.generation.Load()
}

// Reload builds a new Engine and swaps it in. On failure the previous
// Engine stays in place and the error is returned.
func (s *Store) Reload() error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	e, err := s.loader()
	if err != nil {
		return err
	}
	s.Swap(e)
	return nil
}

// Swap installs e as the current Engine.
func (s *Store) Swap(e *Engine) {
	if e == nil {
		return
	}
	s.current.Store(e)
	s.generation.Add(1)
}

// Authorize evaluates against the current snapshot.
func (s *Store) Authorize(subject, action, resource string) bool {
	return s.Engine().Authorize(subject, action, resource)
}

// Decide evaluates against the current snapshot.
func (s *Store) Decide(subject, action, resource string) Decision {
	return s.Engine().Decide(subject, action, resource)
}
