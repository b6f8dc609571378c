// Package session holds in-process conversation state with per-user
// locking.
package session

import (
	"sync"
	"time"

	"github.com/nexifit/nexifit/internal/domain"
)

type entry struct {
	mu sync.Mutex
	s  *domain.Session
}

// Store maps transport addresses to live sessions. Access to one
// user's session is mutually exclusive across concurrent handlers;
// different users proceed in parallel.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// With runs fn with exclusive access to addr's session, creating the
// session if it does not exist yet. fn receives whether this call
// created the session, which is also returned. fn must not block on
// network calls; snapshot what you need and release.
func (st *Store) With(addr string, now time.Time, fn func(s *domain.Session, created bool)) bool {
	st.mu.Lock()
	e, ok := st.entries[addr]
	created := !ok
	if !ok {
		e = &entry{s: &domain.Session{
			Addr:          addr,
			Step:          domain.StepBasic,
			LastGoalCheck: now,
		}}
		st.entries[addr] = e
	}
	st.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.s, created)
	return created
}

// WithExisting runs fn with exclusive access to addr's session if one
// exists, and reports whether it did.
func (st *Store) WithExisting(addr string, fn func(s *domain.Session)) bool {
	st.mu.RLock()
	e, ok := st.entries[addr]
	st.mu.RUnlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.s)
	return true
}

// Range visits every live session, locking each in turn.
func (st *Store) Range(fn func(s *domain.Session)) {
	st.mu.RLock()
	entries := make([]*entry, 0, len(st.entries))
	for _, e := range st.entries {
		entries = append(entries, e)
	}
	st.mu.RUnlock()

	for _, e := range entries {
		e.mu.Lock()
		fn(e.s)
		e.mu.Unlock()
	}
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.entries)
}
