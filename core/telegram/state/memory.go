package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/m3rciful/meteobot/core/logger"
)

type entry struct {
	sem     *semaphore.Weighted
	session Session
	touched time.Time
	// refs counts leases held or waited for; entries with refs > 0 are never evicted.
	refs int
}

// Store is the in-memory session table. Sessions are created idle on first
// access and only one lease per session can be held at a time.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*entry
	now     func() time.Time
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		entries: make(map[Key]*entry),
		now:     time.Now,
	}
}

// Lease grants exclusive access to one session until Release is called.
type Lease struct {
	store   *Store
	key     Key
	entry   *entry
	session Session
	once    sync.Once
}

// Acquire waits until the session for key is free and leases it. The wait
// is abandoned when ctx is done.
func (s *Store) Acquire(ctx context.Context, key Key) (*Lease, error) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{
			sem:     semaphore.NewWeighted(1),
			session: Session{State: StateIdle},
			touched: s.now(),
		}
		s.entries[key] = e
	}
	e.refs++
	s.mu.Unlock()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		s.mu.Lock()
		e.refs--
		s.mu.Unlock()
		return nil, fmt.Errorf("state: acquire session %d/%d: %w", key.ChatID, key.UserID, err)
	}

	s.mu.Lock()
	current := e.session
	s.mu.Unlock()

	return &Lease{store: s, key: key, entry: e, session: current}, nil
}

// Key returns the leased session key.
func (l *Lease) Key() Key {
	return l.key
}

// Session returns the leased session for mutation. Changes become visible
// to other callers on Release.
func (l *Lease) Session() *Session {
	return &l.session
}

// Release stores the session and frees it for the next event. It is safe to
// call more than once.
func (l *Lease) Release() {
	l.once.Do(func() {
		s := l.store
		s.mu.Lock()
		l.entry.session = l.session
		l.entry.touched = s.now()
		l.entry.refs--
		s.mu.Unlock()
		l.entry.sem.Release(1)
	})
}

// Get returns a copy of the stored session.
func (s *Store) Get(key Key) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return Session{}, false
	}
	return e.session, true
}

// Stats summarizes the session table.
type Stats struct {
	Total   int           `json:"total"`
	ByState map[State]int `json:"by_state"`
}

// Stats counts sessions per state.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Total: len(s.entries), ByState: make(map[State]int)}
	for _, e := range s.entries {
		st.ByState[e.session.State]++
	}
	return st
}

// Sweep removes sessions that have not been touched for ttl and are not
// leased. It returns the number of evicted sessions.
func (s *Store) Sweep(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-ttl)
	evicted := 0
	for key, e := range s.entries {
		if e.refs > 0 || e.touched.After(cutoff) {
			continue
		}
		delete(s.entries, key)
		evicted++
	}
	return evicted
}

// RunJanitor sweeps idle sessions every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info(ctx, "tg.state", "janitor.start",
		slog.Duration("interval", interval),
		slog.Duration("ttl", ttl),
	)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(ttl); n > 0 {
				logger.Info(ctx, "tg.state", "janitor.sweep",
					slog.Int("evicted", n),
					slog.Int("sessions", s.Stats().Total),
				)
			}
		}
	}
}
