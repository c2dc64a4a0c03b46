package journal

import (
	"context"
	"sync"
)

const defaultMemoryCapacity = 100

// Memory keeps the last entries in a ring buffer. Totals cover every entry
// recorded since start, not only the retained ones.
type Memory struct {
	mu        sync.Mutex
	ring      []Entry
	next      int
	full      bool
	total     int
	byMode    map[string]int
	byOutcome map[string]int
}

// NewMemory returns a journal retaining up to capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &Memory{
		ring:      make([]Entry, capacity),
		byMode:    make(map[string]int),
		byOutcome: make(map[string]int),
	}
}

// Record stores e, overwriting the oldest entry when full.
func (m *Memory) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ring[m.next] = e
	m.next = (m.next + 1) % len(m.ring)
	if m.next == 0 {
		m.full = true
	}
	m.total++
	m.byMode[e.Mode]++
	m.byOutcome[e.Outcome]++
	return nil
}

// Summary returns totals and up to recent newest entries.
func (m *Memory) Summary(_ context.Context, recent int) (Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := newSummary()
	s.Total = m.total
	for k, v := range m.byMode {
		s.ByMode[k] = v
	}
	for k, v := range m.byOutcome {
		s.ByOutcome[k] = v
	}

	held := m.next
	if m.full {
		held = len(m.ring)
	}
	if recent > held {
		recent = held
	}
	for i := 1; i <= recent; i++ {
		idx := (m.next - i + len(m.ring)) % len(m.ring)
		s.Recent = append(s.Recent, m.ring[idx])
	}
	return s, nil
}
