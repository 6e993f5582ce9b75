// Package visits keeps per-identity visit counters for the profile banner.
//
// Stores hold records in memory and write them only on Persist, so a crash
// loses increments made since the last flush. Use a Flusher to bound that
// window. Stores are safe for concurrent use within one process, but a data
// file must have a single writer process.
package visits

import (
	"sync"
	"time"
)

// Record is the bookkeeping for one identity.
type Record struct {
	Visits    int   `json:"visits"`
	Timestamp int64 `json:"timestamp"` // unix seconds of the latest visit
}

// Store is a keyed visit record store.
type Store interface {
	// Record counts a visit by id now and returns the updated record.
	Record(id string) Record
	Get(id string) (Record, bool)
	// CooldownElapsed reports whether id has no visit within window.
	CooldownElapsed(id string, window time.Duration) bool
	// RecordIfCooled counts a visit only when the cooldown has elapsed,
	// checking and recording under one lock. It reports whether it counted.
	RecordIfCooled(id string, window time.Duration) (Record, bool)
	// Total sums the visit counts of every identity.
	Total() int
	Persist() error
	Close() error
}

// Option configures a store.
type Option func(*memory)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *memory) { m.now = now }
}

// memory is the in-memory core shared by the persistent stores.
type memory struct {
	mu    sync.Mutex
	data  map[string]Record
	dirty map[string]struct{}
	now   func() time.Time

	// persistMu is held by Persist from snapshot to write so writes land in
	// snapshot order.
	persistMu sync.Mutex
}

func newMemory(opts []Option) *memory {
	m := &memory{data: map[string]Record{}, dirty: map[string]struct{}{}, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *memory) Record(id string) Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record(id)
}

func (m *memory) RecordIfCooled(id string, window time.Duration) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.data[id]; ok && !m.cooled(r, window) {
		return r, false
	}
	return m.record(id), true
}

// record must be called with mu held.
func (m *memory) record(id string) Record {
	r := m.data[id]
	r.Visits++
	r.Timestamp = m.now().Unix()
	m.data[id] = r
	m.dirty[id] = struct{}{}
	return r
}

func (m *memory) cooled(r Record, window time.Duration) bool {
	return m.now().Sub(time.Unix(r.Timestamp, 0)) >= window
}

func (m *memory) Get(id string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.data[id]
	return r, ok
}

func (m *memory) CooldownElapsed(id string, window time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.data[id]
	return !ok || m.cooled(r, window)
}

func (m *memory) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, r := range m.data {
		total += r.Visits
	}
	return total
}

// snapshot copies the data and the dirty ids and clears the dirty set.
func (m *memory) snapshot() (map[string]Record, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data := make(map[string]Record, len(m.data))
	for k, v := range m.data {
		data[k] = v
	}
	dirty := make([]string, 0, len(m.dirty))
	for k := range m.dirty {
		dirty = append(dirty, k)
	}
	clear(m.dirty)
	return data, dirty
}

// markDirty restores ids after a failed write.
func (m *memory) markDirty(ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.dirty[id] = struct{}{}
	}
}
