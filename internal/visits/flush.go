package visits

import (
	"log/slog"
	"sync"
	"time"
)

// Flusher counts writes to a Store and persists it every N of them.
type Flusher struct {
	store   Store
	every   int
	logger  *slog.Logger
	mu      sync.Mutex
	pending int
}

// NewFlusher persists store after every `every` recorded visits. every <= 0
// means every write.
func NewFlusher(store Store, every int, logger *slog.Logger) *Flusher {
	if every <= 0 {
		every = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Flusher{store: store, every: every, logger: logger}
}

// Record counts a visit and flushes when the threshold is reached. A failed
// flush is logged and retried at the next threshold; the visit still counts.
func (f *Flusher) Record(id string) Record {
	r := f.store.Record(id)
	f.counted()
	return r
}

// RecordIfCooled is Store.RecordIfCooled with the same flush accounting as
// Record. Visits inside the cooldown do not count towards a flush.
func (f *Flusher) RecordIfCooled(id string, window time.Duration) (Record, bool) {
	r, ok := f.store.RecordIfCooled(id, window)
	if ok {
		f.counted()
	}
	return r, ok
}

func (f *Flusher) counted() {
	f.mu.Lock()
	f.pending++
	due := f.pending >= f.every
	if due {
		f.pending = 0
	}
	f.mu.Unlock()
	if due {
		if err := f.store.Persist(); err != nil {
			f.logger.Error("persisting visits failed", "error", err)
		}
	}
}

// Pending returns the number of writes since the last flush.
func (f *Flusher) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// Flush persists immediately, e.g. on shutdown.
func (f *Flusher) Flush() error {
	f.mu.Lock()
	f.pending = 0
	f.mu.Unlock()
	return f.store.Persist()
}

// Store returns the wrapped store.
func (f *Flusher) Store() Store { return f.store }
