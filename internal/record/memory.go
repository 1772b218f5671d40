// internal/record/memory.go
//
// In-memory implementation of the record Store interface.
// Used in tests and when durability is explicitly not wanted (demo
// setups). State is lost when the process restarts.
//
// Characteristics:
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Stores a deep copy, so callers can keep mutating their Record.

package record

import (
	"context"
	"sync"
)

type memory struct {
	mu    sync.RWMutex
	rec   Record
	found bool
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{}
}

func (m *memory) Load(ctx context.Context) (Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.found {
		return Record{}, false, nil
	}
	return copyRecord(m.rec), true, nil
}

func (m *memory) Save(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = copyRecord(rec)
	m.found = true
	return nil
}

func (m *memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = Record{}
	m.found = false
	return nil
}

func copyRecord(rec Record) Record {
	out := rec
	out.Submitted = append([]int{}, rec.Submitted...)
	return out
}
