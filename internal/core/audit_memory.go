package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMemoryAuditCapacity bounds the in-memory audit trail.
const DefaultMemoryAuditCapacity = 10000

// MemoryAuditStore keeps the most recent audit entries in memory. It is used
// when no database is configured.
type MemoryAuditStore struct {
	capacity int
	now      func() time.Time

	mu      sync.RWMutex
	entries []AuditEntry // oldest first
}

// NewMemoryAuditStore returns a store holding at most capacity entries.
func NewMemoryAuditStore(capacity int) *MemoryAuditStore {
	if capacity <= 0 {
		capacity = DefaultMemoryAuditCapacity
	}
	return &MemoryAuditStore{capacity: capacity, now: time.Now}
}

// Record implements AuditStore.
func (m *MemoryAuditStore) Record(ctx context.Context, e AuditEntry) (*AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.ID = uuid.NewString()
	e.CreatedAt = m.now().UTC()
	e.Campaigns = append([]string(nil), e.Campaigns...)
	e.Processes = append([]string(nil), e.Processes...)

	m.mu.Lock()
	m.entries = append(m.entries, e)
	if over := len(m.entries) - m.capacity; over > 0 {
		m.entries = append([]AuditEntry(nil), m.entries[over:]...)
	}
	m.mu.Unlock()

	return &e, nil
}

// List implements AuditStore.
func (m *MemoryAuditStore) List(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := f.limit()
	out := make([]AuditEntry, 0, min(limit, len(m.entries)))
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.matches(&m.entries[i]) {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

// Len returns the number of stored entries.
func (m *MemoryAuditStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
