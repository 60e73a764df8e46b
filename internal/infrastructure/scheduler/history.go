package scheduler

import (
	"sync"

	"github.com/google/uuid"
)

// JobHistory keeps the most recent job attempts in a fixed-size ring
type JobHistory struct {
	mu    sync.RWMutex
	ring  []Job
	next  int
	count int
}

// NewJobHistory creates a history holding up to size attempts
func NewJobHistory(size int) *JobHistory {
	if size <= 0 {
		size = 1
	}
	return &JobHistory{ring: make([]Job, size)}
}

// Record appends an attempt, evicting the oldest when full
func (h *JobHistory) Record(job Job) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ring[h.next] = job
	h.next = (h.next + 1) % len(h.ring)
	if h.count < len(h.ring) {
		h.count++
	}
}

// ListForTenant returns a tenant's attempts, newest first. limit <= 0 means all.
func (h *JobHistory) ListForTenant(tenantID uuid.UUID, limit int) []Job {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Job, 0)
	for i := 0; i < h.count; i++ {
		idx := (h.next - 1 - i + len(h.ring)) % len(h.ring)
		if h.ring[idx].TenantID != tenantID {
			continue
		}
		out = append(out, h.ring[idx])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Len returns the number of attempts held
func (h *JobHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
