package identity

import (
	"context"
	"sync"
)

// MemoryRepo is a simple in-memory identity catalog for tests and early
// development. It enforces tenant isolation on reads.

type MemoryRepo struct {
	mu sync.Mutex

	Workers      []Worker
	Sites        map[string][]Site   // key: tenant_id
	Capabilities map[string][]string // key: tenant_id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		Sites:        map[string][]Site{},
		Capabilities: map[string][]string{},
	}
}

func (r *MemoryRepo) FindActiveWorkerByPhone(ctx context.Context, phone string) (Worker, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.Workers {
		if w.Phone == phone && w.IsActive {
			return w, true, nil
		}
	}
	return Worker{}, false, nil
}

func (r *MemoryRepo) ListActiveSites(ctx context.Context, tenantID string) ([]Site, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Site, len(r.Sites[tenantID]))
	copy(out, r.Sites[tenantID])
	return out, nil
}

func (r *MemoryRepo) ListEnabledCapabilities(ctx context.Context, tenantID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Capabilities[tenantID]))
	copy(out, r.Capabilities[tenantID])
	return out, nil
}
