package timesheet

import (
	"context"
	"errors"
	"sync"
)

// MemoryRepo is a simple in-memory record store for tests and early
// development. It mirrors the Postgres (call_id, seq) conflict behavior
// and enforces tenant isolation on reads.

type MemoryRepo struct {
	mu      sync.Mutex
	records []Record

	// FailAfter, when >= 0, makes Insert fail once that many records
	// exist. Tests use it to exercise partial-failure behavior.
	FailAfter int
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{FailAfter: -1} }

var errInsertFailed = errors.New("timesheet: simulated insert failure")

func (r *MemoryRepo) Insert(ctx context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAfter >= 0 && len(r.records) >= r.FailAfter {
		return errInsertFailed
	}
	for _, existing := range r.records {
		if existing.CallID == rec.CallID && existing.Seq == rec.Seq {
			// ON CONFLICT DO NOTHING
			return nil
		}
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *MemoryRepo) ListByTenant(ctx context.Context, tenantID, fromDate, toDate string) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, 0)
	for _, rec := range r.records {
		if rec.TenantID != tenantID {
			continue
		}
		if fromDate != "" && rec.WorkDate < fromDate {
			continue
		}
		if toDate != "" && rec.WorkDate > toDate {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *MemoryRepo) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}
