package session

import (
	"context"
	"sync"
	"time"

	"timesheet-platform/internal/identity"
)

// MemoryStore is the single-process session store. Each call id owns a
// record with its own mutex, so near-simultaneous webhook retries for one
// call serialize while unrelated calls proceed in parallel.
//
// A janitor goroutine sweeps sessions whose TouchedAt is older than the
// TTL. Finalized sessions keep their summary until the sweep so a retried
// finalize can replay it.

type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*record

	ttl   time.Duration
	clock func() time.Time

	stop chan struct{}
	once sync.Once
}

type record struct {
	mu   sync.Mutex
	sess Session
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	s := &MemoryStore{
		records: map[string]*record{},
		ttl:     ttl,
		clock:   time.Now,
		stop:    make(chan struct{}),
	}
	go s.janitor(ttl / 4)
	return s
}

// Close stops the janitor. Safe to call more than once.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryStore) GetOrCreate(_ context.Context, callID string, id identity.Identity) (Session, error) {
	now := s.clock().UTC()

	s.mu.Lock()
	rec, ok := s.records[callID]
	if !ok {
		rec = &record{sess: Session{
			CallID:    callID,
			Identity:  id,
			Entries:   []PendingEntry{},
			CreatedAt: now,
			TouchedAt: now,
		}}
		s.records[callID] = rec
	}
	s.mu.Unlock()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.sess.TouchedAt = now
	return cloneSession(rec.sess), nil
}

func (s *MemoryStore) Get(_ context.Context, callID string) (Session, error) {
	rec, ok := s.lookup(callID)
	if !ok {
		return Session{}, ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return cloneSession(rec.sess), nil
}

func (s *MemoryStore) AppendEntry(_ context.Context, callID string, e PendingEntry) (Session, error) {
	rec, ok := s.lookup(callID)
	if !ok {
		return Session{}, ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.sess.Finalized {
		return Session{}, ErrFinalized
	}
	rec.sess.Entries = append(rec.sess.Entries, e)
	rec.sess.TouchedAt = s.clock().UTC()
	return cloneSession(rec.sess), nil
}

func (s *MemoryStore) Finalize(_ context.Context, callID string) (FinalizeResult, error) {
	rec, ok := s.lookup(callID)
	if !ok {
		return FinalizeResult{}, ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.sess.TouchedAt = s.clock().UTC()
	if rec.sess.Finalized {
		return FinalizeResult{Already: true, Summary: rec.sess.Summary}, nil
	}
	entries := make([]PendingEntry, len(rec.sess.Entries))
	copy(entries, rec.sess.Entries)
	return FinalizeResult{Entries: entries}, nil
}

func (s *MemoryStore) MarkFinalized(_ context.Context, callID string, sum Summary) error {
	rec, ok := s.lookup(callID)
	if !ok {
		return ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.sess.Finalized = true
	rec.sess.Summary = sum
	rec.sess.TouchedAt = s.clock().UTC()
	return nil
}

func (s *MemoryStore) Expire(_ context.Context, callID string) error {
	s.mu.Lock()
	delete(s.records, callID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) lookup(callID string) (*record, bool) {
	s.mu.RLock()
	rec, ok := s.records[callID]
	s.mu.RUnlock()
	return rec, ok
}

func (s *MemoryStore) janitor(every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	cutoff := s.clock().UTC().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.records {
		rec.mu.Lock()
		stale := rec.sess.TouchedAt.Before(cutoff)
		rec.mu.Unlock()
		if stale {
			delete(s.records, id)
		}
	}
}

func cloneSession(in Session) Session {
	out := in
	out.Entries = make([]PendingEntry, len(in.Entries))
	copy(out.Entries, in.Entries)
	return out
}
