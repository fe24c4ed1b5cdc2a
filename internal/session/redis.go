package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"timesheet-platform/internal/identity"
	"timesheet-platform/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps call sessions in Redis so multiple API instances can
// serve webhook retries for the same call. Per-call serialization uses a
// token lease (utils.AcquireKeyLock); a second request for a call id
// currently being processed waits for the lease rather than interleaving.

const (
	sessionKeyPrefix = "call_session:"
	lockKeyPrefix    = "call_session_lock:"

	lockTTL       = 10 * time.Second
	lockRetryWait = 50 * time.Millisecond
	lockWaitMax   = 3 * time.Second
)

type RedisStore struct {
	rdb   *redis.Client
	ttl   time.Duration
	clock func() time.Time
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisStore{rdb: rdb, ttl: ttl, clock: time.Now}
}

func (s *RedisStore) GetOrCreate(ctx context.Context, callID string, id identity.Identity) (Session, error) {
	var out Session
	err := s.withLock(ctx, callID, func() error {
		sess, ok, err := s.load(ctx, callID)
		if err != nil {
			return err
		}
		now := s.clock().UTC()
		if !ok {
			sess = Session{
				CallID:    callID,
				Identity:  id,
				Entries:   []PendingEntry{},
				CreatedAt: now,
			}
		}
		sess.TouchedAt = now
		out = sess
		return s.save(ctx, sess)
	})
	return out, err
}

func (s *RedisStore) Get(ctx context.Context, callID string) (Session, error) {
	sess, ok, err := s.load(ctx, callID)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *RedisStore) AppendEntry(ctx context.Context, callID string, e PendingEntry) (Session, error) {
	var out Session
	err := s.withLock(ctx, callID, func() error {
		sess, ok, err := s.load(ctx, callID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		if sess.Finalized {
			return ErrFinalized
		}
		sess.Entries = append(sess.Entries, e)
		sess.TouchedAt = s.clock().UTC()
		out = sess
		return s.save(ctx, sess)
	})
	return out, err
}

func (s *RedisStore) Finalize(ctx context.Context, callID string) (FinalizeResult, error) {
	var out FinalizeResult
	err := s.withLock(ctx, callID, func() error {
		sess, ok, err := s.load(ctx, callID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		if sess.Finalized {
			out = FinalizeResult{Already: true, Summary: sess.Summary}
			return nil
		}
		out = FinalizeResult{Entries: sess.Entries}
		sess.TouchedAt = s.clock().UTC()
		return s.save(ctx, sess)
	})
	return out, err
}

func (s *RedisStore) MarkFinalized(ctx context.Context, callID string, sum Summary) error {
	return s.withLock(ctx, callID, func() error {
		sess, ok, err := s.load(ctx, callID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		sess.Finalized = true
		sess.Summary = sum
		sess.TouchedAt = s.clock().UTC()
		return s.save(ctx, sess)
	})
}

func (s *RedisStore) Expire(ctx context.Context, callID string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+callID).Err()
}

func (s *RedisStore) load(ctx context.Context, callID string) (Session, bool, error) {
	raw, err := s.rdb.Get(ctx, sessionKeyPrefix+callID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, false, nil
		}
		return Session{}, false, fmt.Errorf("session: redis get: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, false, fmt.Errorf("session: decode: %w", err)
	}
	return sess, true, nil
}

func (s *RedisStore) save(ctx context.Context, sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	// The key TTL is the inactivity window; every save refreshes it.
	if err := s.rdb.Set(ctx, sessionKeyPrefix+sess.CallID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) withLock(ctx context.Context, callID string, fn func() error) error {
	key := lockKeyPrefix + callID
	token := uuid.NewString()

	deadline := s.clock().Add(lockWaitMax)
	for {
		ok, err := utils.AcquireKeyLock(ctx, s.rdb, key, token, lockTTL)
		if err != nil {
			return fmt.Errorf("session: lock acquire: %w", err)
		}
		if ok {
			break
		}
		if s.clock().After(deadline) {
			return fmt.Errorf("session: call %s is busy", callID)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryWait):
		}
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = utils.ReleaseKeyLock(releaseCtx, s.rdb, key, token)
	}()

	return fn()
}
