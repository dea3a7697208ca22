package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const termLockPrefix = "timetable:generate:lock:"

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// extendScript resets the TTL only when the key still holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// Lease is a held term lock.
type Lease interface {
	Release(ctx context.Context) error
	// Extend resets the TTL. ok is false once the lease has been lost to
	// expiry or another holder.
	Extend(ctx context.Context, ttl time.Duration) (bool, error)
}

type localLock struct {
	token     string
	expiresAt time.Time
}

// TermLockRepository serialises generation per term. With a Redis client the
// lock is shared by every replica; without one it only guards this process.
type TermLockRepository struct {
	client *redis.Client
	logger *zap.Logger

	mu    sync.Mutex
	local map[string]localLock
	now   func() time.Time
}

// NewTermLockRepository builds the lock repository; client may be nil.
func NewTermLockRepository(client *redis.Client, logger *zap.Logger) *TermLockRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermLockRepository{
		client: client,
		logger: logger,
		local:  make(map[string]localLock),
		now:    time.Now,
	}
}

// Acquire tries to take the lock for a term. It never waits: ok is false when
// another run holds it.
func (r *TermLockRepository) Acquire(ctx context.Context, termID string, ttl time.Duration) (Lease, bool, error) {
	key := termLockPrefix + termID
	token := uuid.NewString()

	if r.client == nil {
		return r.acquireLocal(key, token, ttl)
	}

	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis acquire %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return &redisLease{client: r.client, key: key, token: token}, true, nil
}

func (r *TermLockRepository) acquireLocal(key, token string, ttl time.Duration) (Lease, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if held, ok := r.local[key]; ok && now.Before(held.expiresAt) {
		return nil, false, nil
	}
	r.local[key] = localLock{token: token, expiresAt: now.Add(ttl)}
	return &localLease{repo: r, key: key, token: token}, true, nil
}

type redisLease struct {
	client *redis.Client
	key    string
	token  string
}

func (l *redisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("redis release %s: %w", l.key, err)
	}
	return nil
}

func (l *redisLease) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	n, err := extendScript.Run(ctx, l.client, []string{l.key}, l.token, ttl.Milliseconds()).Int()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("redis extend %s: %w", l.key, err)
	}
	return n == 1, nil
}

type localLease struct {
	repo  *TermLockRepository
	key   string
	token string
}

func (l *localLease) Release(context.Context) error {
	l.repo.mu.Lock()
	defer l.repo.mu.Unlock()
	if held, ok := l.repo.local[l.key]; ok && held.token == l.token {
		delete(l.repo.local, l.key)
	}
	return nil
}

func (l *localLease) Extend(_ context.Context, ttl time.Duration) (bool, error) {
	l.repo.mu.Lock()
	defer l.repo.mu.Unlock()
	held, ok := l.repo.local[l.key]
	now := l.repo.now()
	if !ok || held.token != l.token || !now.Before(held.expiresAt) {
		return false, nil
	}
	l.repo.local[l.key] = localLock{token: l.token, expiresAt: now.Add(ttl)}
	return true, nil
}
