package session

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker records session ids that were logged out before their expiry.
type Revoker interface {
	Revoke(ctx context.Context, id string, until time.Time) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

// MemoryRevoker is a process-local revocation list. Entries are dropped by
// Prune once the token they refer to has expired.
type MemoryRevoker struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{revoked: make(map[string]time.Time), now: time.Now}
}

func (r *MemoryRevoker) Revoke(_ context.Context, id string, until time.Time) error {
	r.mu.Lock()
	r.revoked[id] = until
	r.mu.Unlock()
	return nil
}

func (r *MemoryRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	until, ok := r.revoked[id]
	r.mu.RUnlock()
	return ok && r.now().Before(until), nil
}

// Prune removes expired entries and returns how many were removed.
func (r *MemoryRevoker) Prune() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, until := range r.revoked {
		if !now.Before(until) {
			delete(r.revoked, id)
			n++
		}
	}
	return n
}

// Len returns the number of tracked entries.
func (r *MemoryRevoker) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.revoked)
}

const redisKeyPrefix = "todo:session:revoked:"

// RedisRevoker shares the revocation list between API instances. Keys expire
// with the token, so no pruning is needed.
type RedisRevoker struct {
	client *redis.Client
}

func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client}
}

func (r *RedisRevoker) Revoke(ctx context.Context, id string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, redisKeyPrefix+id, 1, ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
