// Copyright (C) 2025 SAGE-X Project
//
// This file is part of sage-agentauth-go.
//
// sage-agentauth-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// sage-agentauth-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with sage-agentauth-go.  If not, see <https://www.gnu.org/licenses/>.

package verifier

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// NonceKey is the replay cache key for a nonce: nonce:<agent_id>:<nonce>
func NonceKey(agentID, nonce string) string {
	return "nonce:" + agentID + ":" + nonce
}

// MemoryNonceSweepInterval is how often Remember drops expired entries
const MemoryNonceSweepInterval = 30 * time.Second

// MemoryNonceStore is a process-local NonceStore. Remember drops expired
// entries every MemoryNonceSweepInterval, so the store holds at most the
// nonces of one TTL plus one interval. An expired entry is treated as absent.
type MemoryNonceStore struct {
	mu        sync.Mutex
	now       func() time.Time
	entries   map[string]time.Time
	lastSweep time.Time
}

// NewMemoryNonceStore creates an empty store. now may be nil.
func NewMemoryNonceStore(now func() time.Time) *MemoryNonceStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryNonceStore{
		now:       now,
		entries:   make(map[string]time.Time),
		lastSweep: now(),
	}
}

// Remember implements NonceStore.
func (s *MemoryNonceStore) Remember(ctx context.Context, agentID, nonce string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	key := NonceKey(agentID, nonce)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) >= MemoryNonceSweepInterval {
		s.sweep(now)
		s.lastSweep = now
	}

	if expiresAt, seen := s.entries[key]; seen && now.Before(expiresAt) {
		return false, nil
	}
	s.entries[key] = now.Add(ttl)
	return true, nil
}

// Cleanup removes entries that expired at or before now and returns how
// many were removed.
func (s *MemoryNonceStore) Cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweep(now)
}

// sweep must be called with s.mu held
func (s *MemoryNonceStore) sweep(now time.Time) int {
	removed := 0
	for key, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of remembered nonces, expired or not.
func (s *MemoryNonceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RedisSetNXer is satisfied by *redis.Client, *redis.ClusterClient and
// *redis.Ring.
type RedisSetNXer interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisNonceStore keeps nonces in Redis with SET NX EX, so that every
// verifier instance sharing the Redis sees the same replay cache.
type RedisNonceStore struct {
	client RedisSetNXer
}

// NewRedisNonceStore creates a RedisNonceStore
func NewRedisNonceStore(client RedisSetNXer) *RedisNonceStore {
	return &RedisNonceStore{client: client}
}

// Remember implements NonceStore.
func (s *RedisNonceStore) Remember(ctx context.Context, agentID, nonce string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, NonceKey(agentID, nonce), "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
