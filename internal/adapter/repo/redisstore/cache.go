// Package redisstore holds the volatile live-session cache. Periodic
// snapshots land here so a crashed API process loses at most one snapshot
// interval of transcript.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hireloop/interview-analyzer/internal/domain"
)

// SessionCache implements domain.SessionCache on Redis with JSON values.
type SessionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionCache constructs a SessionCache. TTL bounds how long an orphaned
// live-session copy survives its process.
func NewSessionCache(rdb *redis.Client, ttl time.Duration) *SessionCache {
	return &SessionCache{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string { return "session:live:" + id }

// Put stores the full session state, refreshing the TTL.
func (c *SessionCache) Put(ctx context.Context, s domain.InterviewSession) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("op=cache.put: %w: %v", domain.ErrInternal, err)
	}
	if err := c.rdb.Set(ctx, sessionKey(s.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("op=cache.put: %w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// Get loads a cached session by id.
func (c *SessionCache) Get(ctx context.Context, sessionID string) (domain.InterviewSession, error) {
	payload, err := c.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.InterviewSession{}, fmt.Errorf("op=cache.get: %w", domain.ErrSessionNotFound)
		}
		return domain.InterviewSession{}, fmt.Errorf("op=cache.get: %w: %v", domain.ErrPersistence, err)
	}
	var s domain.InterviewSession
	if err := json.Unmarshal(payload, &s); err != nil {
		return domain.InterviewSession{}, fmt.Errorf("op=cache.get: %w: %v", domain.ErrInternal, err)
	}
	return s, nil
}

// List scans all cached live sessions. Entries expiring mid-scan are
// skipped.
func (c *SessionCache) List(ctx context.Context) ([]domain.InterviewSession, error) {
	var out []domain.InterviewSession
	iter := c.rdb.Scan(ctx, 0, sessionKey("*"), 0).Iterator()
	for iter.Next(ctx) {
		payload, err := c.rdb.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("op=cache.list: %w: %v", domain.ErrPersistence, err)
		}
		var s domain.InterviewSession
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, fmt.Errorf("op=cache.list: %w: %v", domain.ErrInternal, err)
		}
		out = append(out, s)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("op=cache.list: %w: %v", domain.ErrPersistence, err)
	}
	return out, nil
}

// Delete drops the cached copy, typically after the durable snapshot is
// written at session end.
func (c *SessionCache) Delete(ctx context.Context, sessionID string) error {
	if err := c.rdb.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("op=cache.delete: %w: %v", domain.ErrPersistence, err)
	}
	return nil
}
