package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/config"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/engine"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps live session snapshots in Redis so reconnecting
// clients resume where they left off.
type SessionStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(rdb redis.Cmdable, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

// Load returns the saved snapshot, or nil when none exists.
func (s *SessionStore) Load(ctx context.Context, groupID string, profileID int) (*engine.Snapshot, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.GroupSessionKey(groupID, profileID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Save overwrites the snapshot and renews its TTL.
func (s *SessionStore) Save(ctx context.Context, snap engine.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.rdb.Set(ctx, config.CacheKey.GroupSessionKey(snap.GroupID, snap.ProfileID), raw, s.ttl).Err()
}

// Delete removes the snapshot, letting the student start over.
func (s *SessionStore) Delete(ctx context.Context, groupID string, profileID int) error {
	return s.rdb.Del(ctx, config.CacheKey.GroupSessionKey(groupID, profileID)).Err()
}
