package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"plabroom/internal/model"
)

// SessionStateCache keeps the latest session snapshot in Redis so state
// polls during an active round do not hit MySQL. A short-lived dirty
// marker suppresses cache writes while a phase transition is in flight.
type SessionStateCache struct {
	client         *redisv9.Client
	stateTTL       time.Duration
	dirtyMarkerTTL time.Duration
}

func NewSessionStateCache(client *redisv9.Client, stateTTL, dirtyMarkerTTL time.Duration) *SessionStateCache {
	if stateTTL <= 0 {
		stateTTL = 30 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 3 * time.Second
	}
	return &SessionStateCache{
		client:         client,
		stateTTL:       stateTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *SessionStateCache) GetState(ctx context.Context, code string) (*model.SessionState, bool, error) {
	raw, err := c.client.Get(ctx, c.stateKey(code)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get session state failed: %w", err)
	}

	var state model.SessionState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached session state failed: %w", err)
	}
	return &state, true, nil
}

func (c *SessionStateCache) SetState(ctx context.Context, code string, state *model.SessionState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session state failed: %w", err)
	}
	if err := c.client.Set(ctx, c.stateKey(code), payload, c.stateTTL).Err(); err != nil {
		return fmt.Errorf("redis set session state failed: %w", err)
	}
	return nil
}

func (c *SessionStateCache) DeleteState(ctx context.Context, code string) error {
	if err := c.client.Del(ctx, c.stateKey(code)).Err(); err != nil {
		return fmt.Errorf("redis delete session state failed: %w", err)
	}
	return nil
}

func (c *SessionStateCache) MarkDirty(ctx context.Context, code string) error {
	if err := c.client.Set(ctx, c.dirtyKey(code), "1", c.dirtyMarkerTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *SessionStateCache) IsDirty(ctx context.Context, code string) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyKey(code)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *SessionStateCache) stateKey(code string) string {
	return fmt.Sprintf("session:state:%s", code)
}

func (c *SessionStateCache) dirtyKey(code string) string {
	return fmt.Sprintf("session:state:dirty:%s", code)
}
