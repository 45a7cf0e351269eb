package conversationinfra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abraxas-365/supportdesk/conversation"
	"github.com/Abraxas-365/supportdesk/pkg/config"
	"github.com/Abraxas-365/supportdesk/pkg/logx"
	"github.com/redis/go-redis/v9"
)

const (
	// StateKeyPrefix namespaces cached conversation state
	StateKeyPrefix  = "supportdesk:state:"
	DefaultStateTTL = 30 * time.Minute
)

// redisCommands is the subset of *redis.Client the state cache uses
type redisCommands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStateCache caches the routing state of conversations in Redis
type RedisStateCache struct {
	client redisCommands
	ttl    time.Duration
}

var _ conversation.StateCache = (*RedisStateCache)(nil)

// NewRedisClient connects to Redis and checks the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	logx.WithField("addr", cfg.Addr).Info("Redis connected")
	return client, nil
}

// NewRedisStateCache wraps a Redis client. A non-positive ttl uses DefaultStateTTL.
func NewRedisStateCache(client redisCommands, ttl time.Duration) *RedisStateCache {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &RedisStateCache{client: client, ttl: ttl}
}

func (c *RedisStateCache) Get(ctx context.Context, id conversation.ID) (conversation.State, bool, error) {
	data, err := c.client.Get(ctx, stateKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return conversation.State{}, false, nil
	}
	if err != nil {
		return conversation.State{}, false, err
	}

	var state conversation.State
	if err := json.Unmarshal(data, &state); err != nil {
		return conversation.State{}, false, err
	}
	if state.Metadata == nil {
		state.Metadata = conversation.Metadata{}
	}
	return state, true, nil
}

func (c *RedisStateCache) Set(ctx context.Context, id conversation.ID, state conversation.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, stateKey(id), data, c.ttl).Err()
}

func (c *RedisStateCache) Delete(ctx context.Context, id conversation.ID) error {
	return c.client.Del(ctx, stateKey(id)).Err()
}

func stateKey(id conversation.ID) string {
	return StateKeyPrefix + string(id)
}
