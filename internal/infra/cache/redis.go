package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "credential-gateway:introspection:"

var ErrCacheMiss = errors.New("cache miss")

// CachedGrant is the part of an active introspection result worth reusing.
type CachedGrant struct {
	Message   string   `json:"message"`
	Subject   string   `json:"subject"`
	ClientID  string   `json:"client_id"`
	Scopes    []string `json:"scopes,omitempty"`
	ExpiresAt int64    `json:"expires_at,omitempty"`
}

type GrantCache interface {
	Get(ctx context.Context, tokenHash string) (*CachedGrant, error)
	Set(ctx context.Context, tokenHash string, value *CachedGrant, ttl time.Duration) error
}

type redisCache struct {
	client *redis.Client
}

func NewRedisClient(url string, poolSize int) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if poolSize > 0 {
		opt.PoolSize = poolSize
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func NewGrantCache(client *redis.Client) GrantCache {
	return &redisCache{client: client}
}

func (r *redisCache) Get(ctx context.Context, tokenHash string) (*CachedGrant, error) {
	val, err := r.client.Get(ctx, keyPrefix+tokenHash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var grant CachedGrant
	if err := json.Unmarshal(val, &grant); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached grant: %w", err)
	}

	return &grant, nil
}

func (r *redisCache) Set(ctx context.Context, tokenHash string, value *CachedGrant, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cached grant: %w", err)
	}

	if err := r.client.Set(ctx, keyPrefix+tokenHash, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set redis cache: %w", err)
	}

	return nil
}
