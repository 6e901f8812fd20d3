// Package cache shares rate quotes between replicas through Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	"github.com/SscSPs/btc_momo_exchange/internal/core/ports/gateways"
	"github.com/redis/go-redis/v9"
)

// RateKey holds the current BTC/ZMW quote.
const RateKey = "exchange:rate:BTC:ZMW"

// kv is the subset of redis.Cmdable the cache needs.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RateCache implements gateways.RateCache on Redis.
type RateCache struct {
	client kv
}

var _ gateways.RateCache = (*RateCache)(nil)

// NewRateCache wraps a connected client.
func NewRateCache(client redis.Cmdable) *RateCache {
	return &RateCache{client: client}
}

// Connect parses url, opens a client and pings it.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Get returns the cached quote, or nil when there is none.
func (c *RateCache) Get(ctx context.Context) (*domain.RateQuote, error) {
	raw, err := c.client.Get(ctx, RateKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cached rate: %w", err)
	}
	var quote domain.RateQuote
	if err := json.Unmarshal(raw, &quote); err != nil {
		return nil, fmt.Errorf("decode cached rate: %w", err)
	}
	return &quote, nil
}

// Set stores quote for ttl.
func (c *RateCache) Set(ctx context.Context, quote domain.RateQuote, ttl time.Duration) error {
	raw, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("encode rate: %w", err)
	}
	if err := c.client.Set(ctx, RateKey, raw, ttl).Err(); err != nil {
		return fmt.Errorf("write cached rate: %w", err)
	}
	return nil
}
