// Package redis provides the optional evaluation-result dedup cache.
// Resubmitting the identical audio, question and rubric returns the
// previously composed result instead of assembling it twice.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lujip/citu-speech-evaluation/pkg/logger"
)

type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("redis result cache initialized",
		zap.String("addr", fmt.Sprintf("%s:%d", host, port)),
		zap.Duration("ttl", ttl),
	)

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// GetResult loads a cached composed result into dest. The bool reports
// whether the key existed; cache errors are returned for logging but are
// never fatal to the request.
func (c *Client) GetResult(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, resultKey(key)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get cached result: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode cached result: %w", err)
	}
	return true, nil
}

// SetResult stores a composed result under the request's content hash.
func (c *Client) SetResult(ctx context.Context, key string, result interface{}) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result for cache: %w", err)
	}
	if err := c.client.Set(ctx, resultKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached result: %w", err)
	}
	return nil
}

func resultKey(hash string) string {
	return "eval:" + hash
}
