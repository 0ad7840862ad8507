package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Client struct {
	rdb *redis.Client
	log *zap.Logger
}

// Cache key constants
const (
	// KeyFilePath caches a resolved Telegram file path keyed by file_id. The
	// entry only lives for the duration of one photo-change operation.
	KeyFilePath = "media:file_path:%s"
)

// TTL constants
const (
	// TTLFilePath is a backstop: the entry is deleted explicitly once the
	// photo has been applied, but Telegram file paths expire on their side
	// after about an hour anyway.
	TTLFilePath = 1 * time.Hour
)

// NewClient creates a new Redis client
func NewClient(redisURL string, log *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb, log: log}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Health checks the Redis connection
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// SetFilePath caches the resolved file path for a file ID
func (c *Client) SetFilePath(ctx context.Context, fileID, filePath string) error {
	key := fmt.Sprintf(KeyFilePath, fileID)
	if err := c.rdb.Set(ctx, key, filePath, TTLFilePath).Err(); err != nil {
		c.log.Warn("redis_set_file_path", zap.String("file_id", fileID), zap.Error(err))
		return err
	}
	c.log.Debug("redis_set_file_path", zap.String("file_id", fileID))
	return nil
}

// GetFilePath returns the cached file path for a file ID, or "" when absent
func (c *Client) GetFilePath(ctx context.Context, fileID string) (string, error) {
	key := fmt.Sprintf(KeyFilePath, fileID)
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		c.log.Warn("redis_get_file_path", zap.String("file_id", fileID), zap.Error(err))
		return "", err
	}
	return val, nil
}

// DeleteFilePath removes the cached file path for a file ID
func (c *Client) DeleteFilePath(ctx context.Context, fileID string) error {
	key := fmt.Sprintf(KeyFilePath, fileID)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.log.Warn("redis_delete_file_path", zap.String("file_id", fileID), zap.Error(err))
		return err
	}
	return nil
}
