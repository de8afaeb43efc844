package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Redis key TTLs for the read-side caches.
const (
	VideoCacheTTL      = 1 * time.Minute
	ReputationCacheTTL = 1 * time.Hour
	UserCacheTTL       = 30 * time.Second
)

// CacheService provides a Redis cache-aside layer for video counter and
// reputation snapshot reads, plus TTL keys for troll blocks.
type CacheService struct {
	rdb *redis.Client
}

// NewCacheService creates a new CacheService. If redisURL is empty or the
// connection fails, it returns a CacheService with a nil client (cache
// operations become no-ops).
func NewCacheService(redisURL string) *CacheService {
	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Str("url", redisURL).Msg("redis: invalid URL, caching disabled")
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		return &CacheService{}
	}

	log.Info().Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// GetVideo retrieves a cached video response. Returns nil if not cached or
// cache is disabled.
func (c *CacheService) GetVideo(ctx context.Context, videoID string) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, videoKey(videoID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

// SetVideo stores a video response in cache.
func (c *CacheService) SetVideo(ctx context.Context, videoID string, data interface{}) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, videoKey(videoID), b, VideoCacheTTL).Err()
}

// InvalidateVideo removes a video from cache (called after counter deltas).
func (c *CacheService) InvalidateVideo(ctx context.Context, videoID string) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, videoKey(videoID)).Err()
}

// GetReputation retrieves a cached reputation snapshot. Returns nil if not
// cached.
func (c *CacheService) GetReputation(ctx context.Context, userID string) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, reputationKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

// SetReputation stores a reputation snapshot in cache.
func (c *CacheService) SetReputation(ctx context.Context, userID string, data interface{}) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, reputationKey(userID), b, ReputationCacheTTL).Err()
}

// InvalidateReputation removes a user's snapshot from cache (after a new
// scoring cycle or an immediate event penalty).
func (c *CacheService) InvalidateReputation(ctx context.Context, userID string) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, reputationKey(userID)).Err()
}

// SetTrollBlock mirrors a temporary cool block to Redis so it survives a
// restart. Best effort.
func (c *CacheService) SetTrollBlock(ctx context.Context, userID string, d time.Duration) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, trollBlockKey(userID), "1", d).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: troll block set failed")
	}
}

// TrollBlockActive reports whether a mirrored cool block exists.
func (c *CacheService) TrollBlockActive(ctx context.Context, userID string) bool {
	if c.rdb == nil {
		return false
	}
	n, err := c.rdb.Exists(ctx, trollBlockKey(userID)).Result()
	return err == nil && n > 0
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func videoKey(videoID string) string {
	return fmt.Sprintf("video:%s", videoID)
}

func reputationKey(userID string) string {
	return fmt.Sprintf("reputation:%s", userID)
}

func trollBlockKey(userID string) string {
	return fmt.Sprintf("trollblock:%s", userID)
}
