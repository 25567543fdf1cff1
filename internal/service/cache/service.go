package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/giftguru/gift-guru-go/internal/constants"
	"github.com/giftguru/gift-guru-go/internal/domain"
	"github.com/giftguru/gift-guru-go/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CacheService wraps a shared Redis connection pool. It is a side-channel
// cache only, never the system of record; every value is JSON with an
// absolute expiry.
type CacheService struct {
	client *redis.Client
	logger *zap.Logger
}

type CacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func NewCacheService(cfg CacheConfig, logger *zap.Logger) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      constants.RedisConfig.MaxRetries,
		MinRetryBackoff: constants.RedisConfig.MinRetryBackoff,
		MaxRetryBackoff: constants.RedisConfig.MaxRetryBackoff,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		PoolSize:        10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), constants.RedisConfig.ReadyTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.NewConnectivityError("failed to connect to Redis", "redis", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return &CacheService{
		client: client,
		logger: logger,
	}, nil
}

// Get unmarshals the value at key into dest. A missing or expired key is
// reported as (false, nil), never as an error.
func (c *CacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		c.logger.Error("Cache get failed", zap.String("key", key), zap.Error(err))
		return false, errors.NewCacheError("get failed", "get", key, err)
	}

	if dest != nil {
		if err := json.Unmarshal([]byte(value), dest); err != nil {
			c.logger.Error("Cache unmarshal failed", zap.String("key", key), zap.Error(err))
			return false, errors.NewCacheError("unmarshal failed", "get", key, err)
		}
	}

	return true, nil
}

// Set serializes value and stores it under key, overwriting any previous
// value. A zero ttl means no expiry.
func (c *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("marshal failed", "set", key, err)
	}

	if err := c.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		c.logger.Error("Cache set failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("set failed", "set", key, err)
	}

	return nil
}

func (c *CacheService) Del(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error("Cache delete failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("delete failed", "del", key, err)
	}
	return nil
}

// DeleteByPrefix removes every key matching pattern and returns the count.
func (c *CacheService) DeleteByPrefix(ctx context.Context, pattern string) (int64, error) {
	keys, err := c.client.Keys(ctx, pattern).Result()
	if err != nil {
		c.logger.Error("Cache keys search failed", zap.String("pattern", pattern), zap.Error(err))
		return 0, errors.NewCacheError("keys search failed", "keys", pattern, err)
	}

	if len(keys) == 0 {
		return 0, nil
	}

	deleted, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		c.logger.Error("Cache delete many failed", zap.Int("count", len(keys)), zap.Error(err))
		return 0, errors.NewCacheError("delete many failed", "del", pattern, err)
	}

	return deleted, nil
}

func (c *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	count, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		c.logger.Error("Cache exists failed", zap.String("key", key), zap.Error(err))
		return false, errors.NewCacheError("exists failed", "exists", key, err)
	}
	return count > 0, nil
}

func (c *CacheService) Close() error {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis connection", zap.Error(err))
		return err
	}
	c.logger.Info("Redis disconnected")
	return nil
}

func (c *CacheService) IsConnected(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}

func (c *CacheService) WaitUntilReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return errors.NewConnectivityError("timeout waiting for Redis to be ready", "redis", ctx.Err())
		case <-ticker.C:
			if c.IsConnected(ctx) {
				return nil
			}
		}
	}
}

// SocialDataKey builds the cache key holding the scraped social aggregate
// for one session.
func SocialDataKey(sessionID string) string {
	return fmt.Sprintf(constants.CacheKeys.SocialDataFormat, sessionID)
}

// BuildSuggestionKey builds the suggestion cache key. Interests are sorted
// before joining so the key does not depend on input ordering.
func BuildSuggestionKey(sessionID, ageGroup string, interests []string, budget float64) string {
	sorted := make([]string, len(interests))
	copy(sorted, interests)
	sort.Strings(sorted)

	return fmt.Sprintf(constants.CacheKeys.SuggestionsFormat,
		sessionID,
		ageGroup,
		strconv.FormatFloat(budget, 'f', -1, 64),
		strings.Join(sorted, ","),
	)
}

// CacheSocialData writes the aggregate as a single entry, stamping the
// metadata with the cache time.
func (c *CacheService) CacheSocialData(ctx context.Context, data *domain.SocialDataCache, ttl time.Duration) error {
	stamped := *data
	stamped.Metadata.CachedAt = domain.NowISO()

	key := SocialDataKey(data.SessionID)
	if err := c.Set(ctx, key, &stamped, ttl); err != nil {
		return err
	}

	c.logger.Debug("Cached social data",
		zap.String("session_id", data.SessionID),
		zap.Duration("ttl", ttl),
	)
	return nil
}

// GetSocialData returns the cached aggregate for a session, or nil when
// absent.
func (c *CacheService) GetSocialData(ctx context.Context, sessionID string) (*domain.SocialDataCache, error) {
	var data domain.SocialDataCache
	found, err := c.Get(ctx, SocialDataKey(sessionID), &data)
	if err != nil {
		return nil, err
	}
	if !found {
		c.logger.Debug("No cached social data", zap.String("session_id", sessionID))
		return nil, nil
	}
	return &data, nil
}

func (c *CacheService) DeleteSocialData(ctx context.Context, sessionID string) error {
	return c.Del(ctx, SocialDataKey(sessionID))
}

func (c *CacheService) CacheGiftSuggestions(ctx context.Context, sessionID, ageGroup string, interests []string, budget float64, suggestions []*domain.GiftSuggestion, ttl time.Duration) error {
	key := BuildSuggestionKey(sessionID, ageGroup, interests, budget)
	if err := c.Set(ctx, key, suggestions, ttl); err != nil {
		return err
	}

	c.logger.Debug("Cached gift suggestions",
		zap.String("session_id", sessionID),
		zap.Int("count", len(suggestions)),
	)
	return nil
}

func (c *CacheService) GetGiftSuggestions(ctx context.Context, sessionID, ageGroup string, interests []string, budget float64) ([]*domain.GiftSuggestion, error) {
	var suggestions []*domain.GiftSuggestion
	found, err := c.Get(ctx, BuildSuggestionKey(sessionID, ageGroup, interests, budget), &suggestions)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return suggestions, nil
}

// DeleteGiftSuggestions clears every cached suggestion list for a session
// and returns how many entries were removed.
func (c *CacheService) DeleteGiftSuggestions(ctx context.Context, sessionID string) (int64, error) {
	pattern := fmt.Sprintf(constants.CacheKeys.SuggestionsClearPattern, sessionID)
	return c.DeleteByPrefix(ctx, pattern)
}
