package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/teamarr/teamarr/internal/models"
)

// TTLs applied at the service layer, tuned for hourly EPG regeneration.
const (
	TTLScoreboard  = 8 * time.Hour
	TTLSchedule    = 8 * time.Hour
	TTLSingleEvent = 30 * time.Minute
	TTLTeamStats   = 4 * time.Hour
	TTLTeamInfo    = 24 * time.Hour

	// Scoreboards for today narrow to this so live scores stay fresh.
	TTLScoreboardToday = 30 * time.Minute
)

// ErrMiss is returned by Get for both missing and expired entries.
var ErrMiss = errors.New("cache miss")

// Key composes a deterministic cache key from a namespace and parts.
func Key(namespace string, parts ...string) string {
	return namespace + ":" + strings.Join(parts, ":")
}

// EventsTTL returns the scoreboard TTL for a target date; today narrows.
func EventsTTL(target time.Time, loc *time.Location) time.Duration {
	now := time.Now().In(loc)
	t := target.In(loc)
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return TTLScoreboardToday
	}
	return TTLScoreboard
}

// Stats summarizes cache state for the UI.
type Stats struct {
	TotalEntries   int64  `json:"total_entries"`
	ExpiredEntries int64  `json:"expired_entries"`
	Backend        string `json:"backend"`
}

// Cache is the persistent TTL cache. The durable tier is the embedded
// database; an optional Redis client fronts it as a hot tier.
type Cache struct {
	db    *gorm.DB
	redis *redis.Client
	mu    sync.Mutex // serializes purge sweeps only; gorm is safe concurrently
}

func New(db *gorm.DB, redisClient *redis.Client) *Cache {
	return &Cache{db: db, redis: redisClient}
}

// Get unmarshals the cached value for key into dest. Returns ErrMiss for
// missing and lazily-evicted expired entries. Store errors degrade to a
// miss so callers fall through to the provider.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.redis != nil {
		data, err := c.redis.Get(ctx, key).Result()
		if err == nil {
			if uerr := json.Unmarshal([]byte(data), dest); uerr == nil {
				return nil
			}
		} else if err != redis.Nil {
			logrus.Warnf("[CACHE] Redis get failed for %s: %v", key, err)
		}
	}

	var entry models.CacheEntry
	err := c.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.Warnf("[CACHE] Read failed for %s: %v", key, err)
		}
		return ErrMiss
	}
	if time.Now().After(entry.ExpiresAt) {
		// Lazy eviction
		c.db.WithContext(ctx).Delete(&models.CacheEntry{}, "key = ?", key)
		return ErrMiss
	}
	if err := json.Unmarshal(entry.Value, dest); err != nil {
		logrus.Warnf("[CACHE] Deserialization failed for %s: %v", key, err)
		return ErrMiss
	}

	// Re-warm the hot tier
	if c.redis != nil {
		ttl := time.Until(entry.ExpiresAt)
		if ttl > 0 {
			c.redis.Set(ctx, key, entry.Value, ttl)
		}
	}
	return nil
}

// Set overwrites key with value for ttl relative to now.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	entry := models.CacheEntry{
		Key:       key,
		Value:     data,
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}
	err = c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	if c.redis != nil {
		if rerr := c.redis.Set(ctx, key, data, ttl).Err(); rerr != nil {
			logrus.Warnf("[CACHE] Redis set failed for %s: %v", key, rerr)
		}
	}
	return nil
}

// Delete removes keys from both tiers.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if c.redis != nil {
		if err := c.redis.Del(ctx, keys...).Err(); err != nil {
			logrus.Warnf("[CACHE] Redis delete failed: %v", err)
		}
	}
	return c.db.WithContext(ctx).Delete(&models.CacheEntry{}, "key IN ?", keys).Error
}

// Clear drops every entry.
func (c *Cache) Clear(ctx context.Context) error {
	if c.redis != nil {
		if err := c.redis.FlushDB(ctx).Err(); err != nil {
			logrus.Warnf("[CACHE] Redis flush failed: %v", err)
		}
	}
	return c.db.WithContext(ctx).Where("1 = 1").Delete(&models.CacheEntry{}).Error
}

// Purge removes expired rows eagerly. Called by the scheduler; Get already
// evicts lazily so this only bounds table growth.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := c.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&models.CacheEntry{})
	return res.RowsAffected, res.Error
}

// Stats reports entry counts.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	backend := "sqlite"
	if c.redis != nil {
		backend = "sqlite+redis"
	}
	var total, expired int64
	if err := c.db.WithContext(ctx).Model(&models.CacheEntry{}).Count(&total).Error; err != nil {
		return Stats{Backend: backend}, err
	}
	if err := c.db.WithContext(ctx).Model(&models.CacheEntry{}).
		Where("expires_at < ?", time.Now()).Count(&expired).Error; err != nil {
		return Stats{Backend: backend}, err
	}
	return Stats{TotalEntries: total, ExpiredEntries: expired, Backend: backend}, nil
}
