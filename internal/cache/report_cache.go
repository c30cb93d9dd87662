package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/autopo-insights/internal/config"
	"github.com/andresuchdata/autopo-insights/internal/domain"
)

const (
	reportKeyPrefix     = "insights:report"
	reportScanBatchSize = 100

	// DefaultReportTTL applies when no positive TTL is configured.
	DefaultReportTTL = 5 * time.Minute
)

// ReportCache stores computed reports keyed by snapshot and engine settings.
type ReportCache interface {
	GetReport(ctx context.Context, key string) (*domain.Report, bool, error)
	SetReport(ctx context.Context, key string, report *domain.Report) error
	InvalidateAll(ctx context.Context) error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

// NewReportCache returns a Redis-backed cache, or a no-op cache when caching is disabled.
func NewReportCache(ctx context.Context, cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return NewNoopReportCache(), nil
	}

	client, err := dialRedis(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisReportCache(client, time.Duration(cfg.ReportTTLSeconds)*time.Second), nil
}

// NewRedisReportCache stores reports in client for ttl, or DefaultReportTTL
// when ttl is not positive.
func NewRedisReportCache(client *redis.Client, ttl time.Duration) ReportCache {
	if ttl <= 0 {
		ttl = DefaultReportTTL
	}
	return &redisReportCache{client: client, ttl: ttl}
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

// ReportKey derives the cache key for a snapshot hash evaluated under the
// given settings fingerprint.
func ReportKey(snapshotHash, fingerprint string) string {
	sum := sha1.Sum([]byte(snapshotHash + "|" + fingerprint))
	return fmt.Sprintf("%s:%s", reportKeyPrefix, hex.EncodeToString(sum[:]))
}

func (c *redisReportCache) GetReport(ctx context.Context, key string) (*domain.Report, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var report domain.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false, fmt.Errorf("decode report cache: %w", err)
	}

	return &report, true, nil
}

func (c *redisReportCache) SetReport(ctx context.Context, key string, report *domain.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisReportCache) InvalidateAll(ctx context.Context) error {
	_, err := unlinkReports(ctx, c.client)
	return err
}

func (n *noopReportCache) GetReport(ctx context.Context, key string) (*domain.Report, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) SetReport(ctx context.Context, key string, report *domain.Report) error {
	return nil
}

func (n *noopReportCache) InvalidateAll(ctx context.Context) error {
	return nil
}
