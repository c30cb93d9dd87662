package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/autopo-insights/internal/config"
	"github.com/andresuchdata/autopo-insights/internal/domain"
)

func TestReportKey(t *testing.T) {
	key := ReportKey("abc", "seed=1")
	require.True(t, strings.HasPrefix(key, reportKeyPrefix+":"))
	require.Len(t, strings.TrimPrefix(key, reportKeyPrefix+":"), 40)

	require.Equal(t, key, ReportKey("abc", "seed=1"))
	require.NotEqual(t, key, ReportKey("abc", "seed=2"))
	require.NotEqual(t, key, ReportKey("abd", "seed=1"))
}

func TestNoopReportCache(t *testing.T) {
	c, err := NewReportCache(context.Background(), config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.SetReport(ctx, "k", &domain.Report{ItemCount: 3}))

	report, ok, err := c.GetReport(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, report)
	require.NoError(t, c.InvalidateAll(ctx))
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := redisOptions(config.CacheConfig{RedisURL: "redis://:secret@cache.internal:6380/2"})
	require.NoError(t, err)
	require.Equal(t, "cache.internal:6380", opts.Addr)
	require.Equal(t, "secret", opts.Password)
	require.Equal(t, 2, opts.DB)

	opts, err = redisOptions(config.CacheConfig{RedisDB: 1})
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:6379", opts.Addr)
	require.Equal(t, 1, opts.DB)

	_, err = redisOptions(config.CacheConfig{RedisURL: "mysql://nope"})
	require.Error(t, err)
}

func TestNewReportCacheUnreachable(t *testing.T) {
	_, err := NewReportCache(context.Background(), config.CacheConfig{Enabled: true, RedisHost: "127.0.0.1", RedisPort: "1"})
	require.ErrorContains(t, err, "127.0.0.1:1 unreachable")
}

func cachedReport() *domain.Report {
	days := 3
	increase := 5.0
	return &domain.Report{
		SnapshotHash: "abc123",
		GeneratedAt:  time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		ItemCount:    2,
		Forecasts: []domain.ForecastResult{{
			ItemID: "1", ItemName: "Wireless Mouse", CurrentStock: 5, PredictedDemand: 40,
			RecommendedOrder: 35, Confidence: 0.75, DaysUntilStockout: &days, Trend: domain.TrendIncreasing,
		}},
		Pricing: []domain.PricingSuggestion{{
			ItemID: "1", ItemName: "Wireless Mouse", Regime: domain.RegimeScarce, StockRatio: 0.17,
			CurrentPrice: 6.5, SuggestedPrice: 7.15,
			Reason:         domain.Reason{Code: domain.ReasonPricingScarce, Params: map[string]any{"ratio": 0.17, "change_pct": 10.0}},
			ExpectedImpact: domain.ExpectedImpact{ProfitIncreasePct: &increase},
		}},
		Anomalies: []domain.Anomaly{{
			ID: "f1", Type: domain.AnomalyStockMismatch, Severity: domain.SeverityHigh,
			ItemID: "1", ItemName: "Wireless Mouse",
			Message:    domain.Reason{Code: domain.ReasonCriticallyLow, Params: map[string]any{"percent": 16.7, "quantity": 5, "min": 30}},
			Action:     domain.Reason{Code: domain.ActionReorderNow, Params: map[string]any{"quantity": 55}},
			DetectedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		}},
	}
}

func newMiniredisCache(t *testing.T, ttl time.Duration) (ReportCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisReportCache(client, ttl), mr
}

func TestRedisReportCacheRoundTrip(t *testing.T) {
	c, mr := newMiniredisCache(t, time.Minute)
	ctx := context.Background()

	key := ReportKey("abc123", "seed=1")
	want := cachedReport()
	require.NoError(t, c.SetReport(ctx, key, want))
	require.Equal(t, time.Minute, mr.TTL(key))

	got, ok, err := c.GetReport(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)
	require.Equal(t, want.Anomalies[0].Message.Text(), got.Anomalies[0].Message.Text())

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.GetReport(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisReportCacheDefaultTTL(t *testing.T) {
	c, mr := newMiniredisCache(t, 0)

	key := ReportKey("abc123", "seed=1")
	require.NoError(t, c.SetReport(context.Background(), key, cachedReport()))
	require.Equal(t, DefaultReportTTL, mr.TTL(key))
}

func TestRedisReportCacheCorruptEntry(t *testing.T) {
	c, mr := newMiniredisCache(t, time.Minute)

	key := ReportKey("abc123", "seed=1")
	require.NoError(t, mr.Set(key, "{not json"))

	_, ok, err := c.GetReport(context.Background(), key)
	require.ErrorContains(t, err, "decode report cache")
	require.False(t, ok)
}

func TestRedisReportCacheInvalidateAll(t *testing.T) {
	c, mr := newMiniredisCache(t, time.Minute)
	ctx := context.Background()

	for i := 0; i < reportScanBatchSize+5; i++ {
		key := ReportKey("snapshot", strings.Repeat("x", i))
		require.NoError(t, c.SetReport(ctx, key, &domain.Report{ItemCount: i}))
	}
	require.NoError(t, mr.Set("insights:reporting-job", "keep"))
	require.NoError(t, mr.Set("session:1", "keep"))

	require.NoError(t, c.InvalidateAll(ctx))
	require.ElementsMatch(t, []string{"insights:reporting-job", "session:1"}, mr.Keys())
}

func TestNewReportCacheEnabled(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, ok := strings.Cut(mr.Addr(), ":")
	require.True(t, ok)

	c, err := NewReportCache(context.Background(), config.CacheConfig{
		Enabled: true, RedisHost: host, RedisPort: port, ReportTTLSeconds: 30,
	})
	require.NoError(t, err)

	key := ReportKey("abc123", "seed=1")
	require.NoError(t, c.SetReport(context.Background(), key, cachedReport()))
	require.Equal(t, 30*time.Second, mr.TTL(key))
}
