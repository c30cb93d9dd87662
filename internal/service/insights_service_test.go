package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/autopo-insights/internal/cache"
	"github.com/andresuchdata/autopo-insights/internal/catalog"
	"github.com/andresuchdata/autopo-insights/internal/domain"
	"github.com/andresuchdata/autopo-insights/internal/insights"
)

type memoryCache struct {
	reports map[string]*domain.Report
	gets    int
	sets    int
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{reports: make(map[string]*domain.Report)}
}

func (m *memoryCache) GetReport(_ context.Context, key string) (*domain.Report, bool, error) {
	m.gets++
	if m.failGet {
		return nil, false, errors.New("cache down")
	}
	r, ok := m.reports[key]
	return r, ok, nil
}

func (m *memoryCache) SetReport(_ context.Context, key string, report *domain.Report) error {
	m.sets++
	m.reports[key] = report
	return nil
}

func (m *memoryCache) InvalidateAll(context.Context) error {
	m.reports = make(map[string]*domain.Report)
	return nil
}

type failingSource struct{}

func (failingSource) Load(context.Context) ([]domain.Item, error) { return nil, errors.New("disk gone") }
func (failingSource) Describe() string                            { return "failing" }

func snapshot() catalog.StaticSource {
	return catalog.StaticSource{
		{ID: "1", Name: "Wireless Mouse", Category: "Electronics", Quantity: domain.Int(5), MinStockLevel: domain.Int(30), Cost: 5.99, Price: 6.50},
		{ID: "2", Name: "USB Cable", Category: "Electronics", Quantity: domain.Int(50), MinStockLevel: domain.Int(10), Cost: 1, Price: 4},
		{ID: "3", Name: "Desk", Category: "Furniture", Quantity: domain.Int(2), MinStockLevel: domain.Int(0), Cost: 80, Price: 150},
	}
}

func newService(t *testing.T, source catalog.Source, c *memoryCache, fingerprint string) *InsightsService {
	t.Helper()
	logger := zerolog.Nop()
	engine, err := insights.NewEngine(insights.Options{
		Estimator: insights.MidpointEstimator(),
		Now:       func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
		Logger:    &logger,
	})
	require.NoError(t, err)

	var rc cache.ReportCache
	if c != nil {
		rc = c
	}
	return NewInsightsService(source, engine, rc, Settings{Fingerprint: fingerprint, Timeout: time.Second, Logger: &logger})
}

func TestReportUsesCache(t *testing.T) {
	c := newMemoryCache()
	svc := newService(t, snapshot(), c, "v1")

	first, err := svc.Report(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, first.ItemCount)
	require.Equal(t, 1, c.sets)

	second, err := svc.Report(context.Background())
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 1, c.sets)

	// different settings never share a cache entry
	other := newService(t, snapshot(), c, "v2")
	_, err = other.Report(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, c.sets)
}

func TestReportSurvivesCacheFailure(t *testing.T) {
	c := newMemoryCache()
	c.failGet = true
	svc := newService(t, snapshot(), c, "v1")

	report, err := svc.Report(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Forecasts, 3)
}

func TestServiceWithoutCache(t *testing.T) {
	svc := newService(t, snapshot(), nil, "")

	report, err := svc.Report(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Pricing, 2)
	require.NotEmpty(t, report.Anomalies)
}

func TestServiceSourceError(t *testing.T) {
	svc := newService(t, failingSource{}, nil, "")

	_, err := svc.Report(context.Background())
	require.ErrorContains(t, err, "failing")

	_, err = svc.Search(context.Background(), "mouse")
	require.Error(t, err)
}

func TestServiceLookups(t *testing.T) {
	svc := newService(t, snapshot(), nil, "")
	ctx := context.Background()

	res, err := svc.Search(ctx, "mouse")
	require.NoError(t, err)
	require.Len(t, res.Results, 1)

	recs, err := svc.Recommend(ctx, "1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "2", recs[0].ItemID)

	forecasts, err := svc.Forecast(ctx)
	require.NoError(t, err)
	require.Len(t, forecasts, 3)

	pricing, err := svc.Pricing(ctx)
	require.NoError(t, err)
	require.Len(t, pricing, 2)

	anomalies, err := svc.Anomalies(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, anomalies)

	require.Equal(t, "Electronics", svc.Classify("Phone charger", "").Category)
	require.Equal(t, "view_alerts", svc.ParseIntent("open alerts").Name)
}
