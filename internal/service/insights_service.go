// internal/service/insights_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-insights/internal/cache"
	"github.com/andresuchdata/autopo-insights/internal/catalog"
	"github.com/andresuchdata/autopo-insights/internal/domain"
	"github.com/andresuchdata/autopo-insights/internal/insights"
)

// Settings tune the service. Fingerprint identifies the engine configuration
// so cached reports are never served across different settings.
type Settings struct {
	Fingerprint string
	Timeout     time.Duration
	Logger      *zerolog.Logger
}

type InsightsService struct {
	source      catalog.Source
	engine      *insights.Engine
	cache       cache.ReportCache
	fingerprint string
	timeout     time.Duration
	logger      zerolog.Logger
}

func NewInsightsService(source catalog.Source, engine *insights.Engine, cacheImpl cache.ReportCache, settings Settings) *InsightsService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReportCache()
	}
	logger := log.Logger
	if settings.Logger != nil {
		logger = *settings.Logger
	}
	return &InsightsService{
		source:      source,
		engine:      engine,
		cache:       cacheImpl,
		fingerprint: settings.Fingerprint,
		timeout:     settings.Timeout,
		logger:      logger,
	}
}

// Snapshot loads the current catalog from the configured source.
func (s *InsightsService) Snapshot(ctx context.Context) ([]domain.Item, error) {
	items, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot from %s: %w", s.source.Describe(), err)
	}
	return items, nil
}

// Report returns the snapshot-wide report, served from cache when the same
// snapshot was already evaluated under the same settings.
func (s *InsightsService) Report(ctx context.Context) (*domain.Report, error) {
	items, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	key := cache.ReportKey(domain.SnapshotHash(items), s.fingerprint)
	if report, ok, err := s.cache.GetReport(ctx, key); err == nil && ok {
		s.logger.Debug().Str("key", key).Msg("insights: report cache hit")
		return report, nil
	} else if err != nil {
		s.logger.Warn().Err(err).Msg("insights: cache get report failed")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	report, err := s.engine.Report(ctx, items)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetReport(ctx, key, report); err != nil {
		s.logger.Warn().Err(err).Msg("insights: cache set report failed")
	}

	return report, nil
}

func (s *InsightsService) Forecast(ctx context.Context) ([]domain.ForecastResult, error) {
	items, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.engine.ForecastContext(ctx, items)
}

func (s *InsightsService) Pricing(ctx context.Context) ([]domain.PricingSuggestion, error) {
	items, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.engine.SuggestPricingContext(ctx, items)
}

func (s *InsightsService) Anomalies(ctx context.Context) ([]domain.Anomaly, error) {
	items, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.engine.DetectAnomaliesContext(ctx, items)
}

func (s *InsightsService) Search(ctx context.Context, query string) (domain.SearchResult, error) {
	items, err := s.Snapshot(ctx)
	if err != nil {
		return domain.SearchResult{}, err
	}
	return s.engine.Search(query, items), nil
}

func (s *InsightsService) Recommend(ctx context.Context, itemID string) ([]domain.Recommendation, error) {
	items, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.Recommend(itemID, items), nil
}

func (s *InsightsService) Classify(name, description string) domain.CategorySuggestion {
	return s.engine.Classify(name, description)
}

func (s *InsightsService) ParseIntent(transcript string) domain.Intent {
	return s.engine.ParseIntent(transcript)
}

func (s *InsightsService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
