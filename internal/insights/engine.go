package insights

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/autopo-insights/internal/domain"
	"github.com/andresuchdata/autopo-insights/internal/metrics"
)

// Options wires the engine's components. Zero values fall back to defaults.
type Options struct {
	Rules        *RulePack
	AnomalyRules []AnomalyRule
	Estimator    Estimator
	Now          func() time.Time
	Forecast     ForecastConfig
	Pricing      PricingConfig
	Search       SearchConfig
	Recommend    RecommendConfig
	Workers      int
	Logger       *zerolog.Logger
}

// DefaultOptions returns options with every component at its default settings.
func DefaultOptions() Options {
	rules := DefaultRulePack()
	return Options{
		Rules:     &rules,
		Estimator: MidpointEstimator(),
		Forecast:  DefaultForecastConfig(),
		Pricing:   DefaultPricingConfig(),
		Search:    DefaultSearchConfig(),
		Recommend: DefaultRecommendConfig(),
		Workers:   runtime.NumCPU(),
	}
}

// Engine is the single call boundary over the analytics components. It holds
// no mutable state; every method is safe for concurrent use.
type Engine struct {
	forecaster  *Forecaster
	pricing     *PricingAdvisor
	detector    *Detector
	searcher    *Searcher
	recommender *Recommender
	categorizer *Categorizer
	intents     *IntentParser
	workers     int
	now         func() time.Time
	logger      zerolog.Logger
}

// NewEngine builds an engine from opts.
func NewEngine(opts Options) (*Engine, error) {
	defaults := DefaultOptions()

	rules := DefaultRulePack()
	if opts.Rules != nil {
		rules = *opts.Rules
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule pack: %w", err)
	}

	if opts.Forecast == (ForecastConfig{}) {
		opts.Forecast = defaults.Forecast
	}
	if opts.Pricing == (PricingConfig{}) {
		opts.Pricing = defaults.Pricing
	}
	if opts.Search == (SearchConfig{}) {
		opts.Search = defaults.Search
	}
	if opts.Recommend == (RecommendConfig{}) {
		opts.Recommend = defaults.Recommend
	}
	if opts.Workers <= 0 {
		opts.Workers = defaults.Workers
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Engine{
		forecaster:  NewForecaster(opts.Forecast, opts.Estimator),
		pricing:     NewPricingAdvisor(opts.Pricing, opts.Estimator, logger),
		detector:    NewDetector(opts.AnomalyRules, opts.Now),
		searcher:    NewSearcher(opts.Search, rules.Search),
		recommender: NewRecommender(opts.Recommend),
		categorizer: NewCategorizer(rules.CategoryRules(), rules.DefaultCategory),
		intents:     NewIntentParser(rules.IntentRules(), rules.UnknownIntent),
		workers:     opts.Workers,
		now:         opts.Now,
		logger:      logger,
	}, nil
}

// Forecast projects demand for every item.
func (e *Engine) Forecast(items []domain.Item) (res []domain.ForecastResult, err error) {
	defer e.observe(metrics.ComponentForecast, len(items), time.Now(), &err)
	return e.forecaster.Forecast(items)
}

// SuggestPricing prices every item with a defined stock ratio.
func (e *Engine) SuggestPricing(items []domain.Item) (res []domain.PricingSuggestion, err error) {
	defer e.observe(metrics.ComponentPricing, len(items), time.Now(), &err)
	return e.pricing.Suggest(items)
}

// DetectAnomalies scans the snapshot for findings.
func (e *Engine) DetectAnomalies(items []domain.Item) (res []domain.Anomaly, err error) {
	defer e.observe(metrics.ComponentAnomalies, len(items), time.Now(), &err)
	res, err = e.detector.Scan(items)
	if err == nil {
		metrics.ObserveFindings(res)
	}
	return res, err
}

// Search matches query against the snapshot.
func (e *Engine) Search(query string, items []domain.Item) domain.SearchResult {
	defer e.observe(metrics.ComponentSearch, 0, time.Now(), nil)
	return e.searcher.Search(query, items)
}

// Recommend returns cross-sell candidates for itemID.
func (e *Engine) Recommend(itemID string, catalog []domain.Item) []domain.Recommendation {
	defer e.observe(metrics.ComponentRecommend, 0, time.Now(), nil)
	return e.recommender.Recommend(itemID, catalog)
}

// Classify infers a category from free text.
func (e *Engine) Classify(name, description string) domain.CategorySuggestion {
	defer e.observe(metrics.ComponentClassify, 0, time.Now(), nil)
	return e.categorizer.Classify(name, description)
}

// ParseIntent interprets a typed or spoken command.
func (e *Engine) ParseIntent(transcript string) domain.Intent {
	defer e.observe(metrics.ComponentIntent, 0, time.Now(), nil)
	return e.intents.Parse(transcript)
}

// ForecastContext is Forecast evaluated across the worker pool; results keep input order.
func (e *Engine) ForecastContext(ctx context.Context, items []domain.Item) (res []domain.ForecastResult, err error) {
	defer e.observe(metrics.ComponentForecast, len(items), time.Now(), &err)
	return evaluate(ctx, e.workers, items, e.forecaster.ForecastItem)
}

// SuggestPricingContext is SuggestPricing evaluated across the worker pool.
func (e *Engine) SuggestPricingContext(ctx context.Context, items []domain.Item) (res []domain.PricingSuggestion, err error) {
	defer e.observe(metrics.ComponentPricing, len(items), time.Now(), &err)

	type slot struct {
		suggestion domain.PricingSuggestion
		ok         bool
	}
	slots, err := evaluate(ctx, e.workers, items, func(item domain.Item) (slot, error) {
		s, ok, err := e.pricing.SuggestItem(item)
		return slot{suggestion: s, ok: ok}, err
	})
	if err != nil {
		return nil, err
	}

	res = make([]domain.PricingSuggestion, 0, len(slots))
	for _, s := range slots {
		if s.ok {
			res = append(res, s.suggestion)
		}
	}
	return res, nil
}

// DetectAnomaliesContext is DetectAnomalies evaluated across the worker pool.
func (e *Engine) DetectAnomaliesContext(ctx context.Context, items []domain.Item) (res []domain.Anomaly, err error) {
	defer e.observe(metrics.ComponentAnomalies, len(items), time.Now(), &err)

	detectedAt := e.detector.Now()
	perItem, err := evaluate(ctx, e.workers, items, func(item domain.Item) ([]domain.Anomaly, error) {
		return e.detector.ScanItem(item, detectedAt)
	})
	if err != nil {
		return nil, err
	}

	res = make([]domain.Anomaly, 0)
	for _, findings := range perItem {
		res = append(res, findings...)
	}
	SortAnomalies(res)
	metrics.ObserveFindings(res)
	return res, nil
}

// Report validates the snapshot once and runs forecasting, pricing and anomaly
// detection concurrently. It returns only when all three have completed.
func (e *Engine) Report(ctx context.Context, items []domain.Item) (report *domain.Report, err error) {
	defer e.observe(metrics.ComponentReport, len(items), time.Now(), &err)

	if err := ValidateItems(items); err != nil {
		return nil, err
	}

	report = &domain.Report{
		SnapshotHash: domain.SnapshotHash(items),
		GeneratedAt:  e.now(),
		ItemCount:    len(items),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := e.ForecastContext(gctx, items)
		report.Forecasts = res
		return err
	})
	g.Go(func() error {
		res, err := e.SuggestPricingContext(gctx, items)
		report.Pricing = res
		return err
	})
	g.Go(func() error {
		res, err := e.DetectAnomaliesContext(gctx, items)
		report.Anomalies = res
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug().
		Str("snapshot", report.SnapshotHash).
		Int("items", report.ItemCount).
		Int("pricing", len(report.Pricing)).
		Int("anomalies", len(report.Anomalies)).
		Msg("insights: report generated")

	return report, nil
}

func (e *Engine) observe(component string, items int, start time.Time, errp *error) {
	outcome := metrics.OutcomeSuccess
	if errp != nil && *errp != nil {
		outcome = metrics.OutcomeError
	}
	metrics.ObserveItems(component, items)
	metrics.ObserveEvaluation(component, time.Since(start), outcome)
}

// evaluate runs fn over items with at most workers goroutines and returns the
// results in input order. The first error cancels the remaining work.
func evaluate[T any](ctx context.Context, workers int, items []domain.Item, fn func(domain.Item) (T, error)) ([]T, error) {
	out := make([]T, len(items))
	if len(items) == 0 {
		return out, ctx.Err()
	}
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		i, item := i, item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := fn(item)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
