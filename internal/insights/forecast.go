package insights

import (
	"math"

	"github.com/andresuchdata/autopo-insights/internal/domain"
)

const (
	// TrendUpThreshold is the trend adjustment above which demand is labelled increasing.
	TrendUpThreshold = 0.05
	// TrendDownThreshold is the trend adjustment below whose negative demand is labelled decreasing.
	TrendDownThreshold = 0.05
)

// ForecastConfig holds the forecaster's tunables.
type ForecastConfig struct {
	SmoothingFraction float64 // share of on-hand stock that moves per period
	PeriodDays        int     // length of one demand period
	HorizonDays       int     // stockout projections at or beyond this are dropped
	SeasonalMin       float64
	SeasonalMax       float64
	TrendMin          float64
	TrendMax          float64
	BaseConfidence    float64
	MinConfidence     float64
	FitPenalty        float64 // confidence lost per unit of adjustment away from baseline
}

// DefaultForecastConfig returns the standard forecaster settings.
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		SmoothingFraction: 0.3,
		PeriodDays:        30,
		HorizonDays:       60,
		SeasonalMin:       0.8,
		SeasonalMax:       1.2,
		TrendMin:          0.9,
		TrendMax:          1.1,
		BaseConfidence:    0.95,
		MinConfidence:     0.5,
		FitPenalty:        0.5,
	}
}

// Forecaster projects per-item demand and reorder quantities.
type Forecaster struct {
	cfg       ForecastConfig
	estimator Estimator
}

// NewForecaster creates a forecaster; a nil estimator keeps factors at their midpoint.
func NewForecaster(cfg ForecastConfig, estimator Estimator) *Forecaster {
	if estimator == nil {
		estimator = MidpointEstimator()
	}
	if cfg.PeriodDays <= 0 {
		cfg.PeriodDays = DefaultForecastConfig().PeriodDays
	}
	return &Forecaster{cfg: cfg, estimator: estimator}
}

// Forecast computes one independent result per item, in input order.
func (f *Forecaster) Forecast(items []domain.Item) ([]domain.ForecastResult, error) {
	results := make([]domain.ForecastResult, 0, len(items))
	for _, item := range items {
		res, err := f.ForecastItem(item)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// ForecastItem computes the forecast for a single item.
func (f *Forecaster) ForecastItem(item domain.Item) (domain.ForecastResult, error) {
	if err := ValidateItem(item); err != nil {
		return domain.ForecastResult{}, err
	}

	stock := item.Qty()
	minStock := item.MinStock()

	seasonal := between(f.estimator.Draw(item.ID, FactorSeasonal), f.cfg.SeasonalMin, f.cfg.SeasonalMax)
	trend := between(f.estimator.Draw(item.ID, FactorTrend), f.cfg.TrendMin, f.cfg.TrendMax)

	// 1. Baseline demand: share of on-hand that moves per period
	baseline := float64(stock) * f.cfg.SmoothingFraction

	// 2. Adjusted demand, whole units, never negative
	predicted := int(math.Max(0, math.Round(baseline*seasonal*trend)))

	// 3. Reorder quantity rebuilds at least the safety buffer
	recommended := predicted - stock + minStock
	if recommended < 0 {
		recommended = 0
	}

	// 4. Confidence degrades with how far the model moved off its baseline
	deviation := math.Abs(seasonal-1) + math.Abs(trend-1)
	confidence := clamp(f.cfg.BaseConfidence-f.cfg.FitPenalty*deviation, f.cfg.MinConfidence, 1)
	confidence = clamp(roundFloat(confidence, 2), 0, 1)

	return domain.ForecastResult{
		ItemID:            item.ID,
		ItemName:          item.Name,
		CurrentStock:      stock,
		PredictedDemand:   predicted,
		RecommendedOrder:  recommended,
		Confidence:        confidence,
		DaysUntilStockout: f.daysUntilStockout(stock, predicted),
		Trend:             trendLabel(trend - 1),
	}, nil
}

func (f *Forecaster) daysUntilStockout(stock, predicted int) *int {
	if stock <= 0 {
		return domain.Int(0)
	}
	if predicted <= 0 {
		return nil
	}

	// stock / (predicted / period), floored, in integer arithmetic
	days := stock * f.cfg.PeriodDays / predicted
	if days >= f.cfg.HorizonDays {
		return nil
	}
	return &days
}

func trendLabel(adjustment float64) domain.Trend {
	switch {
	case adjustment > TrendUpThreshold:
		return domain.TrendIncreasing
	case adjustment < -TrendDownThreshold:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}
