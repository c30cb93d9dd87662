package insights

import (
	"github.com/rs/zerolog"

	"github.com/andresuchdata/autopo-insights/internal/domain"
)

// PriceBand bounds the multiplier applied to the current price.
type PriceBand struct {
	Min float64
	Max float64
}

// PricingConfig holds the regime boundaries and bands.
type PricingConfig struct {
	ScarceRatio      float64 // ratio below this is scarce
	ExcessRatio      float64 // ratio above this is excess
	Scarce           PriceBand
	Balanced         PriceBand
	Excess           PriceBand
	CurrencyDecimals int
	PriceElasticity  float64 // sales lift per percent of price drop
}

// DefaultPricingConfig returns the standard pricing settings.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		ScarceRatio:      0.5,
		ExcessRatio:      3,
		Scarce:           PriceBand{Min: 1.05, Max: 1.15},
		Balanced:         PriceBand{Min: 0.95, Max: 1.05},
		Excess:           PriceBand{Min: 0.85, Max: 0.90},
		CurrencyDecimals: 2,
		PriceElasticity:  1.5,
	}
}

// PricingAdvisor suggests price adjustments from the stock-to-minimum ratio.
type PricingAdvisor struct {
	cfg       PricingConfig
	estimator Estimator
	logger    zerolog.Logger
}

// NewPricingAdvisor creates a pricing advisor.
func NewPricingAdvisor(cfg PricingConfig, estimator Estimator, logger zerolog.Logger) *PricingAdvisor {
	if estimator == nil {
		estimator = MidpointEstimator()
	}
	return &PricingAdvisor{cfg: cfg, estimator: estimator, logger: logger}
}

// Suggest returns suggestions in input order. Items whose minimum threshold is
// not positive have no defined ratio and are skipped; the detector reports them.
func (p *PricingAdvisor) Suggest(items []domain.Item) ([]domain.PricingSuggestion, error) {
	out := make([]domain.PricingSuggestion, 0, len(items))
	for _, item := range items {
		s, ok, err := p.SuggestItem(item)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// SuggestItem prices a single item. ok is false when the item has no usable ratio.
func (p *PricingAdvisor) SuggestItem(item domain.Item) (domain.PricingSuggestion, bool, error) {
	if err := ValidateItem(item); err != nil {
		return domain.PricingSuggestion{}, false, err
	}

	minStock := item.MinStock()
	if minStock <= 0 {
		p.logger.Debug().Str("item_id", item.ID).Int("min_stock_level", minStock).
			Msg("pricing: skipping item without a positive minimum stock level")
		return domain.PricingSuggestion{}, false, nil
	}

	ratio := float64(item.Qty()) / float64(minStock)
	regime, band, code := p.classify(ratio)

	factor := between(p.estimator.Draw(item.ID, FactorPrice), band.Min, band.Max)
	current := roundCurrency(item.Price, p.cfg.CurrencyDecimals)
	suggested := roundCurrency(item.Price*factor, p.cfg.CurrencyDecimals)

	changePct := 0.0
	if current > 0 {
		changePct = roundFloat((suggested-current)/current*100, 1)
	}

	return domain.PricingSuggestion{
		ItemID:         item.ID,
		ItemName:       item.Name,
		Regime:         regime,
		StockRatio:     roundFloat(ratio, 2),
		CurrentPrice:   current,
		SuggestedPrice: suggested,
		Reason: domain.Reason{
			Code:   code,
			Params: map[string]any{"ratio": roundFloat(ratio, 2), "change_pct": absFloat(changePct)},
		},
		ExpectedImpact: p.impact(current, suggested, item.Cost, changePct),
	}, true, nil
}

func (p *PricingAdvisor) classify(ratio float64) (domain.Regime, PriceBand, domain.ReasonCode) {
	switch {
	case ratio < p.cfg.ScarceRatio:
		return domain.RegimeScarce, p.cfg.Scarce, domain.ReasonPricingScarce
	case ratio > p.cfg.ExcessRatio:
		return domain.RegimeExcess, p.cfg.Excess, domain.ReasonPricingExcess
	default:
		return domain.RegimeBalanced, p.cfg.Balanced, domain.ReasonPricingBalanced
	}
}

// impact fills sales lift for price drops and profit lift for price rises, never both.
func (p *PricingAdvisor) impact(current, suggested, cost, changePct float64) domain.ExpectedImpact {
	switch {
	case suggested < current:
		sales := roundFloat(-changePct*p.cfg.PriceElasticity, 1)
		return domain.ExpectedImpact{SalesIncreasePct: &sales}
	case suggested > current:
		profit := changePct
		if margin := current - cost; margin > 0 {
			profit = roundFloat((suggested-current)/margin*100, 1)
		}
		return domain.ExpectedImpact{ProfitIncreasePct: &profit}
	default:
		return domain.ExpectedImpact{}
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
