package insights

import (
	"math"
	"sort"
	"strings"

	"github.com/andresuchdata/autopo-insights/internal/domain"
)

// RecommendConfig bounds the cross-sell list.
type RecommendConfig struct {
	TopN     int
	MinScore float64
	MaxScore float64
}

// DefaultRecommendConfig returns the standard recommendation settings.
func DefaultRecommendConfig() RecommendConfig {
	return RecommendConfig{TopN: 3, MinScore: 0.5, MaxScore: 0.95}
}

// Recommender suggests same-category items.
type Recommender struct {
	cfg RecommendConfig
}

// NewRecommender creates a recommender.
func NewRecommender(cfg RecommendConfig) *Recommender {
	return &Recommender{cfg: cfg}
}

// Recommend returns up to TopN items sharing the category of itemID, best
// score first. An unknown id or an uncategorised item yields an empty list.
func (r *Recommender) Recommend(itemID string, catalog []domain.Item) []domain.Recommendation {
	out := make([]domain.Recommendation, 0)

	anchor, ok := findItem(itemID, catalog)
	if !ok || (anchor.Category == "" && anchor.CategoryID == "") {
		return out
	}

	for _, candidate := range catalog {
		if candidate.ID == anchor.ID || !sameCategory(anchor, candidate) {
			continue
		}
		category := anchor.Category
		if category == "" {
			category = candidate.Category
		}
		out = append(out, domain.Recommendation{
			ItemID:   candidate.ID,
			ItemName: candidate.Name,
			Reason: domain.Reason{
				Code:   domain.ReasonSameCategoryMatch,
				Params: map[string]any{"category": category},
			},
			Score: r.score(anchor, candidate),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ItemID < out[j].ItemID
	})

	if r.cfg.TopN > 0 && len(out) > r.cfg.TopN {
		out = out[:r.cfg.TopN]
	}
	return out
}

// score maps price proximity into [MinScore, MaxScore].
func (r *Recommender) score(anchor, candidate domain.Item) float64 {
	// recommendations skip validation, so unusable prices score lowest
	if !ValidAmount(anchor.Price) || !ValidAmount(candidate.Price) {
		return roundFloat(clamp(r.cfg.MinScore, 0, 1), 2)
	}

	proximity := 1.0
	if hi := math.Max(anchor.Price, candidate.Price); hi > 0 {
		proximity = 1 - math.Abs(anchor.Price-candidate.Price)/hi
	}
	return roundFloat(clamp(between(proximity, r.cfg.MinScore, r.cfg.MaxScore), 0, 1), 2)
}

func findItem(id string, catalog []domain.Item) (domain.Item, bool) {
	for _, item := range catalog {
		if item.ID == id {
			return item, true
		}
	}
	return domain.Item{}, false
}

func sameCategory(a, b domain.Item) bool {
	if a.CategoryID != "" && b.CategoryID != "" {
		return a.CategoryID == b.CategoryID
	}
	return a.Category != "" && strings.EqualFold(a.Category, b.Category)
}
