package insights

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Factor names an adjustment the components ask the estimator for.
type Factor string

const (
	FactorSeasonal Factor = "seasonal"
	FactorTrend    Factor = "trend"
	FactorPrice    Factor = "price"
)

// Estimator supplies unit draws in [0,1) that components map onto their own
// bounded ranges. Implementations must be safe for concurrent use.
type Estimator interface {
	Draw(itemID string, factor Factor) float64
}

type seededEstimator struct {
	prefix string
}

// NewSeededEstimator returns an estimator whose draws depend only on the seed,
// the item id and the factor, so they do not change with evaluation order.
func NewSeededEstimator(seed int64) Estimator {
	return seededEstimator{prefix: strconv.FormatInt(seed, 10) + ":"}
}

func (e seededEstimator) Draw(itemID string, factor Factor) float64 {
	h := xxhash.Sum64String(e.prefix + itemID + ":" + string(factor))
	return float64(h>>11) / float64(uint64(1)<<53)
}

// FixedEstimator always returns v, clamped to [0,1].
type FixedEstimator float64

func (f FixedEstimator) Draw(string, Factor) float64 {
	return clamp(float64(f), 0, 1)
}

// MidpointEstimator keeps every factor at the centre of its range.
func MidpointEstimator() Estimator {
	return FixedEstimator(0.5)
}
