package domain

import "strings"

// Trend is the direction label attached to a forecast.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// Regime is the pricing classification bucket for an item.
type Regime string

const (
	RegimeScarce   Regime = "scarce"
	RegimeBalanced Regime = "balanced"
	RegimeExcess   Regime = "excess"
)

// AnomalyType is the category of an anomaly finding.
type AnomalyType string

const (
	AnomalyStockMismatch     AnomalyType = "stock_mismatch"
	AnomalyPricing           AnomalyType = "pricing_anomaly"
	AnomalyDemandSpike       AnomalyType = "demand_spike"
	AnomalyDataInconsistency AnomalyType = "data_inconsistency"
)

// Severity ranks how urgent a finding is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRanks = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

var trendLabels = map[string]Trend{
	"increasing": TrendIncreasing,
	"decreasing": TrendDecreasing,
	"stable":     TrendStable,
}

// Rank returns the ordering weight of a severity; unknown values rank lowest.
func (s Severity) Rank() int {
	if rank, ok := severityRanks[s]; ok {
		return rank
	}

	return -1
}

// ParseSeverity returns the severity for a given label (case-insensitive).
func ParseSeverity(label string) (Severity, bool) {
	s := Severity(strings.ToLower(strings.TrimSpace(label)))
	_, ok := severityRanks[s]

	return s, ok
}

// ParseTrend returns the trend for a given label (case-insensitive).
func ParseTrend(label string) (Trend, bool) {
	t, ok := trendLabels[strings.ToLower(strings.TrimSpace(label))]

	return t, ok
}
