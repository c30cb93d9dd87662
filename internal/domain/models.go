// internal/domain/models.go
package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Item represents a single inventory record from a catalog snapshot
type Item struct {
	ID            string  `json:"id" db:"id"`
	Name          string  `json:"name" db:"name"`
	SKU           string  `json:"sku" db:"sku"`
	Quantity      *int    `json:"quantity" db:"quantity"`
	MinStockLevel *int    `json:"min_stock_level" db:"min_stock_level"`
	Cost          float64 `json:"cost" db:"cost"`
	Price         float64 `json:"price" db:"price"`
	Category      string  `json:"category" db:"category"`
	CategoryID    string  `json:"category_id" db:"category_id"`
}

// Qty returns the on-hand quantity, or 0 when missing.
func (i Item) Qty() int {
	if i.Quantity == nil {
		return 0
	}
	return *i.Quantity
}

// MinStock returns the minimum stock threshold, or 0 when missing.
func (i Item) MinStock() int {
	if i.MinStockLevel == nil {
		return 0
	}
	return *i.MinStockLevel
}

// Int returns a pointer to v, handy for building items by hand.
func Int(v int) *int {
	return &v
}

// ForecastResult holds the demand projection for one item
type ForecastResult struct {
	ItemID            string  `json:"item_id"`
	ItemName          string  `json:"item_name"`
	CurrentStock      int     `json:"current_stock"`
	PredictedDemand   int     `json:"predicted_demand"`
	RecommendedOrder  int     `json:"recommended_order"`
	Confidence        float64 `json:"confidence"`
	DaysUntilStockout *int    `json:"days_until_stockout,omitempty"`
	Trend             Trend   `json:"trend"`
}

// ExpectedImpact carries at most one populated estimate
type ExpectedImpact struct {
	SalesIncreasePct  *float64 `json:"sales_increase_pct,omitempty"`
	ProfitIncreasePct *float64 `json:"profit_increase_pct,omitempty"`
}

// PricingSuggestion represents a price adjustment for one item
type PricingSuggestion struct {
	ItemID         string         `json:"item_id"`
	ItemName       string         `json:"item_name"`
	Regime         Regime         `json:"regime"`
	StockRatio     float64        `json:"stock_ratio"`
	CurrentPrice   float64        `json:"current_price"`
	SuggestedPrice float64        `json:"suggested_price"`
	Reason         Reason         `json:"reason"`
	ExpectedImpact ExpectedImpact `json:"expected_impact"`
}

// Anomaly is one finding emitted by the anomaly detector
type Anomaly struct {
	ID         string      `json:"id"`
	Type       AnomalyType `json:"type"`
	Severity   Severity    `json:"severity"`
	ItemID     string      `json:"item_id"`
	ItemName   string      `json:"item_name"`
	Message    Reason      `json:"message"`
	Action     Reason      `json:"suggested_action"`
	DetectedAt time.Time   `json:"detected_at"`
}

// SearchResult is the outcome of a catalog search
type SearchResult struct {
	Results     []Item   `json:"results"`
	Suggestions []string `json:"suggestions"`
	Correction  *string  `json:"correction,omitempty"`
}

// Recommendation is a cross-sell candidate for an item
type Recommendation struct {
	ItemID   string  `json:"item_id"`
	ItemName string  `json:"item_name"`
	Reason   Reason  `json:"reason"`
	Score    float64 `json:"score"`
}

// CategorySuggestion is the result of free-text classification
type CategorySuggestion struct {
	Category   string   `json:"category" yaml:"category"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
	Tags       []string `json:"tags" yaml:"tags"`
}

// Intent is the interpreted form of a typed or spoken command
type Intent struct {
	Name       string            `json:"intent" yaml:"intent"`
	Action     string            `json:"action" yaml:"action"`
	Parameters map[string]string `json:"parameters" yaml:"parameters"`
	Confidence float64           `json:"confidence" yaml:"confidence"`
}

// Report bundles the snapshot-wide signals computed in one pass
type Report struct {
	SnapshotHash string              `json:"snapshot_hash"`
	GeneratedAt  time.Time           `json:"generated_at"`
	ItemCount    int                 `json:"item_count"`
	Forecasts    []ForecastResult    `json:"forecasts"`
	Pricing      []PricingSuggestion `json:"pricing"`
	Anomalies    []Anomaly           `json:"anomalies"`
}

// SnapshotHash returns a stable digest of the snapshot, independent of item order.
func SnapshotHash(items []Item) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s|%s|%s|%s|%s|%.4f|%.4f|%s|%s",
			it.ID, it.Name, it.SKU, optInt(it.Quantity), optInt(it.MinStockLevel),
			it.Cost, it.Price, it.Category, it.CategoryID))
	}
	sort.Strings(parts)

	sum := sha1.Sum([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(sum[:])
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
