package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReasonText(t *testing.T) {
	r := Reason{
		Code:   ReasonCriticallyLow,
		Params: map[string]any{"percent": 16.7, "quantity": 5, "min": 30},
	}
	require.Equal(t, "Stock is critically low at 16.7% of minimum level (5/30)", r.Text())

	r = Reason{Code: ReasonSameCategoryMatch, Params: map[string]any{"category": "Electronics"}}
	require.Equal(t, "Frequently bought together with other Electronics items", r.Text())

	require.Equal(t, "custom.code", Reason{Code: "custom.code"}.Text())
	require.Equal(t, "Set a positive minimum stock level for this item", Reason{Code: ActionSetMinThreshold}.Text())
}

func TestSnapshotHashIgnoresOrder(t *testing.T) {
	a := Item{ID: "a", Name: "Alpha", Quantity: Int(1), MinStockLevel: Int(2), Price: 3}
	b := Item{ID: "b", Name: "Beta", Quantity: Int(4), MinStockLevel: Int(5), Price: 6}

	require.Equal(t, SnapshotHash([]Item{a, b}), SnapshotHash([]Item{b, a}))

	changed := b
	changed.Quantity = Int(40)
	require.NotEqual(t, SnapshotHash([]Item{a, b}), SnapshotHash([]Item{a, changed}))

	missing := b
	missing.Quantity = nil
	require.NotEqual(t, SnapshotHash([]Item{a, b}), SnapshotHash([]Item{a, missing}))
}

func TestSeverityRank(t *testing.T) {
	require.Greater(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	require.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	require.Greater(t, SeverityMedium.Rank(), SeverityLow.Rank())
	require.Equal(t, -1, Severity("urgent").Rank())

	s, ok := ParseSeverity(" HIGH ")
	require.True(t, ok)
	require.Equal(t, SeverityHigh, s)

	_, ok = ParseSeverity("urgent")
	require.False(t, ok)
}

func TestParseTrend(t *testing.T) {
	tr, ok := ParseTrend("Increasing")
	require.True(t, ok)
	require.Equal(t, TrendIncreasing, tr)

	_, ok = ParseTrend("sideways")
	require.False(t, ok)
}

func TestItemAccessors(t *testing.T) {
	var it Item
	require.Zero(t, it.Qty())
	require.Zero(t, it.MinStock())

	it.Quantity = Int(-3)
	it.MinStockLevel = Int(7)
	require.Equal(t, -3, it.Qty())
	require.Equal(t, 7, it.MinStock())
}

func TestReportJSONRoundTrip(t *testing.T) {
	days := 4
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	want := Report{
		SnapshotHash: "abc123",
		GeneratedAt:  at,
		ItemCount:    1,
		Forecasts: []ForecastResult{{
			ItemID: "1", CurrentStock: 5, PredictedDemand: 40, RecommendedOrder: 35,
			Confidence: 0.8, DaysUntilStockout: &days, Trend: TrendIncreasing,
		}},
		Pricing: []PricingSuggestion{{
			ItemID: "1", Regime: RegimeScarce, StockRatio: 0.17, CurrentPrice: 6.5, SuggestedPrice: 7.15,
			Reason: Reason{Code: ReasonPricingScarce, Params: map[string]any{"ratio": 2.0, "change_pct": 12.5}},
		}},
		Anomalies: []Anomaly{{
			ID: "f1", Type: AnomalyStockMismatch, Severity: SeverityCritical, ItemID: "1",
			Message:    Reason{Code: ReasonNegativeStock, Params: map[string]any{"quantity": -3}},
			Action:     Reason{Code: ActionAuditStock},
			DetectedAt: at,
		}},
	}

	payload, err := json.Marshal(want)
	require.NoError(t, err)
	require.Contains(t, string(payload), `"ratio":2.0`)
	require.Contains(t, string(payload), `"quantity":-3`)

	var got Report
	require.NoError(t, json.Unmarshal(payload, &got))
	require.Equal(t, want, got)
	require.IsType(t, 0, got.Anomalies[0].Message.Params["quantity"])
	require.IsType(t, 0.0, got.Pricing[0].Reason.Params["ratio"])
	require.Equal(t, "Negative stock quantity detected (-3)", got.Anomalies[0].Message.Text())
}

func TestReasonUnmarshalParams(t *testing.T) {
	var r Reason
	require.NoError(t, json.Unmarshal([]byte(`{"code":"anomaly.low_margin","params":{"margin_pct":8.5,"price":100,"cost":9.2e1,"note":"x"}}`), &r))
	require.Equal(t, map[string]any{"margin_pct": 8.5, "price": 100, "cost": 92.0, "note": "x"}, r.Params)

	require.NoError(t, json.Unmarshal([]byte(`{"code":"action.audit_stock_count"}`), &r))
	require.Equal(t, ActionAuditStock, r.Code)
	require.Nil(t, r.Params)
}
