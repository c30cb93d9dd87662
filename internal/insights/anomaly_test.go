package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/autopo-insights/internal/domain"
)

var scanTime = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return scanTime }

func TestScanLowStockAndThinMargin(t *testing.T) {
	d := NewDetector(nil, fixedClock)

	findings, err := d.Scan([]domain.Item{item("a", 5, 30, 5.99, 6.50)})
	require.NoError(t, err)
	require.Len(t, findings, 2)

	require.Equal(t, domain.AnomalyStockMismatch, findings[0].Type)
	require.Equal(t, domain.SeverityHigh, findings[0].Severity)
	require.Equal(t, domain.ReasonCriticallyLow, findings[0].Message.Code)
	require.Equal(t, 16.7, findings[0].Message.Params["percent"])

	require.Equal(t, domain.AnomalyPricing, findings[1].Type)
	require.Equal(t, domain.SeverityMedium, findings[1].Severity)
	require.Equal(t, 8.5, findings[1].Message.Params["margin_pct"])

	for _, f := range findings {
		require.NotEqual(t, domain.SeverityCritical, f.Severity)
		require.Equal(t, scanTime, f.DetectedAt)
	}
}

func TestScanLowStockBoundary(t *testing.T) {
	d := NewDetector(nil, fixedClock)

	atBoundary, err := d.Scan([]domain.Item{item("edge", 3, 10, 1, 2)})
	require.NoError(t, err)
	require.Empty(t, atBoundary)

	below, err := d.Scan([]domain.Item{item("edge", 2, 10, 1, 2)})
	require.NoError(t, err)
	require.Len(t, below, 1)
	require.Equal(t, domain.SeverityHigh, below[0].Severity)
}

func TestScanNegativeStockIsCritical(t *testing.T) {
	d := NewDetector(nil, fixedClock)

	findings, err := d.Scan([]domain.Item{item("neg", -4, 10, 1, 2)})
	require.NoError(t, err)
	require.Len(t, findings, 2)
	require.Equal(t, domain.SeverityCritical, findings[0].Severity)
	require.Equal(t, domain.ActionAuditStock, findings[0].Action.Code)
	require.Equal(t, domain.SeverityHigh, findings[1].Severity)
}

func TestScanZeroThresholdIsDataInconsistency(t *testing.T) {
	d := NewDetector(nil, fixedClock)

	findings, err := d.Scan([]domain.Item{item("zero", 5, 0, 1, 2)})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, domain.AnomalyDataInconsistency, findings[0].Type)
	require.Equal(t, FindingID("zero", 4), findings[0].ID)
}

func TestScanIsIdempotent(t *testing.T) {
	snapshot := []domain.Item{
		item("a", 5, 30, 5.99, 6.50),
		item("b", -1, 10, 2, 1),
		item("c", 100, 10, 1, 5),
		item("d", 1, 0, 3, 3),
	}

	d := NewDetector(nil, fixedClock)
	first, err := d.Scan(snapshot)
	require.NoError(t, err)
	second, err := d.Scan(snapshot)
	require.NoError(t, err)
	require.Equal(t, first, second)

	// ids do not depend on the clock either
	live := NewDetector(nil, nil)
	third, err := live.Scan(snapshot)
	require.NoError(t, err)
	require.Len(t, third, len(first))
	for i := range first {
		require.Equal(t, first[i].ID, third[i].ID)
	}
}

func TestScanOrdersBySeverity(t *testing.T) {
	d := NewDetector(nil, fixedClock)

	findings, err := d.Scan([]domain.Item{
		item("z", 5, 30, 5.99, 6.50),
		item("y", -1, 10, 1, 2),
	})
	require.NoError(t, err)
	require.NotEmpty(t, findings)
	for i := 1; i < len(findings); i++ {
		require.GreaterOrEqual(t, findings[i-1].Severity.Rank(), findings[i].Severity.Rank())
	}
	require.Equal(t, "y", findings[0].ItemID)
}

func TestFindingIDIsStable(t *testing.T) {
	require.Equal(t, FindingID("item-1", 2), FindingID("item-1", 2))
	require.NotEqual(t, FindingID("item-1", 2), FindingID("item-1", 3))
	require.NotEqual(t, FindingID("item-1", 2), FindingID("item-2", 2))
}

func TestScanCustomRules(t *testing.T) {
	spike := AnomalyRule{
		Index:    9,
		Type:     domain.AnomalyDemandSpike,
		Severity: domain.SeverityLow,
		Check: func(it domain.Item) (Finding, bool) {
			return Finding{Message: domain.Reason{Code: "custom.spike"}}, it.Qty() > 1000
		},
	}
	d := NewDetector([]AnomalyRule{spike}, fixedClock)

	findings, err := d.Scan([]domain.Item{item("big", 5000, 10, 1, 2), item("small", 5, 10, 1, 2)})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, domain.AnomalyDemandSpike, findings[0].Type)
	require.Equal(t, FindingID("big", 9), findings[0].ID)
}
