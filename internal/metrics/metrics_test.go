package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/autopo-insights/internal/domain"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestObserveEvaluation(t *testing.T) {
	before := testutil.ToFloat64(evaluationsTotal.WithLabelValues(ComponentSearch, OutcomeError))
	ObserveEvaluation(ComponentSearch, -time.Second, OutcomeError)
	require.Equal(t, before+1, testutil.ToFloat64(evaluationsTotal.WithLabelValues(ComponentSearch, OutcomeError)))

	// unknown outcomes count as success
	before = testutil.ToFloat64(evaluationsTotal.WithLabelValues(ComponentSearch, OutcomeSuccess))
	ObserveEvaluation(ComponentSearch, time.Millisecond, "partial")
	require.Equal(t, before+1, testutil.ToFloat64(evaluationsTotal.WithLabelValues(ComponentSearch, OutcomeSuccess)))
}

func TestObserveItemsAndFindings(t *testing.T) {
	before := testutil.ToFloat64(itemsEvaluatedTotal.WithLabelValues(ComponentForecast))
	ObserveItems(ComponentForecast, 0)
	ObserveItems(ComponentForecast, 4)
	require.Equal(t, before+4, testutil.ToFloat64(itemsEvaluatedTotal.WithLabelValues(ComponentForecast)))

	labels := []string{string(domain.AnomalyStockMismatch), string(domain.SeverityCritical)}
	before = testutil.ToFloat64(findingsTotal.WithLabelValues(labels...))
	ObserveFindings([]domain.Anomaly{
		{Type: domain.AnomalyStockMismatch, Severity: domain.SeverityCritical},
		{Type: domain.AnomalyStockMismatch, Severity: domain.SeverityCritical},
	})
	require.Equal(t, before+2, testutil.ToFloat64(findingsTotal.WithLabelValues(labels...)))
}
