package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andresuchdata/autopo-insights/internal/domain"
)

const (
	// OutcomeSuccess labels evaluations that returned a result.
	OutcomeSuccess = "success"
	// OutcomeError labels evaluations rejected by validation or cancelled.
	OutcomeError = "error"
)

// Component labels, one per engine entry point.
const (
	ComponentForecast  = "forecast"
	ComponentPricing   = "pricing"
	ComponentAnomalies = "anomalies"
	ComponentSearch    = "search"
	ComponentRecommend = "recommend"
	ComponentClassify  = "classify"
	ComponentIntent    = "intent"
	ComponentReport    = "report"
)

var (
	evaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inventory_insights",
			Name:      "evaluations_total",
			Help:      "Total number of engine evaluations, partitioned by component and outcome.",
		},
		[]string{"component", "outcome"},
	)

	evaluationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inventory_insights",
			Name:      "evaluation_seconds",
			Help:      "Engine evaluation latency in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"component"},
	)

	itemsEvaluatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inventory_insights",
			Name:      "items_evaluated_total",
			Help:      "Catalog items passed through snapshot components.",
		},
		[]string{"component"},
	)

	findingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inventory_insights",
			Name:      "findings_total",
			Help:      "Anomaly findings emitted, partitioned by type and severity.",
		},
		[]string{"type", "severity"},
	)
)

// Register attaches the insights collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		evaluationsTotal,
		evaluationDurationSeconds,
		itemsEvaluatedTotal,
		findingsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveEvaluation records an evaluation duration and outcome label.
func ObserveEvaluation(component string, duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	evaluationsTotal.WithLabelValues(component, label).Inc()
	if duration < 0 {
		duration = 0
	}
	evaluationDurationSeconds.WithLabelValues(component).Observe(duration.Seconds())
}

// ObserveItems counts items handed to a snapshot component.
func ObserveItems(component string, n int) {
	if n <= 0 {
		return
	}
	itemsEvaluatedTotal.WithLabelValues(component).Add(float64(n))
}

// ObserveFindings counts findings by type and severity.
func ObserveFindings(findings []domain.Anomaly) {
	for _, f := range findings {
		findingsTotal.WithLabelValues(string(f.Type), string(f.Severity)).Inc()
	}
}
