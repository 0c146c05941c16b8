package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"vision-inspector/internal/domain/entity"
	"vision-inspector/internal/domain/port"
)

const namespace = "vision_inspector"

// Prometheus собирает метрики работы с аномалиями
type Prometheus struct {
	mutations      *prometheus.CounterVec
	imports        *prometheus.CounterVec
	imported       prometheus.Counter
	importDuration prometheus.Histogram
	numberAttempts *prometheus.HistogramVec
	logEntries     prometheus.Histogram
}

// NewPrometheus регистрирует метрики в reg. При nil используется регистратор по умолчанию.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Prometheus{
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomaly_mutations_total",
			Help:      "Anomaly changes recorded in the audit log",
		}, []string{"action", "made_by"}),
		imports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detection_imports_total",
			Help:      "Detector calls by outcome",
		}, []string{"outcome"}),
		imported: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_imported_total",
			Help:      "Detections stored as AI anomalies",
		}),
		importDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detection_import_duration_seconds",
			Help:      "Duration of detector calls",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		numberAttempts: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "number_generation_attempts",
			Help:      "Attempts needed to find a free business number",
			Buckets:   []float64{1, 2, 5, 10, 100, 1000, 10000},
		}, []string{"prefix"}),
		logEntries: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audit_log_entries",
			Help:      "Audit log size after a write",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

func (p *Prometheus) ObserveMutation(action entity.Action, madeBy entity.Provenance) {
	p.mutations.WithLabelValues(string(action), string(madeBy)).Inc()
}

func (p *Prometheus) ObserveImport(outcome string, detections int, d time.Duration) {
	p.imports.WithLabelValues(outcome).Inc()
	p.imported.Add(float64(detections))
	p.importDuration.Observe(d.Seconds())
}

func (p *Prometheus) ObserveNumberAttempts(prefix string, attempts int) {
	p.numberAttempts.WithLabelValues(prefix).Observe(float64(attempts))
}

func (p *Prometheus) ObserveLogSize(entries int) {
	p.logEntries.Observe(float64(entries))
}

var _ port.Metrics = (*Prometheus)(nil)
