package measure

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

// Prometheus exports operation metrics to a Prometheus registerer.
type Prometheus struct {
	OperationDuration *prometheus.HistogramVec
	OperationRows     *prometheus.CounterVec
	OperationErrors   *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	Runs              prometheus.Counter
}

// NewPrometheus registers the postprocess metrics with the default registerer.
func NewPrometheus() *Prometheus {
	return NewPrometheusWithRegistry(prometheus.DefaultRegisterer)
}

// NewPrometheusWithRegistry registers the postprocess metrics with registerer,
// tests use a fresh prometheus.NewRegistry().
func NewPrometheusWithRegistry(registerer prometheus.Registerer) *Prometheus {
	factory := promauto.With(registerer)

	return &Prometheus{
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "postprocess",
			Name:      "operation_duration_seconds",
			Help:      "Time spent applying a single operation",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"operation", "type"}),
		OperationRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "postprocess",
			Name:      "operation_rows_total",
			Help:      "Total number of rows produced by an operation",
		}, []string{"operation"}),
		OperationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "postprocess",
			Name:      "operation_errors_total",
			Help:      "Total number of failed operation applications",
		}, []string{"operation"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "postprocess",
			Name:      "run_duration_seconds",
			Help:      "Time spent running a whole plan",
			Buckets:   prometheus.DefBuckets,
		}),
		Runs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "postprocess",
			Name:      "runs_total",
			Help:      "Total number of completed runs",
		}),
	}
}

func (p *Prometheus) OnOperationOutput(_, op *model.OperationInfo, rows int, computation time.Duration) error {
	p.OperationDuration.WithLabelValues(op.Name, op.Type).Observe(computation.Seconds())
	p.OperationRows.WithLabelValues(op.Name).Add(float64(rows))

	return nil
}

func (p *Prometheus) OnOperationError(op *model.OperationInfo, _ error) error {
	p.OperationErrors.WithLabelValues(op.Name).Inc()

	return nil
}

func (p *Prometheus) AfterRun(_ []*model.OperationInfo, total time.Duration) error {
	p.RunDuration.Observe(total.Seconds())
	p.Runs.Inc()

	return nil
}

var _ model.Observer = (*Prometheus)(nil)
