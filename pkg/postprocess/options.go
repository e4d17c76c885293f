package postprocess

import (
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

const instrumentationName = "github.com/askiada/go-postprocess"

type options struct {
	logger      zerolog.Logger
	tracer      trace.Tracer
	observers   []model.Observer
	concurrency int
}

func newOptions(opts ...PipelineOption) options {
	o := options{
		logger:      zerolog.Nop(),
		tracer:      otel.Tracer(instrumentationName),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.concurrency < 1 {
		o.concurrency = 1
	}

	return o
}

// PipelineOption configures a Pipeline or an Executor.
type PipelineOption func(o *options)

func PipelineLogger(logger zerolog.Logger) PipelineOption {
	return func(o *options) {
		o.logger = logger
	}
}

func PipelineTracer(tracer trace.Tracer) PipelineOption {
	return func(o *options) {
		o.tracer = tracer
	}
}

// PipelineObserver attaches an observer, e.g. measure.PipelineMeasure, to every run.
func PipelineObserver(observer model.Observer) PipelineOption {
	return func(o *options) {
		o.observers = append(o.observers, observer)
	}
}

// PipelineConcurrency bounds the number of batches RunBatches processes at once.
func PipelineConcurrency(concurrent int) PipelineOption {
	return func(o *options) {
		o.concurrency = concurrent
	}
}
