package measure

import "time"

type Measure interface {
	AddMetric(name string) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
}

type Metric interface {
	AddDuration(elapsed time.Duration)
	AddInput(parentName string, rows int)
	AddError()
	AVGDuration() time.Duration
	Count() int64
	Errors() int64
	SetTotalDuration(endDuration time.Duration)
	GetTotalDuration() time.Duration
	AllInputs() map[string]InputInfo
}
