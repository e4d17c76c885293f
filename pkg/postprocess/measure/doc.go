// Package measure collects per operation metrics while plans run.
//
// DefaultMeasure keeps everything in memory and feeds the drawer package. Prometheus exports the same
// observations through client_golang. Both are attached to a pipeline with postprocess.PipelineObserver.
package measure
