// Package postprocess provides an ordered list of post-processing operations applied to model predictions.
//
// A pipeline sits downstream of a fitted predictor. Operations such as probability calibration, probability
// thresholding, equivocal zones or derived columns are registered in any order, each with a priority and a contract
// describing the kind of data it consumes and produces.
//
// Resolving a pipeline orders the operations by priority, ties broken by registration order, and checks that every
// operation can consume what the previous one produces, starting with the predictor. A mismatch is reported as is,
// the pipeline never reorders operations to make the contracts fit. Any change to the operation set drops the
// resolved plan and the pipeline has to be resolved again before it can run.
//
// Running a plan threads an immutable table through every operation. Parameters left to a tuning process must all be
// supplied before anything runs, and the first failing operation stops the run. A plan is immutable, so independent
// batches can be processed concurrently against the same plan.
package postprocess
