// Package model provides the data structures shared by the postprocess packages.
// It defines the prediction kinds, the immutable prediction table threaded through a plan,
// and the observer contract used by the measure and drawer packages.
package model
