// Package tune supplies the values of the tunable parameters of a pipeline.
//
// A Grid enumerates candidate values, Search runs a plan for each of them and keeps the best scoring one, and a
// BoltStore persists the chosen values so later runs can reuse them.
package tune
