package model

import "time"

// Observer defines the interface for hooks attached to an executor.
// Implementations must be safe for concurrent use, batches can run in parallel.
type Observer interface {
	// OnOperationOutput runs everytime an operation returns a table.
	OnOperationOutput(parent, op *OperationInfo, rows int, computation time.Duration) error
	// OnOperationError runs when an operation fails.
	OnOperationError(op *OperationInfo, err error) error
	// AfterRun runs once every step of a plan completed.
	AfterRun(plan []*OperationInfo, total time.Duration) error
}
