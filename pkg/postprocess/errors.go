package postprocess

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

var (
	ErrPipelineMustBeSet   = errors.New("pipeline must be set")
	ErrPredictorMustBeSet  = errors.New("predictor must be set")
	ErrPlanMustBeSet       = errors.New("plan must be set")
	ErrInputMustBeSet      = errors.New("input must be set")
	ErrInvalidOperation    = errors.New("invalid operation")
	ErrNotResolved         = errors.New("pipeline is not resolved")
	ErrPredictionKind      = errors.New("predictions kind does not match the plan")
	ErrOutputKind          = errors.New("operation returned an undeclared kind")
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrStepOutOfRange      = errors.New("step out of range")
	ErrDuplicateName       = errors.New("duplicate operation name")
	ErrNotFound            = errors.New("operation not found")
	ErrContractMismatch    = errors.New("contract mismatch")
	ErrUnresolvedParameter = errors.New("unresolved tunable parameter")
	ErrOperationExecution  = errors.New("operation execution failed")
)

// DuplicateNameError is returned when an operation name is already registered.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("operation %q already registered", e.Name)
}

func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateName
}

// NotFoundError is returned when an operation name is not registered.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("operation %q not found", e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ContractMismatchError reports the first adjacent pair of a priority ordered plan
// whose kinds do not chain. AtIndex is the plan index of the consumer, the producer
// is the upstream predictor when AtIndex is 0.
type ContractMismatchError struct {
	AtIndex      int
	Producer     string
	Consumer     string
	ProducerKind model.Kind
	ConsumerKind model.Kind
}

func (e *ContractMismatchError) Error() string {
	return fmt.Sprintf("step %d: %q produces %s but %q expects %s",
		e.AtIndex, e.Producer, e.ProducerKind, e.Consumer, e.ConsumerKind)
}

func (e *ContractMismatchError) Is(target error) bool {
	return target == ErrContractMismatch
}

// UnresolvedParameterError is returned before any operation runs when a tunable
// parameter has no value.
type UnresolvedParameterError struct {
	Operation string
	Parameter string
}

func (e *UnresolvedParameterError) Error() string {
	return fmt.Sprintf("parameter %q of operation %q has no tuned value", e.Parameter, e.Operation)
}

func (e *UnresolvedParameterError) Is(target error) bool {
	return target == ErrUnresolvedParameter
}

// OperationExecutionError wraps the failure of a single operation. It halts the run.
type OperationExecutionError struct {
	Name  string
	Index int
	Cause error
}

func (e *OperationExecutionError) Error() string {
	return fmt.Sprintf("operation %q (step %d): %v", e.Name, e.Index, e.Cause)
}

func (e *OperationExecutionError) Is(target error) bool {
	return target == ErrOperationExecution
}

func (e *OperationExecutionError) Unwrap() error {
	return e.Cause
}
