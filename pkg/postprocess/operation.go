package postprocess

import (
	"context"
	"math"
	"reflect"

	"github.com/pkg/errors"

	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

// Operation is a post-processing transformation.
// The set of operations is closed: Calibration, Threshold, EquivocalZone, Mutate and Clip.
type Operation interface {
	Name() string
	// Type is the short name of the variant, e.g. "threshold".
	Type() string
	// Priority orders operations, lower values run earlier.
	Priority() float64
	InputKind() model.Kind
	OutputKind() model.Kind
	Params() Params
	// Apply returns a new table, in is never modified.
	Apply(ctx context.Context, in *model.Table, args Args) (*model.Table, error)

	operation()
}

type base struct {
	name     string
	priority float64
	params   Params
}

func newBase(name string, priority float64) (base, error) {
	if name == "" {
		return base{}, errors.Wrap(ErrInvalidOperation, "name must be set")
	}

	if math.IsNaN(priority) {
		return base{}, errors.Wrapf(ErrInvalidOperation, "%s: priority is NaN", name)
	}

	return base{name: name, priority: priority}, nil
}

func (b *base) Name() string {
	return b.name
}

func (b *base) Priority() float64 {
	return b.priority
}

func (b *base) Params() Params {
	return b.params
}

func (b *base) operation() {}

func checkOperation(op Operation) error {
	if op == nil {
		return errors.Wrap(ErrInvalidOperation, "operation must be set")
	}

	if v := reflect.ValueOf(op); v.Kind() == reflect.Pointer && v.IsNil() {
		return errors.Wrapf(ErrInvalidOperation, "operation %T must be set", op)
	}

	if op.Name() == "" {
		return errors.Wrap(ErrInvalidOperation, "name must be set")
	}

	if math.IsNaN(op.Priority()) {
		return errors.Wrapf(ErrInvalidOperation, "%s: priority is NaN", op.Name())
	}

	if !op.InputKind().Valid() || !op.OutputKind().Valid() {
		return errors.Wrapf(ErrInvalidOperation, "%s: invalid kinds %q -> %q", op.Name(), op.InputKind(), op.OutputKind())
	}

	return nil
}

// fixedFloat validates a fixed numeric parameter at build time. Placeholders are checked at run time.
func fixedFloat(name string, p Param, check func(float64) bool) error {
	v, ok := p.Value()
	if !ok {
		return nil
	}

	args := Args{values: map[string]any{name: v}}

	f, err := args.Float(name)
	if err != nil {
		return err
	}

	if check != nil && !check(f) {
		return errors.Wrapf(ErrInvalidParameter, "%s: %v out of range", name, f)
	}

	return nil
}

func unitInterval(f float64) bool {
	return f >= 0 && f <= 1
}

func nonNegative(f float64) bool {
	return f >= 0
}
