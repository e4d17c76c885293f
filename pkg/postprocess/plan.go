package postprocess

import (
	"iter"
	"sort"

	"github.com/pkg/errors"

	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

// Predictor is the upstream model whose predictions feed the first operation.
type Predictor interface {
	Name() string
	PredictionKind() model.Kind
}

type staticPredictor struct {
	name string
	kind model.Kind
}

func (p staticPredictor) Name() string {
	return p.name
}

func (p staticPredictor) PredictionKind() model.Kind {
	return p.kind
}

// NewPredictor declares an upstream model producing kind.
func NewPredictor(name string, kind model.Kind) (Predictor, error) {
	if name == "" {
		return nil, errors.Wrap(ErrPredictorMustBeSet, "name must be set")
	}

	if !kind.Concrete() {
		return nil, errors.Wrapf(model.ErrInvalidKind, "predictor %s: %q", name, kind)
	}

	return staticPredictor{name: name, kind: kind}, nil
}

// Plan is a validated, priority ordered sequence of operations. It is immutable
// and can be shared between goroutines.
type Plan struct {
	predictor Predictor
	ops       []Operation
	infos     []*model.OperationInfo
	output    model.Kind
}

// Resolve orders the operations of reg by priority, ties broken by registration
// order, and checks that every producer feeds a compatible consumer, starting
// with the predictor. It never reorders operations to satisfy a contract.
func Resolve(predictor Predictor, reg *Registry) (*Plan, error) {
	if predictor == nil {
		return nil, ErrPredictorMustBeSet
	}

	if reg == nil {
		return nil, errors.Wrap(ErrInvalidOperation, "registry must be set")
	}

	ops := reg.snapshot()
	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].Priority() < ops[j].Priority()
	})

	producer, kind := predictor.Name(), predictor.PredictionKind()
	for i, op := range ops {
		if !model.Compatible(kind, op.InputKind()) {
			return nil, &ContractMismatchError{
				AtIndex:      i,
				Producer:     producer,
				Consumer:     op.Name(),
				ProducerKind: kind,
				ConsumerKind: op.InputKind(),
			}
		}

		// a step declared to output any passes its input kind through
		producer = op.Name()
		if op.OutputKind() != model.KindAny {
			kind = op.OutputKind()
		}
	}

	plan := &Plan{
		predictor: predictor,
		ops:       ops,
		infos:     make([]*model.OperationInfo, len(ops)),
		output:    kind,
	}
	for i, op := range ops {
		plan.infos[i] = &model.OperationInfo{
			Name:     op.Name(),
			Type:     op.Type(),
			Index:    i,
			Priority: op.Priority(),
			Input:    op.InputKind(),
			Output:   op.OutputKind(),
		}
	}

	return plan, nil
}

func (p *Plan) Predictor() Predictor {
	return p.predictor
}

func (p *Plan) Len() int {
	return len(p.ops)
}

// Operation returns the i-th operation of the plan.
func (p *Plan) Operation(i int) (Operation, error) {
	if i < 0 || i >= len(p.ops) {
		return nil, errors.Wrapf(ErrStepOutOfRange, "%d", i)
	}

	return p.ops[i], nil
}

// Operations yields the operations in execution order.
func (p *Plan) Operations() iter.Seq[Operation] {
	return listOf(p.ops)
}

// Names returns the operation names in execution order.
func (p *Plan) Names() []string {
	names := make([]string, len(p.ops))
	for i, op := range p.ops {
		names[i] = op.Name()
	}

	return names
}

// Info returns a description of every step, in execution order.
func (p *Plan) Info() []*model.OperationInfo {
	out := make([]*model.OperationInfo, len(p.infos))
	for i, info := range p.infos {
		cp := *info
		out[i] = &cp
	}

	return out
}

// PredictorInfo describes the predictor as the virtual step before the first operation.
func (p *Plan) PredictorInfo() *model.OperationInfo {
	kind := p.predictor.PredictionKind()

	return &model.OperationInfo{
		Name:   p.predictor.Name(),
		Type:   "predictor",
		Index:  -1,
		Input:  kind,
		Output: kind,
	}
}

// OutputKind is the kind of the tables the plan produces. Steps declared to
// output any keep the kind they receive.
func (p *Plan) OutputKind() model.Kind {
	return p.output
}

// Tunables lists the placeholder parameters in execution order.
func (p *Plan) Tunables() []Tunable {
	var out []Tunable
	for _, op := range p.ops {
		out = append(out, tunables(op)...)
	}

	return out
}

// bind checks every tunable parameter from step start before anything runs.
func (p *Plan) bind(start int, values Values) ([]Args, error) {
	args := make([]Args, len(p.ops))
	for i := start; i < len(p.ops); i++ {
		a, err := bindArgs(p.ops[i], values)
		if err != nil {
			return nil, err
		}

		args[i] = a
	}

	return args, nil
}
