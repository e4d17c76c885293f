package postprocess

import (
	"context"
	"iter"
	"sync"

	"github.com/pkg/errors"

	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

// State is the lifecycle state of a Pipeline.
type State int

const (
	// StateBuilding means the operation set changed since the last successful Resolve.
	StateBuilding State = iota
	// StateResolved means the pipeline holds a validated plan.
	StateResolved
)

func (s State) String() string {
	if s == StateResolved {
		return "resolved"
	}

	return "building"
}

// Pipeline owns the operations applied to the predictions of one predictor.
// Any change to the operation set drops the resolved plan, Run requires an
// explicit Resolve first.
type Pipeline struct {
	mu        sync.RWMutex
	opts      options
	predictor Predictor
	registry  *Registry
	plan      *Plan
	executor  *Executor
}

// New creates an empty pipeline for predictor.
func New(predictor Predictor, opts ...PipelineOption) (*Pipeline, error) {
	if predictor == nil {
		return nil, ErrPredictorMustBeSet
	}

	o := newOptions(opts...)

	return &Pipeline{
		opts:      o,
		predictor: predictor,
		registry:  NewRegistry(),
		executor:  &Executor{opts: o},
	}, nil
}

func (p *Pipeline) Predictor() Predictor {
	return p.predictor
}

func (p *Pipeline) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.plan == nil {
		return StateBuilding
	}

	return StateResolved
}

// Add registers op. It fails with a DuplicateNameError if the name is taken.
func (p *Pipeline) Add(op Operation) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.registry.Add(op)
	if err != nil {
		return err
	}

	p.plan = nil
	p.opts.logger.Debug().Str("operation", op.Name()).Str("type", op.Type()).Float64("priority", op.Priority()).Msg("operation added")

	return nil
}

// Update replaces the operation registered as name.
func (p *Pipeline) Update(name string, op Operation) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.registry.Update(name, op)
	if err != nil {
		return err
	}

	p.plan = nil
	p.opts.logger.Debug().Str("operation", name).Str("replacement", op.Name()).Msg("operation updated")

	return nil
}

// Remove drops the operation registered as name.
func (p *Pipeline) Remove(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.registry.Remove(name)
	if err != nil {
		return err
	}

	p.plan = nil
	p.opts.logger.Debug().Str("operation", name).Msg("operation removed")

	return nil
}

func (p *Pipeline) Get(name string) (Operation, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.registry.Get(name)
}

func (p *Pipeline) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.registry.Len()
}

// List yields the operations in registration order, as registered when List was called.
func (p *Pipeline) List() iter.Seq[Operation] {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return listOf(p.registry.snapshot())
}

// Tunables lists the placeholder parameters in registration order.
func (p *Pipeline) Tunables() []Tunable {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []Tunable
	for op := range p.registry.List() {
		out = append(out, tunables(op)...)
	}

	return out
}

// Resolve validates the operations and stores the resulting plan.
// On failure the pipeline stays in StateBuilding.
func (p *Pipeline) Resolve() (*Plan, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	plan, err := Resolve(p.predictor, p.registry)
	if err != nil {
		p.plan = nil
		p.opts.logger.Debug().Err(err).Msg("resolve failed")

		return nil, err
	}

	p.plan = plan
	p.opts.logger.Debug().Strs("plan", plan.Names()).Msg("pipeline resolved")

	return plan, nil
}

// Plan returns the resolved plan, or ErrNotResolved.
func (p *Pipeline) Plan() (*Plan, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.plan == nil {
		return nil, ErrNotResolved
	}

	return p.plan, nil
}

// Run applies the resolved plan to in. It does not change the pipeline state.
func (p *Pipeline) Run(ctx context.Context, in *model.Table, values Values) (*Result, error) {
	plan, err := p.Plan()
	if err != nil {
		return nil, errors.Wrap(err, "unable to run")
	}

	return p.executor.Run(ctx, plan, in, values)
}

// RunBatches applies the resolved plan to independent tables concurrently.
func (p *Pipeline) RunBatches(ctx context.Context, tables []*model.Table, values Values) ([]*Result, error) {
	plan, err := p.Plan()
	if err != nil {
		return nil, errors.Wrap(err, "unable to run")
	}

	return p.executor.RunBatches(ctx, plan, tables, values)
}
