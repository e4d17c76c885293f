package postprocess

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

// Result holds the output of a run and the table produced by every step.
type Result struct {
	RunID string
	// Start is the plan index of the first executed step.
	Start  int
	Input  *model.Table
	Steps  []*model.Table
	Output *model.Table
}

// Step returns the table produced by the plan step i.
func (r *Result) Step(i int) (*model.Table, error) {
	if i < r.Start || i >= r.Start+len(r.Steps) {
		return nil, errors.Wrapf(ErrStepOutOfRange, "%d", i)
	}

	return r.Steps[i-r.Start], nil
}

// Executor applies resolved plans to prediction tables.
// It keeps no state between runs and is safe for concurrent use.
type Executor struct {
	opts options
}

func NewExecutor(opts ...PipelineOption) *Executor {
	return &Executor{opts: newOptions(opts...)}
}

// Run applies every step of plan to in.
func (e *Executor) Run(ctx context.Context, plan *Plan, in *model.Table, values Values) (*Result, error) {
	return e.RunFrom(ctx, plan, 0, in, values)
}

// RunFrom applies the steps of plan starting at step start. in must be the table
// step start-1 produced, e.g. an intermediate table of a previous Result.
func (e *Executor) RunFrom(ctx context.Context, plan *Plan, start int, in *model.Table, values Values) (*Result, error) {
	if plan == nil {
		return nil, ErrPlanMustBeSet
	}

	if in == nil {
		return nil, ErrInputMustBeSet
	}

	if start < 0 || start > plan.Len() {
		return nil, errors.Wrapf(ErrStepOutOfRange, "%d", start)
	}

	args, err := plan.bind(start, values)
	if err != nil {
		return nil, err
	}

	parent := plan.PredictorInfo()
	if start > 0 {
		parent = plan.infos[start-1]
	}

	if !model.Compatible(parent.Output, in.Kind()) {
		return nil, errors.Wrapf(ErrPredictionKind, "%s produces %s, got %s", parent.Name, parent.Output, in.Kind())
	}

	if start < plan.Len() && !model.Compatible(in.Kind(), plan.infos[start].Input) {
		return nil, errors.Wrapf(ErrPredictionKind, "%s expects %s, got %s", plan.infos[start].Name, plan.infos[start].Input, in.Kind())
	}

	runID := uuid.NewString()
	logger := e.opts.logger.With().Str("run_id", runID).Logger()

	ctx, span := e.opts.tracer.Start(ctx, "postprocess.run",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.String("predictor", plan.predictor.Name()),
			attribute.Int("steps", plan.Len()-start),
			attribute.Int("rows", in.Len()),
		),
	)
	defer span.End()

	startTime := time.Now()
	res := &Result{
		RunID: runID,
		Start: start,
		Input: in,
		Steps: make([]*model.Table, 0, plan.Len()-start),
	}

	logger.Debug().Int("start", start).Int("rows", in.Len()).Msg("run started")

	cur := in
	for i := start; i < plan.Len(); i++ {
		err := ctx.Err()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "run cancelled")

			return nil, errors.Wrapf(err, "run cancelled before step %d", i)
		}

		info := plan.infos[i]

		var (
			out     *model.Table
			elapsed time.Duration
		)

		if model.Compatible(cur.Kind(), info.Input) {
			out, elapsed, err = e.apply(ctx, plan.ops[i], info, cur, args[i])
		} else {
			err = errors.Wrapf(ErrPredictionKind, "expects %s, got %s", info.Input, cur.Kind())
		}

		if err != nil {
			opErr := &OperationExecutionError{Name: info.Name, Index: i, Cause: err}
			span.RecordError(opErr)
			span.SetStatus(codes.Error, "operation failed")
			logger.Warn().Err(err).Str("operation", info.Name).Int("step", i).Msg("operation failed")

			for _, obs := range e.opts.observers {
				obsErr := obs.OnOperationError(info, err)
				if obsErr != nil {
					logger.Warn().Err(obsErr).Msg("unable to report operation error")
				}
			}

			return nil, opErr
		}

		for _, obs := range e.opts.observers {
			err := obs.OnOperationOutput(parent, info, out.Len(), elapsed)
			if err != nil {
				return nil, errors.Wrap(err, "unable to run observer")
			}
		}

		logger.Debug().Str("operation", info.Name).Int("step", i).Dur("elapsed", elapsed).Msg("operation applied")

		res.Steps = append(res.Steps, out)
		cur = out
		parent = info
	}

	res.Output = cur

	total := time.Since(startTime)
	for _, obs := range e.opts.observers {
		err := obs.AfterRun(plan.Info(), total)
		if err != nil {
			return nil, errors.Wrap(err, "unable to finish observer")
		}
	}

	logger.Debug().Dur("elapsed", total).Int("rows", cur.Len()).Msg("run finished")

	return res, nil
}

func (e *Executor) apply(ctx context.Context, op Operation, info *model.OperationInfo, in *model.Table, args Args) (*model.Table, time.Duration, error) {
	ctx, span := e.opts.tracer.Start(ctx, "postprocess.operation",
		trace.WithAttributes(
			attribute.String("operation", info.Name),
			attribute.String("type", info.Type),
			attribute.Int("step", info.Index),
		),
	)
	defer span.End()

	startFn := time.Now()
	out, err := op.Apply(ctx, in, args)
	elapsed := time.Since(startFn)

	if err == nil && out == nil {
		err = errors.New("operation returned no table")
	}

	if err == nil && info.Output != model.KindAny && out.Kind() != info.Output {
		err = errors.Wrapf(ErrOutputKind, "declared %s, got %s", info.Output, out.Kind())
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")

		return nil, elapsed, err
	}

	return out, elapsed, nil
}

// RunBatches runs independent batches against the same plan, at most
// PipelineConcurrency at a time. Results keep the order of tables and the first
// error cancels the remaining batches.
func (e *Executor) RunBatches(ctx context.Context, plan *Plan, tables []*model.Table, values Values) ([]*Result, error) {
	if plan == nil {
		return nil, ErrPlanMustBeSet
	}

	_, err := plan.bind(0, values)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, len(tables))

	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(e.opts.concurrency)

	for i, tbl := range tables {
		errGrp.Go(func() error {
			res, err := e.Run(dCtx, plan, tbl, values)
			if err != nil {
				return errors.Wrapf(err, "batch %d", i)
			}

			results[i] = res

			return nil
		})
	}

	err = errGrp.Wait()
	if err != nil {
		return nil, err
	}

	return results, nil
}
