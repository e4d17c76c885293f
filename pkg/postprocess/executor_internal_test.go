package postprocess

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

type fakeOperation struct {
	base
	in, out model.Kind
	result  *model.Table
}

func (*fakeOperation) Type() string {
	return "fake"
}

func (f *fakeOperation) InputKind() model.Kind {
	return f.in
}

func (f *fakeOperation) OutputKind() model.Kind {
	return f.out
}

func (f *fakeOperation) Apply(_ context.Context, _ *model.Table, _ Args) (*model.Table, error) {
	return f.result, nil
}

func regressionTable(t *testing.T) *model.Table {
	t.Helper()

	tbl, err := model.NewRegression(model.Row{ID: "a", Value: 1})
	require.NoError(t, err)

	return tbl
}

func TestApplyChecksOutput(t *testing.T) {
	t.Parallel()

	predictions, err := model.NewClassPredictions([]string{"no", "yes"}, model.Row{ID: "a", Class: "yes"})
	require.NoError(t, err)

	tcs := map[string]struct {
		op      *fakeOperation
		wantErr error
	}{
		"undeclared kind": {
			op:      &fakeOperation{base: base{name: "fake"}, in: model.KindRegressionPredictions, out: model.KindRegressionPredictions, result: predictions},
			wantErr: ErrOutputKind,
		},
		"any accepts every kind": {
			op: &fakeOperation{base: base{name: "fake"}, in: model.KindAny, out: model.KindAny, result: predictions},
		},
		"no table": {
			op: &fakeOperation{base: base{name: "fake"}, in: model.KindAny, out: model.KindAny},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			reg := NewRegistry()
			require.NoError(t, reg.Add(tc.op))

			pred, err := NewPredictor("glm", model.KindRegressionPredictions)
			require.NoError(t, err)

			plan, err := Resolve(pred, reg)
			require.NoError(t, err)

			res, err := NewExecutor().Run(context.Background(), plan, regressionTable(t), nil)

			switch {
			case tc.wantErr != nil:
				require.ErrorIs(t, err, tc.wantErr)
				require.ErrorIs(t, err, ErrOperationExecution)
			case tc.op.result == nil:
				require.ErrorIs(t, err, ErrOperationExecution)
				assert.Contains(t, err.Error(), "no table")
			default:
				require.NoError(t, err)
				assert.Same(t, tc.op.result, res.Output)
			}
		})
	}
}

func TestRegistryRejectsInvalidOperation(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()

	err := reg.Add(&fakeOperation{base: base{name: "fake"}, in: "image", out: model.KindAny})
	require.ErrorIs(t, err, ErrInvalidOperation)

	err = reg.Add(&fakeOperation{in: model.KindAny, out: model.KindAny})
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestBindArgs(t *testing.T) {
	t.Parallel()

	op := &fakeOperation{base: base{name: "fake"}, in: model.KindAny, out: model.KindAny}
	op.params = op.params.With("fixed", Fixed(1.0)).With("tuned", Tune("knob")).With("unset", Param{})

	assert.Equal(t, []string{"fixed", "tuned"}, op.Params().Names())
	assert.Equal(t, []Tunable{{ParamRef: ParamRef{Operation: "fake", Parameter: "tuned"}, ID: "knob"}}, tunables(op))

	_, err := bindArgs(op, Values{}.Set("fake", "knob", 2.0))
	require.ErrorIs(t, err, ErrUnresolvedParameter)

	args, err := bindArgs(op, Values{}.Set("fake", "tuned", 2.0))
	require.NoError(t, err)

	f, err := args.Float("fixed")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, f, 0)

	f, err = args.Float("tuned")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, f, 0)

	_, err = args.Float("missing")
	require.ErrorIs(t, err, ErrInvalidParameter)

	s, err := args.StringOr("missing", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", s)
}

func TestRunChecksKindBeforeEveryStep(t *testing.T) {
	t.Parallel()

	predictions, err := model.NewClassPredictions([]string{"no", "yes"}, model.Row{ID: "a", Class: "yes"})
	require.NoError(t, err)

	reg := NewRegistry()
	require.NoError(t, reg.Add(&fakeOperation{base: base{name: "relabel"}, in: model.KindAny, out: model.KindAny, result: predictions}))
	require.NoError(t, reg.Add(&fakeOperation{base: base{name: "scale"}, in: model.KindRegressionPredictions, out: model.KindRegressionPredictions}))

	pred, err := NewPredictor("glm", model.KindRegressionPredictions)
	require.NoError(t, err)

	plan, err := Resolve(pred, reg)
	require.NoError(t, err)
	assert.Equal(t, model.KindRegressionPredictions, plan.OutputKind())

	_, err = NewExecutor().Run(context.Background(), plan, regressionTable(t), nil)
	require.ErrorIs(t, err, ErrOperationExecution)
	require.ErrorIs(t, err, ErrPredictionKind)

	var execErr *OperationExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "scale", execErr.Name)
	assert.Equal(t, 1, execErr.Index)
}
