package postprocess_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-postprocess/pkg/postprocess"
	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

func TestNewNilPredictor(t *testing.T) {
	t.Parallel()

	_, err := postprocess.New(nil)
	require.ErrorIs(t, err, postprocess.ErrPredictorMustBeSet)
}

func TestPipelineStateMachine(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	values := postprocess.Values{}.Set("cut", "threshold", 0.7)

	pipe, err := postprocess.New(predictor(t, model.KindClassProbabilities))
	require.NoError(t, err)
	assert.Equal(t, postprocess.StateBuilding, pipe.State())

	_, err = pipe.Run(ctx, probabilities(t, 0.5), values)
	require.ErrorIs(t, err, postprocess.ErrNotResolved)

	require.NoError(t, pipe.Add(threshold(t, "cut", 2, postprocess.Tune(""))))
	_, err = pipe.Resolve()
	require.NoError(t, err)
	assert.Equal(t, postprocess.StateResolved, pipe.State())

	_, err = pipe.Run(ctx, probabilities(t, 0.5), values)
	require.NoError(t, err)
	assert.Equal(t, postprocess.StateResolved, pipe.State())

	require.NoError(t, pipe.Add(calibration(t, "calibrate", 3)))
	assert.Equal(t, postprocess.StateBuilding, pipe.State())

	_, err = pipe.Plan()
	require.ErrorIs(t, err, postprocess.ErrNotResolved)

	_, err = pipe.Resolve()
	require.ErrorIs(t, err, postprocess.ErrContractMismatch)
	assert.Equal(t, postprocess.StateBuilding, pipe.State())

	require.NoError(t, pipe.Update("calibrate", calibration(t, "calibrate", 1)))
	plan, err := pipe.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []string{"calibrate", "cut"}, plan.Names())

	require.ErrorIs(t, pipe.Update("missing", calibration(t, "missing", 1)), postprocess.ErrNotFound)
	assert.Equal(t, postprocess.StateResolved, pipe.State())

	require.NoError(t, pipe.Remove("calibrate"))
	assert.Equal(t, postprocess.StateBuilding, pipe.State())

	_, err = pipe.Run(ctx, probabilities(t, 0.5), values)
	require.ErrorIs(t, err, postprocess.ErrNotResolved)
}

func TestPipelineFailedMutationKeepsState(t *testing.T) {
	t.Parallel()

	pipe := resolvedPipeline(t)

	require.ErrorIs(t, pipe.Add(calibration(t, "calibrate", 5)), postprocess.ErrDuplicateName)
	require.ErrorIs(t, pipe.Remove("missing"), postprocess.ErrNotFound)
	assert.Equal(t, postprocess.StateResolved, pipe.State())
}

func TestPipelineThresholdExample(t *testing.T) {
	t.Parallel()

	for name, order := range map[string][]string{"calibration first": {"calibrate", "cut"}, "threshold first": {"cut", "calibrate"}} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pipe, err := postprocess.New(predictor(t, model.KindClassProbabilities))
			require.NoError(t, err)

			for _, opName := range order {
				if opName == "cut" {
					require.NoError(t, pipe.Add(threshold(t, "cut", 2, postprocess.Fixed(0.7))))
				} else {
					require.NoError(t, pipe.Add(calibration(t, "calibrate", 1)))
				}
			}

			plan, err := pipe.Resolve()
			require.NoError(t, err)
			assert.Equal(t, []string{"calibrate", "cut"}, plan.Names())

			res, err := pipe.Run(context.Background(), probabilities(t, 0.62, 0.81), nil)
			require.NoError(t, err)
			assert.Equal(t, []string{"negative", "positive"}, classes(t, res.Output))
			assert.Equal(t, model.KindClassPredictions, res.Output.Kind())
		})
	}
}

func TestPipelineListAndGet(t *testing.T) {
	t.Parallel()

	pipe := resolvedPipeline(t)
	assert.Equal(t, []string{"cut", "calibrate"}, names(pipe))
	assert.Equal(t, 2, pipe.Len())

	seq := pipe.List()
	require.NoError(t, pipe.Remove("cut"))
	assert.Equal(t, []string{"cut", "calibrate"}, func() []string {
		var out []string
		for op := range seq {
			out = append(out, op.Name())
		}

		return out
	}())

	op, err := pipe.Get("calibrate")
	require.NoError(t, err)
	assert.Equal(t, "calibration", op.Type())
}

func TestPipelineTunables(t *testing.T) {
	t.Parallel()

	pipe := resolvedPipeline(t)
	assert.Equal(t, []postprocess.Tunable{
		{ParamRef: postprocess.ParamRef{Operation: "cut", Parameter: "threshold"}, ID: "threshold"},
	}, pipe.Tunables())
}

func TestPipelineUnresolvedParameter(t *testing.T) {
	t.Parallel()

	obs := &countingObserver{}
	pipe := resolvedPipeline(t, postprocess.PipelineObserver(obs))

	tcs := map[string]postprocess.Values{
		"no values":   nil,
		"nil value":   postprocess.Values{}.Set("cut", "threshold", nil),
		"other op":    postprocess.Values{}.Set("calibrate", "threshold", 0.5),
		"other param": postprocess.Values{}.Set("cut", "buffer", 0.5),
	}

	for name, values := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := pipe.Run(context.Background(), probabilities(t, 0.3), values)
			require.ErrorIs(t, err, postprocess.ErrUnresolvedParameter)

			var upErr *postprocess.UnresolvedParameterError
			require.True(t, errors.As(err, &upErr))
			assert.Equal(t, "cut", upErr.Operation)
			assert.Equal(t, "threshold", upErr.Parameter)
		})
	}

	t.Cleanup(func() {
		assert.Empty(t, obs.outputs)
		assert.Empty(t, obs.errors)
	})
}

func TestPipelineLogs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	pipe := resolvedPipeline(t, postprocess.PipelineLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))

	_, err := pipe.Run(context.Background(), probabilities(t, 0.3), postprocess.Values{}.Set("cut", "threshold", 0.5))
	require.NoError(t, err)

	logs := buf.String()
	assert.Contains(t, logs, `"message":"pipeline resolved"`)
	assert.Contains(t, logs, `"plan":["calibrate","cut"]`)
	assert.Contains(t, logs, `"message":"run finished"`)
	assert.Contains(t, logs, `"run_id":`)
}
