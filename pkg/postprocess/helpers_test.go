package postprocess_test

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/askiada/go-postprocess/pkg/postprocess"
	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

var binary = []string{"negative", "positive"}

func probabilities(t *testing.T, positives ...float64) *model.Table {
	t.Helper()

	rows := make([]model.Row, len(positives))
	for i, p := range positives {
		rows[i] = model.Row{
			ID:            strconv.Itoa(i),
			Probabilities: map[string]float64{"negative": 1 - p, "positive": p},
		}
	}

	tbl, err := model.NewProbabilities(binary, rows...)
	require.NoError(t, err)

	return tbl
}

func classes(t *testing.T, tbl *model.Table) []string {
	t.Helper()

	out := make([]string, 0, tbl.Len())
	for _, row := range tbl.Rows() {
		out = append(out, row.Class)
	}

	return out
}

func predictor(t *testing.T, kind model.Kind) postprocess.Predictor {
	t.Helper()

	p, err := postprocess.NewPredictor("glm", kind)
	require.NoError(t, err)

	return p
}

func calibration(t *testing.T, name string, priority float64) *postprocess.Calibration {
	t.Helper()

	op, err := postprocess.NewCalibration(name, priority, postprocess.Identity{})
	require.NoError(t, err)

	return op
}

func threshold(t *testing.T, name string, priority float64, p postprocess.Param) *postprocess.Threshold {
	t.Helper()

	op, err := postprocess.NewThreshold(name, priority, postprocess.ThresholdConfig{Threshold: p})
	require.NoError(t, err)

	return op
}

func mutate(t *testing.T, name string, priority float64) *postprocess.Mutate {
	t.Helper()

	op, err := postprocess.NewMutate(name, priority, postprocess.MutateConfig{
		Columns: []postprocess.Column{{Name: name, Expr: "row.id"}},
	})
	require.NoError(t, err)

	return op
}

func clip(t *testing.T, name string, priority float64) *postprocess.Clip {
	t.Helper()

	op, err := postprocess.NewClip(name, priority, postprocess.ClipConfig{Lower: postprocess.Fixed(0)})
	require.NoError(t, err)

	return op
}

// resolvedPipeline registers calibrate(1) and cut(2) with a tunable threshold.
func resolvedPipeline(t *testing.T, opts ...postprocess.PipelineOption) *postprocess.Pipeline {
	t.Helper()

	pipe, err := postprocess.New(predictor(t, model.KindClassProbabilities), opts...)
	require.NoError(t, err)
	require.NoError(t, pipe.Add(threshold(t, "cut", 2, postprocess.Tune(""))))
	require.NoError(t, pipe.Add(calibration(t, "calibrate", 1)))

	_, err = pipe.Resolve()
	require.NoError(t, err)

	return pipe
}

type countingObserver struct {
	mu      sync.Mutex
	outputs []string
	errors  []string
	runs    int
}

func (o *countingObserver) OnOperationOutput(_, op *model.OperationInfo, _ int, _ time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.outputs = append(o.outputs, op.Name)

	return nil
}

func (o *countingObserver) OnOperationError(op *model.OperationInfo, _ error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.errors = append(o.errors, op.Name)

	return nil
}

func (o *countingObserver) AfterRun(_ []*model.OperationInfo, _ time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.runs++

	return nil
}
