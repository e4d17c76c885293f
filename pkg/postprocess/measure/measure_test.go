package measure_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-postprocess/pkg/postprocess"
	"github.com/askiada/go-postprocess/pkg/postprocess/measure"
	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

func table(t *testing.T, positives ...float64) *model.Table {
	t.Helper()

	rows := make([]model.Row, len(positives))
	for i, p := range positives {
		rows[i] = model.Row{Probabilities: map[string]float64{"no": 1 - p, "yes": p}}
	}

	tbl, err := model.NewProbabilities([]string{"no", "yes"}, rows...)
	require.NoError(t, err)

	return tbl
}

func pipeline(t *testing.T, obs model.Observer) *postprocess.Pipeline {
	t.Helper()

	pred, err := postprocess.NewPredictor("glm", model.KindClassProbabilities)
	require.NoError(t, err)

	pipe, err := postprocess.New(pred, postprocess.PipelineObserver(obs), postprocess.PipelineConcurrency(3))
	require.NoError(t, err)

	calibrate, err := postprocess.NewCalibration("calibrate", 1, nil)
	require.NoError(t, err)
	require.NoError(t, pipe.Add(calibrate))

	cut, err := postprocess.NewThreshold("cut", 2, postprocess.ThresholdConfig{Threshold: postprocess.Tune("")})
	require.NoError(t, err)
	require.NoError(t, pipe.Add(cut))

	_, err = pipe.Resolve()
	require.NoError(t, err)

	return pipe
}

func cutAt(v float64) postprocess.Values {
	return postprocess.Values{}.Set("cut", "threshold", v)
}

func TestDefaultMeasure(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	pipe := pipeline(t, measure.PipelineMeasure(msr))

	tables := []*model.Table{table(t, 0.1, 0.2), table(t, 0.3), table(t, 0.9, 0.8, 0.7)}
	_, err := pipe.RunBatches(context.Background(), tables, cutAt(0.5))
	require.NoError(t, err)

	all := msr.AllMetrics()
	require.Len(t, all, 3)

	calibrate := msr.GetMetric("calibrate")
	require.NotNil(t, calibrate)
	assert.Equal(t, int64(3), calibrate.Count())
	assert.Equal(t, map[string]measure.InputInfo{"glm": {Rows: 6, Total: 3}}, calibrate.AllInputs())

	cut := msr.GetMetric("cut")
	assert.Equal(t, map[string]measure.InputInfo{"calibrate": {Rows: 6, Total: 3}}, cut.AllInputs())
	assert.Equal(t, int64(0), cut.Errors())

	end := msr.GetMetric(model.EndOperation.Name)
	assert.Equal(t, int64(3), end.Count())
	assert.Positive(t, end.GetTotalDuration())

	_, err = pipe.Run(context.Background(), table(t, 0.5), cutAt(3))
	require.Error(t, err)
	assert.Equal(t, int64(1), msr.GetMetric("cut").Errors())
	assert.Equal(t, int64(4), msr.GetMetric("calibrate").Count())
}

func TestDefaultMetric(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	mt := msr.AddMetric("step")
	assert.Same(t, mt, msr.AddMetric("step"))
	assert.Equal(t, time.Duration(0), mt.AVGDuration())

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mt.AddDuration(2 * time.Second)
			mt.AddInput("parent", 5)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), mt.Count())
	assert.Equal(t, 2*time.Second, mt.AVGDuration())
	assert.Equal(t, measure.InputInfo{Rows: 50, Total: 10}, mt.AllInputs()["parent"])

	inputs := mt.AllInputs()
	delete(inputs, "parent")
	assert.Len(t, mt.AllInputs(), 1)
}

func TestPrometheus(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	prom := measure.NewPrometheusWithRegistry(registry)
	pipe := pipeline(t, prom)

	_, err := pipe.Run(context.Background(), table(t, 0.2, 0.7), cutAt(0.5))
	require.NoError(t, err)
	_, err = pipe.Run(context.Background(), table(t, 0.6), cutAt(0.5))
	require.NoError(t, err)
	_, err = pipe.Run(context.Background(), table(t, 0.6), cutAt(-1))
	require.Error(t, err)

	assert.InDelta(t, 3.0, testutil.ToFloat64(prom.OperationRows.WithLabelValues("cut")), 0)
	assert.InDelta(t, 4.0, testutil.ToFloat64(prom.OperationRows.WithLabelValues("calibrate")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(prom.OperationErrors.WithLabelValues("cut")), 0)
	assert.InDelta(t, 2.0, testutil.ToFloat64(prom.Runs), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(prom.OperationDuration))

	count, err := testutil.GatherAndCount(registry, "postprocess_run_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
