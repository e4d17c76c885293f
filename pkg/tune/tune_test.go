package tune_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-postprocess/pkg/postprocess"
	"github.com/askiada/go-postprocess/pkg/postprocess/model"
	"github.com/askiada/go-postprocess/pkg/tune"
)

func ref(op, param string) postprocess.ParamRef {
	return postprocess.ParamRef{Operation: op, Parameter: param}
}

func TestGridOrder(t *testing.T) {
	t.Parallel()

	tunables := []postprocess.Tunable{
		{ParamRef: ref("zone", "threshold"), ID: "threshold"},
		{ParamRef: ref("zone", "buffer"), ID: "buffer"},
	}

	grid, err := tune.NewGrid(tunables, map[string][]any{
		"threshold": {0.4, 0.5},
		"buffer":    {0.0, 0.1, 0.2},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, grid.Size())

	var got [][2]any
	for values := range grid.All() {
		got = append(got, [2]any{values[ref("zone", "threshold")], values[ref("zone", "buffer")]})
	}

	assert.Equal(t, [][2]any{
		{0.4, 0.0}, {0.4, 0.1}, {0.4, 0.2},
		{0.5, 0.0}, {0.5, 0.1}, {0.5, 0.2},
	}, got)

	var first []postprocess.Values
	for values := range grid.All() {
		first = append(first, values)
		if len(first) == 2 {
			break
		}
	}
	assert.Len(t, first, 2)
}

func TestGridSharedID(t *testing.T) {
	t.Parallel()

	tunables := []postprocess.Tunable{
		{ParamRef: ref("a", "threshold"), ID: "cut"},
		{ParamRef: ref("b", "threshold"), ID: "cut"},
	}

	grid, err := tune.NewGrid(tunables, map[string][]any{"cut": {0.3, 0.6}})
	require.NoError(t, err)
	assert.Equal(t, 2, grid.Size())

	for values := range grid.All() {
		assert.Equal(t, values[ref("a", "threshold")], values[ref("b", "threshold")])
	}
}

func TestGridEdgeCases(t *testing.T) {
	t.Parallel()

	_, err := tune.NewGrid([]postprocess.Tunable{{ParamRef: ref("a", "b"), ID: "b"}}, nil)
	require.ErrorIs(t, err, tune.ErrMissingCandidates)

	grid, err := tune.NewGrid(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, grid.Size())

	count := 0
	for values := range grid.All() {
		assert.Empty(t, values)
		count++
	}
	assert.Equal(t, 1, count)
}

func TestSearch(t *testing.T) {
	t.Parallel()

	pred, err := postprocess.NewPredictor("glm", model.KindClassProbabilities)
	require.NoError(t, err)

	cut, err := postprocess.NewThreshold("cut", 1, postprocess.ThresholdConfig{Threshold: postprocess.Tune("")})
	require.NoError(t, err)

	reg := postprocess.NewRegistry()
	require.NoError(t, reg.Add(cut))

	plan, err := postprocess.Resolve(pred, reg)
	require.NoError(t, err)

	truth := []string{"no", "no", "yes", "yes"}
	positives := []float64{0.2, 0.45, 0.55, 0.9}

	rows := make([]model.Row, len(positives))
	for i, p := range positives {
		rows[i] = model.Row{ID: truth[i], Probabilities: map[string]float64{"no": 1 - p, "yes": p}}
	}

	in, err := model.NewProbabilities([]string{"no", "yes"}, rows...)
	require.NoError(t, err)

	grid, err := tune.NewGrid(plan.Tunables(), map[string][]any{"threshold": {0.1, 0.3, 0.5, 0.7, 0.95}})
	require.NoError(t, err)

	accuracy := func(res *postprocess.Result) (float64, error) {
		hits := 0
		for _, row := range res.Output.Rows() {
			if row.Class == row.ID {
				hits++
			}
		}

		return float64(hits) / float64(res.Output.Len()), nil
	}

	best, err := tune.Search(context.Background(), postprocess.NewExecutor(), plan, in, grid, accuracy)
	require.NoError(t, err)
	assert.Equal(t, 5, best.Tried)
	assert.InDelta(t, 1.0, best.Score, 0)
	assert.Equal(t, 0.5, best.Values[ref("cut", "threshold")])

	bad, err := tune.NewGrid(plan.Tunables(), map[string][]any{"threshold": {"high"}})
	require.NoError(t, err)

	_, err = tune.Search(context.Background(), postprocess.NewExecutor(), plan, in, bad, accuracy)
	require.ErrorIs(t, err, postprocess.ErrInvalidParameter)
}

func TestValuesEncoding(t *testing.T) {
	t.Parallel()

	values := postprocess.Values{}.Set("cut", "threshold", 0.7).Set("my.zone", "buffer", 0.1)
	assert.Equal(t, map[string]any{"cut.threshold": 0.7, "my.zone.buffer": 0.1}, tune.Flatten(values))

	var buf bytes.Buffer
	require.NoError(t, tune.EncodeValues(&buf, values))

	decoded, err := tune.DecodeValues(&buf)
	require.NoError(t, err)
	assert.Equal(t, values, decoded)

	for _, key := range []string{"threshold", ".threshold", "cut."} {
		_, err := tune.Unflatten(map[string]any{key: 1})
		require.ErrorIs(t, err, tune.ErrInvalidKey, key)
	}

	_, err = tune.DecodeValues(bytes.NewBufferString("[1, 2]"))
	require.Error(t, err)
}

func TestBoltStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "values.db")

	store, err := tune.OpenBoltStore(path)
	require.NoError(t, err)

	_, err = store.Load("churn")
	require.ErrorIs(t, err, tune.ErrNoValues)

	values := postprocess.Values{}.Set("cut", "threshold", 0.7)
	require.NoError(t, store.Save("churn", values))
	require.NoError(t, store.Save("price", postprocess.Values{}.Set("bound", "upper", 100.0)))
	require.ErrorIs(t, store.Save("", values), postprocess.ErrPipelineMustBeSet)

	names, err := store.Pipelines()
	require.NoError(t, err)
	assert.Equal(t, []string{"churn", "price"}, names)

	require.NoError(t, store.Close())

	store, err = tune.OpenBoltStore(path)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	loaded, err := store.Load("churn")
	require.NoError(t, err)
	assert.Equal(t, values, loaded)

	require.NoError(t, store.Delete("churn"))

	_, err = store.Load("churn")
	require.ErrorIs(t, err, tune.ErrNoValues)
}
