package tune

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/askiada/go-postprocess/pkg/postprocess"
	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

// Scorer rates the result of a run, higher is better.
type Scorer func(res *postprocess.Result) (float64, error)

// Best is the outcome of a Search.
type Best struct {
	Values postprocess.Values
	Score  float64
	Tried  int
}

// Search runs plan on in for every point of grid and keeps the best scoring
// values. Ties keep the first point.
func Search(ctx context.Context, exec *postprocess.Executor, plan *postprocess.Plan, in *model.Table, grid *Grid, score Scorer) (*Best, error) {
	best := &Best{Score: math.Inf(-1)}

	for values := range grid.All() {
		res, err := exec.Run(ctx, plan, in, values)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run candidate")
		}

		s, err := score(res)
		if err != nil {
			return nil, errors.Wrap(err, "unable to score candidate")
		}

		best.Tried++

		if best.Values == nil || s > best.Score {
			best.Values = values
			best.Score = s
		}
	}

	return best, nil
}
