package tune

import (
	"iter"

	"github.com/pkg/errors"

	"github.com/askiada/go-postprocess/pkg/postprocess"
)

var ErrMissingCandidates = errors.New("no candidate values for tunable")

type dimension struct {
	id         string
	refs       []postprocess.ParamRef
	candidates []any
}

// Grid is the cartesian product of candidate values. Tunables sharing an ID
// always receive the same value.
type Grid struct {
	dims []dimension
}

// NewGrid builds a grid over tunables, candidates are keyed by tunable ID.
// Dimensions follow the order in which IDs first appear in tunables.
func NewGrid(tunables []postprocess.Tunable, candidates map[string][]any) (*Grid, error) {
	g := &Grid{}
	index := make(map[string]int)

	for _, tun := range tunables {
		if i, ok := index[tun.ID]; ok {
			g.dims[i].refs = append(g.dims[i].refs, tun.ParamRef)

			continue
		}

		values := candidates[tun.ID]
		if len(values) == 0 {
			return nil, errors.Wrapf(ErrMissingCandidates, "%s (%s)", tun.ID, tun.ParamRef)
		}

		index[tun.ID] = len(g.dims)
		g.dims = append(g.dims, dimension{
			id:         tun.ID,
			refs:       []postprocess.ParamRef{tun.ParamRef},
			candidates: append([]any(nil), values...),
		})
	}

	return g, nil
}

// Size is the number of points of the grid. An empty grid has a single empty point.
func (g *Grid) Size() int {
	size := 1
	for _, d := range g.dims {
		size *= len(d.candidates)
	}

	return size
}

// All yields every point of the grid. The last dimension varies fastest.
func (g *Grid) All() iter.Seq[postprocess.Values] {
	return func(yield func(postprocess.Values) bool) {
		pos := make([]int, len(g.dims))

		for {
			values := make(postprocess.Values)
			for i, d := range g.dims {
				for _, ref := range d.refs {
					values[ref] = d.candidates[pos[i]]
				}
			}

			if !yield(values) {
				return
			}

			i := len(pos) - 1
			for ; i >= 0; i-- {
				pos[i]++
				if pos[i] < len(g.dims[i].candidates) {
					break
				}

				pos[i] = 0
			}

			if i < 0 {
				return
			}
		}
	}
}
