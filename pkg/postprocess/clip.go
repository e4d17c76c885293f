package postprocess

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

// ClipConfig configures a Clip operation. An unset bound is unbounded.
type ClipConfig struct {
	Lower Param
	Upper Param
}

// Clip bounds numeric predictions to [Lower, Upper].
type Clip struct {
	base
}

func NewClip(name string, priority float64, cfg ClipConfig) (*Clip, error) {
	b, err := newBase(name, priority)
	if err != nil {
		return nil, err
	}

	if cfg.Lower.IsZero() && cfg.Upper.IsZero() {
		return nil, errors.Wrapf(ErrInvalidParameter, "%s: lower or upper must be set", name)
	}

	for pname, p := range map[string]Param{"lower": cfg.Lower, "upper": cfg.Upper} {
		err := fixedFloat(pname, p, nil)
		if err != nil {
			return nil, errors.Wrap(err, name)
		}
	}

	b.params = b.params.With("lower", cfg.Lower).With("upper", cfg.Upper)

	return &Clip{base: b}, nil
}

func (*Clip) Type() string {
	return "clip"
}

func (*Clip) InputKind() model.Kind {
	return model.KindRegressionPredictions
}

func (*Clip) OutputKind() model.Kind {
	return model.KindRegressionPredictions
}

func (c *Clip) Apply(_ context.Context, in *model.Table, args Args) (*model.Table, error) {
	lower, err := args.FloatOr("lower", math.Inf(-1))
	if err != nil {
		return nil, err
	}

	upper, err := args.FloatOr("upper", math.Inf(1))
	if err != nil {
		return nil, err
	}

	if math.IsNaN(lower) || math.IsNaN(upper) || math.IsInf(lower, 1) || math.IsInf(upper, -1) {
		return nil, errors.Wrapf(ErrInvalidParameter, "bounds [%v, %v] must be finite", lower, upper)
	}

	if lower > upper {
		return nil, errors.Wrapf(ErrInvalidParameter, "lower %v is greater than upper %v", lower, upper)
	}

	return in.Map(model.KindRegressionPredictions, func(_ int, row model.Row) (model.Row, error) {
		row.Value = math.Min(math.Max(row.Value, lower), upper)

		return row, nil
	})
}
