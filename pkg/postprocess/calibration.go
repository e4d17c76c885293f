package postprocess

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

// Calibrator adjusts the class probabilities of a single sample.
// The pipeline treats it as an opaque payload.
type Calibrator interface {
	Calibrate(levels []string, probs map[string]float64) (map[string]float64, error)
}

// Identity leaves probabilities untouched.
type Identity struct{}

func (Identity) Calibrate(_ []string, probs map[string]float64) (map[string]float64, error) {
	return probs, nil
}

const probEpsilon = 1e-12

// Platt rescales the event probability of a binary classifier on the logit scale:
// p' = sigmoid(A*logit(p) + B).
type Platt struct {
	A, B float64
	// EventLevel defaults to the second level.
	EventLevel string
}

func (c Platt) Calibrate(levels []string, probs map[string]float64) (map[string]float64, error) {
	if len(levels) != 2 {
		return nil, errors.Errorf("platt scaling needs two levels, got %d", len(levels))
	}

	event, other := levels[1], levels[0]
	if c.EventLevel != "" {
		if c.EventLevel == levels[0] {
			event, other = levels[0], levels[1]
		} else if c.EventLevel != levels[1] {
			return nil, errors.Wrapf(model.ErrUnknownLevel, "%q", c.EventLevel)
		}
	}

	p, ok := probs[event]
	if !ok {
		return nil, errors.Errorf("missing probability for %q", event)
	}

	p = math.Min(math.Max(p, probEpsilon), 1-probEpsilon)
	calibrated := 1 / (1 + math.Exp(-(c.A*math.Log(p/(1-p)) + c.B)))

	return map[string]float64{event: calibrated, other: 1 - calibrated}, nil
}

// Temperature rescales multiclass probabilities: p'_k is proportional to p_k^(1/T).
type Temperature struct {
	T float64
}

func (c Temperature) Calibrate(levels []string, probs map[string]float64) (map[string]float64, error) {
	if c.T <= 0 {
		return nil, errors.Errorf("temperature must be positive, got %v", c.T)
	}

	out := make(map[string]float64, len(levels))

	var total float64

	for _, level := range levels {
		p := math.Max(probs[level], 0)
		out[level] = math.Pow(p, 1/c.T)
		total += out[level]
	}

	if total == 0 {
		return nil, errors.New("all probabilities are zero")
	}

	for level := range out {
		out[level] /= total
	}

	return out, nil
}

// Calibration maps class probabilities to calibrated class probabilities.
type Calibration struct {
	base
	calibrator Calibrator
}

// NewCalibration creates a calibration step. A nil calibrator means Identity.
func NewCalibration(name string, priority float64, calibrator Calibrator) (*Calibration, error) {
	b, err := newBase(name, priority)
	if err != nil {
		return nil, err
	}

	if calibrator == nil {
		calibrator = Identity{}
	}

	b.params = b.params.With("calibrator", Fixed(calibrator))

	return &Calibration{base: b, calibrator: calibrator}, nil
}

func (*Calibration) Type() string {
	return "calibration"
}

func (*Calibration) InputKind() model.Kind {
	return model.KindClassProbabilities
}

func (*Calibration) OutputKind() model.Kind {
	return model.KindClassProbabilities
}

func (c *Calibration) Calibrator() Calibrator {
	return c.calibrator
}

func (c *Calibration) Apply(_ context.Context, in *model.Table, _ Args) (*model.Table, error) {
	levels := in.Levels()

	return in.Map(model.KindClassProbabilities, func(_ int, row model.Row) (model.Row, error) {
		probs, err := c.calibrator.Calibrate(levels, row.Probabilities)
		if err != nil {
			return row, errors.Wrap(err, "unable to calibrate")
		}

		row.Probabilities = probs

		return row, nil
	})
}
