package postprocess

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

// ThresholdConfig configures a Threshold operation.
type ThresholdConfig struct {
	// Threshold is the event probability cut-off, in [0, 1].
	Threshold Param
	// EventLevel defaults to the second level of a binary table.
	EventLevel string
	// NonEventLevel defaults to the other level of a binary table, it is required for multiclass tables.
	NonEventLevel string
}

// Threshold turns class probabilities into hard classes with a probability cut-off.
type Threshold struct {
	base
	eventLevel, nonEventLevel string
}

func NewThreshold(name string, priority float64, cfg ThresholdConfig) (*Threshold, error) {
	b, err := newBase(name, priority)
	if err != nil {
		return nil, err
	}

	if cfg.Threshold.IsZero() {
		cfg.Threshold = Fixed(0.5)
	}

	err = fixedFloat("threshold", cfg.Threshold, unitInterval)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}

	b.params = b.params.With("threshold", cfg.Threshold)
	if cfg.EventLevel != "" {
		b.params = b.params.With("event_level", Fixed(cfg.EventLevel))
	}

	if cfg.NonEventLevel != "" {
		b.params = b.params.With("non_event_level", Fixed(cfg.NonEventLevel))
	}

	return &Threshold{base: b, eventLevel: cfg.EventLevel, nonEventLevel: cfg.NonEventLevel}, nil
}

func (*Threshold) Type() string {
	return "threshold"
}

func (*Threshold) InputKind() model.Kind {
	return model.KindClassProbabilities
}

func (*Threshold) OutputKind() model.Kind {
	return model.KindClassPredictions
}

func (t *Threshold) Apply(_ context.Context, in *model.Table, args Args) (*model.Table, error) {
	threshold, err := args.Float("threshold")
	if err != nil {
		return nil, err
	}

	if !unitInterval(threshold) {
		return nil, errors.Wrapf(ErrInvalidParameter, "threshold: %v out of range", threshold)
	}

	event, nonEvent, err := eventLevels(in, t.eventLevel, t.nonEventLevel)
	if err != nil {
		return nil, err
	}

	return in.Map(model.KindClassPredictions, func(_ int, row model.Row) (model.Row, error) {
		p, ok := row.Probability(event)
		if !ok {
			return row, errors.Errorf("missing probability for %q", event)
		}

		row.Class = nonEvent
		if p >= threshold {
			row.Class = event
		}

		return row, nil
	})
}

// EquivocalZoneConfig configures an EquivocalZone operation.
type EquivocalZoneConfig struct {
	// Threshold is the centre of the zone, 0.5 when unset.
	Threshold Param
	// Buffer is the half width of the zone.
	Buffer        Param
	EventLevel    string
	NonEventLevel string
}

// EquivocalZone behaves like Threshold but marks samples whose event probability
// lies within Buffer of Threshold as equivocal.
type EquivocalZone struct {
	base
	eventLevel, nonEventLevel string
}

func NewEquivocalZone(name string, priority float64, cfg EquivocalZoneConfig) (*EquivocalZone, error) {
	b, err := newBase(name, priority)
	if err != nil {
		return nil, err
	}

	if cfg.Threshold.IsZero() {
		cfg.Threshold = Fixed(0.5)
	}

	if cfg.Buffer.IsZero() {
		return nil, errors.Wrapf(ErrInvalidParameter, "%s: buffer must be set", name)
	}

	err = fixedFloat("threshold", cfg.Threshold, unitInterval)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}

	err = fixedFloat("buffer", cfg.Buffer, nonNegative)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}

	b.params = b.params.With("threshold", cfg.Threshold).With("buffer", cfg.Buffer)
	if cfg.EventLevel != "" {
		b.params = b.params.With("event_level", Fixed(cfg.EventLevel))
	}

	if cfg.NonEventLevel != "" {
		b.params = b.params.With("non_event_level", Fixed(cfg.NonEventLevel))
	}

	return &EquivocalZone{base: b, eventLevel: cfg.EventLevel, nonEventLevel: cfg.NonEventLevel}, nil
}

func (*EquivocalZone) Type() string {
	return "equivocal_zone"
}

func (*EquivocalZone) InputKind() model.Kind {
	return model.KindClassProbabilities
}

func (*EquivocalZone) OutputKind() model.Kind {
	return model.KindClassPredictions
}

func (z *EquivocalZone) Apply(_ context.Context, in *model.Table, args Args) (*model.Table, error) {
	threshold, err := args.Float("threshold")
	if err != nil {
		return nil, err
	}

	buffer, err := args.Float("buffer")
	if err != nil {
		return nil, err
	}

	if !unitInterval(threshold) || !nonNegative(buffer) {
		return nil, errors.Wrapf(ErrInvalidParameter, "threshold %v, buffer %v", threshold, buffer)
	}

	event, nonEvent, err := eventLevels(in, z.eventLevel, z.nonEventLevel)
	if err != nil {
		return nil, err
	}

	return in.Map(model.KindClassPredictions, func(_ int, row model.Row) (model.Row, error) {
		p, ok := row.Probability(event)
		if !ok {
			return row, errors.Errorf("missing probability for %q", event)
		}

		switch {
		case math.Abs(p-threshold) <= buffer:
			row.Class = model.EquivocalClass
		case p >= threshold:
			row.Class = event
		default:
			row.Class = nonEvent
		}

		return row, nil
	})
}

func eventLevels(in *model.Table, event, nonEvent string) (string, string, error) {
	levels := in.Levels()

	if len(levels) == 2 {
		switch event {
		case "":
			event = levels[1]
		case levels[0], levels[1]:
		default:
			return "", "", errors.Wrapf(model.ErrUnknownLevel, "event level %q", event)
		}

		if nonEvent == "" {
			nonEvent = levels[0]
			if event == levels[0] {
				nonEvent = levels[1]
			}
		}
	}

	if event == "" || nonEvent == "" {
		return "", "", errors.Wrap(ErrInvalidParameter, "event_level and non_event_level are required for multiclass tables")
	}

	if !in.HasLevel(event) || !in.HasLevel(nonEvent) || event == nonEvent {
		return "", "", errors.Wrapf(model.ErrUnknownLevel, "event %q, non event %q", event, nonEvent)
	}

	return event, nonEvent, nil
}
