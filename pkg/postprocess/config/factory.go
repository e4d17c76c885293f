package config

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-postprocess/pkg/postprocess"
	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

var ErrUnknownType = errors.New("unknown operation type")

// Builder creates an operation from its settings.
type Builder func(name string, priority float64, cfg map[string]any) (postprocess.Operation, error)

// Factory builds operations by type name.
type Factory struct {
	builders map[string]Builder
}

func NewFactory() *Factory {
	return &Factory{
		builders: make(map[string]Builder),
	}
}

// Register adds or replaces the builder of opType.
func (f *Factory) Register(opType string, builder Builder) {
	f.builders[opType] = builder
}

func (f *Factory) Build(oc OperationConfig) (postprocess.Operation, error) {
	builder, ok := f.builders[oc.Type]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownType, "%q", oc.Type)
	}

	cfg := oc.Config
	if cfg == nil {
		cfg = map[string]any{}
	}

	return builder(oc.Name, oc.Priority, cfg)
}

// DefaultFactory returns a factory knowing every built-in operation.
func DefaultFactory() *Factory {
	factory := NewFactory()

	factory.Register("calibration", buildCalibration)
	factory.Register("threshold", buildThreshold)
	factory.Register("equivocal_zone", buildEquivocalZone)
	factory.Register("mutate", buildMutate)
	factory.Register("clip", buildClip)

	return factory
}

func buildCalibration(name string, priority float64, cfg map[string]any) (postprocess.Operation, error) {
	method, err := str(cfg, "method", "identity")
	if err != nil {
		return nil, err
	}

	var calibrator postprocess.Calibrator

	switch method = strings.ToLower(method); method {
	case "identity":
		calibrator = postprocess.Identity{}
	case "platt":
		a, err := float(cfg, "a", 1)
		if err != nil {
			return nil, err
		}

		b, err := float(cfg, "b", 0)
		if err != nil {
			return nil, err
		}

		event, err := str(cfg, "event_level", "")
		if err != nil {
			return nil, err
		}

		calibrator = postprocess.Platt{A: a, B: b, EventLevel: event}
	case "temperature":
		t, err := float(cfg, "t", 1)
		if err != nil {
			return nil, err
		}

		if t <= 0 {
			return nil, errors.Wrapf(ErrInvalidConfig, "temperature must be positive, got %v", t)
		}

		calibrator = postprocess.Temperature{T: t}
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "unknown calibration method %q", method)
	}

	return postprocess.NewCalibration(name, priority, calibrator)
}

func eventLevels(cfg map[string]any) (string, string, error) {
	event, err := str(cfg, "event_level", "")
	if err != nil {
		return "", "", err
	}

	nonEvent, err := str(cfg, "non_event_level", "")
	if err != nil {
		return "", "", err
	}

	return event, nonEvent, nil
}

func buildThreshold(name string, priority float64, cfg map[string]any) (postprocess.Operation, error) {
	event, nonEvent, err := eventLevels(cfg)
	if err != nil {
		return nil, err
	}

	return postprocess.NewThreshold(name, priority, postprocess.ThresholdConfig{
		Threshold:     param(cfg, "threshold"),
		EventLevel:    event,
		NonEventLevel: nonEvent,
	})
}

func buildEquivocalZone(name string, priority float64, cfg map[string]any) (postprocess.Operation, error) {
	event, nonEvent, err := eventLevels(cfg)
	if err != nil {
		return nil, err
	}

	return postprocess.NewEquivocalZone(name, priority, postprocess.EquivocalZoneConfig{
		Threshold:     param(cfg, "threshold"),
		Buffer:        param(cfg, "buffer"),
		EventLevel:    event,
		NonEventLevel: nonEvent,
	})
}

func buildMutate(name string, priority float64, cfg map[string]any) (postprocess.Operation, error) {
	rawColumns, ok := cfg["columns"].([]any)
	if !ok {
		return nil, errors.Wrap(ErrInvalidConfig, "columns not found or invalid")
	}

	columns := make([]postprocess.Column, 0, len(rawColumns))
	for i, rc := range rawColumns {
		colMap, ok := rc.(map[string]any)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidConfig, "column %d is not a mapping", i)
		}

		colName, err := str(colMap, "name", "")
		if err != nil {
			return nil, errors.Wrapf(err, "column %d", i)
		}

		expr, err := str(colMap, "expr", "")
		if err != nil {
			return nil, errors.Wrapf(err, "column %d", i)
		}

		columns = append(columns, postprocess.Column{Name: colName, Expr: expr})
	}

	kind, err := str(cfg, "kind", "")
	if err != nil {
		return nil, err
	}

	return postprocess.NewMutate(name, priority, postprocess.MutateConfig{
		Columns: columns,
		Kind:    model.Kind(kind),
	})
}

func buildClip(name string, priority float64, cfg map[string]any) (postprocess.Operation, error) {
	return postprocess.NewClip(name, priority, postprocess.ClipConfig{
		Lower: param(cfg, "lower"),
		Upper: param(cfg, "upper"),
	})
}
