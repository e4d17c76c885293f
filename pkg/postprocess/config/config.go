// Package config builds pipelines from YAML definitions.
//
// A definition names the predictor feeding the pipeline and lists the operations with their type, priority and
// type specific settings. Parameters left to a tuning process are written tune() or tune(id):
//
//	pipeline:
//	  name: churn
//	  predictor:
//	    name: glm
//	    kind: class_probabilities
//	  operations:
//	    - name: cut
//	      type: threshold
//	      priority: 2
//	      config:
//	        threshold: tune()
package config

import (
	"bytes"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-postprocess/pkg/postprocess"
	"github.com/askiada/go-postprocess/pkg/postprocess/model"
)

var ErrInvalidConfig = errors.New("invalid pipeline config")

// Config is the root of a pipeline definition.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline" validate:"required"`
}

type PipelineConfig struct {
	Name       string            `yaml:"name" validate:"required"`
	Predictor  PredictorConfig   `yaml:"predictor" validate:"required"`
	Operations []OperationConfig `yaml:"operations" validate:"unique=Name,dive"`
}

type PredictorConfig struct {
	Name string `yaml:"name" validate:"required"`
	Kind string `yaml:"kind" validate:"required,oneof=class_probabilities class_predictions regression_predictions"`
}

// OperationConfig is a single operation. Config holds the settings of Type.
type OperationConfig struct {
	Name     string         `yaml:"name" validate:"required"`
	Type     string         `yaml:"type" validate:"required"`
	Priority float64        `yaml:"priority"`
	Config   map[string]any `yaml:"config"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}

			return name
		})
	})

	return validate
}

// Load reads and validates the definition stored at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", path)
	}

	return Parse(data)
}

// Parse decodes and validates a YAML definition. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config

	err := dec.Decode(&cfg)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "unable to parse yaml: %v", err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	err := structValidator().Struct(c)
	if err != nil {
		return errors.Wrapf(ErrInvalidConfig, "%v", err)
	}

	return nil
}

// Build creates the operations with factory, registers them in a new pipeline
// and resolves it.
func (c *Config) Build(factory *Factory, opts ...postprocess.PipelineOption) (*postprocess.Pipeline, error) {
	if factory == nil {
		factory = DefaultFactory()
	}

	kind, err := model.ParseKind(c.Pipeline.Predictor.Kind)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse predictor kind")
	}

	predictor, err := postprocess.NewPredictor(c.Pipeline.Predictor.Name, kind)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create predictor")
	}

	pipe, err := postprocess.New(predictor, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create pipeline")
	}

	for _, oc := range c.Pipeline.Operations {
		op, err := factory.Build(oc)
		if err != nil {
			return nil, errors.Wrapf(err, "build operation %s", oc.Name)
		}

		err = pipe.Add(op)
		if err != nil {
			return nil, errors.Wrapf(err, "add operation %s", oc.Name)
		}
	}

	_, err = pipe.Resolve()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to resolve pipeline %s", c.Pipeline.Name)
	}

	return pipe, nil
}
