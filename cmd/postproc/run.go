package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/askiada/go-postprocess/pkg/postprocess"
	"github.com/askiada/go-postprocess/pkg/postprocess/config"
	"github.com/askiada/go-postprocess/pkg/postprocess/drawer"
	"github.com/askiada/go-postprocess/pkg/postprocess/measure"
	"github.com/askiada/go-postprocess/pkg/postprocess/model"
	"github.com/askiada/go-postprocess/pkg/tune"
)

var errConfigMustBeSet = errors.New("-config must be set")

type options struct {
	configPath string
	inputPath  string
	outputPath string
	valuesPath string
	storePath  string
	dotPath    string
}

func run(ctx context.Context, opts options, logger zerolog.Logger) error {
	if opts.configPath == "" {
		return errConfigMustBeSet
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return errors.Wrap(err, "unable to load config")
	}

	msr := measure.NewDefaultMeasure()

	pipe, err := cfg.Build(config.DefaultFactory(),
		postprocess.PipelineLogger(logger),
		postprocess.PipelineObserver(measure.PipelineMeasure(msr)),
	)
	if err != nil {
		return errors.Wrap(err, "unable to build pipeline")
	}

	values, err := loadValues(opts, cfg.Pipeline.Name, logger)
	if err != nil {
		return err
	}

	in, err := readTable(opts.inputPath)
	if err != nil {
		return err
	}

	res, err := pipe.Run(ctx, in, values)
	if err != nil {
		return errors.Wrap(err, "unable to run pipeline")
	}

	logger.Info().Str("pipeline", cfg.Pipeline.Name).Str("run_id", res.RunID).Int("rows", res.Output.Len()).Msg("pipeline applied")

	err = writeTable(opts.outputPath, res.Output)
	if err != nil {
		return err
	}

	if opts.dotPath != "" {
		plan, err := pipe.Plan()
		if err != nil {
			return errors.Wrap(err, "unable to get plan")
		}

		err = drawer.DrawPlan(drawer.NewFileDrawer(opts.dotPath, drawer.GraphAttribute("label", cfg.Pipeline.Name)), plan, msr)
		if err != nil {
			return errors.Wrap(err, "unable to draw plan")
		}
	}

	return nil
}

// loadValues reads -values when set and saves them to -store, otherwise it
// loads the values last saved for the pipeline.
func loadValues(opts options, pipeline string, logger zerolog.Logger) (postprocess.Values, error) {
	var values postprocess.Values

	if opts.valuesPath != "" {
		file, err := os.Open(opts.valuesPath)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to open %s", opts.valuesPath)
		}
		defer file.Close()

		values, err = tune.DecodeValues(file)
		if err != nil {
			return nil, err
		}
	}

	if opts.storePath == "" {
		return values, nil
	}

	store, err := tune.OpenBoltStore(opts.storePath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if values != nil {
		err = store.Save(pipeline, values)
		if err != nil {
			return nil, errors.Wrap(err, "unable to save values")
		}

		logger.Debug().Str("pipeline", pipeline).Int("values", len(values)).Msg("values saved")

		return values, nil
	}

	values, err = store.Load(pipeline)
	if errors.Is(err, tune.ErrNoValues) {
		logger.Warn().Str("pipeline", pipeline).Msg("no stored values")

		return nil, nil
	}

	return values, err
}

func readTable(path string) (*model.Table, error) {
	var r io.Reader = os.Stdin

	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to open %s", path)
		}
		defer file.Close()

		r = file
	}

	var tbl model.Table

	err := json.NewDecoder(r).Decode(&tbl)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read predictions")
	}

	return &tbl, nil
}

func writeTable(path string, tbl *model.Table) error {
	if path == "-" {
		return encodeTable(os.Stdout, tbl)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}

	return writeAndClose(file, func(w io.Writer) error {
		return encodeTable(w, tbl)
	})
}

func encodeTable(w io.Writer, tbl *model.Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(tbl)
	if err != nil {
		return errors.Wrap(err, "unable to write output")
	}

	return nil
}

// writeAndClose runs write on wc and reports the close error when write succeeded.
func writeAndClose(wc io.WriteCloser, write func(w io.Writer) error) error {
	err := write(wc)
	closeErr := wc.Close()

	if err != nil {
		return err
	}

	if closeErr != nil {
		return errors.Wrap(closeErr, "unable to close output")
	}

	return nil
}
