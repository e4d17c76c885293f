// Command postproc applies a YAML defined post-processing pipeline to a JSON predictions table.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type env struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
}

func setupLogger(e env) error {
	level, err := zerolog.ParseLevel(e.LogLevel)
	if err != nil {
		return err
	}

	zerolog.SetGlobalLevel(level)

	if e.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	return nil
}

func main() {
	var opts options

	flag.StringVar(&opts.configPath, "config", "", "pipeline definition (YAML)")
	flag.StringVar(&opts.inputPath, "input", "-", "predictions table (JSON), - for stdin")
	flag.StringVar(&opts.outputPath, "output", "-", "post-processed table (JSON), - for stdout")
	flag.StringVar(&opts.valuesPath, "values", "", "tuned values (JSON object keyed by operation.parameter)")
	flag.StringVar(&opts.storePath, "store", "", "bbolt database of tuned values, keyed by pipeline name")
	flag.StringVar(&opts.dotPath, "dot", "", "write the resolved plan to this DOT file")
	flag.Parse()

	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("unable to load .env")
	}

	var e env

	err = envconfig.Process("POSTPROC", &e)
	if err != nil {
		log.Fatal().Err(err).Msg("environment load failed")
	}

	err = setupLogger(e)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, opts, log.Logger)
	if err != nil {
		stop()
		log.Fatal().Err(err).Msg("postproc failed")
	}
}
