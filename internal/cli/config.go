package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/nxcore/internal/pipeline"
)

// Keys under "pipeline" in nxcore.yaml. Each is also read from
// NXCORE_PIPELINE_<KEY>.
const (
	keyParallel         = "pipeline.parallel"
	keyWorkers          = "pipeline.workers"
	keyProgressInterval = "pipeline.progress_interval"
	keyChunkTuples      = "pipeline.chunk_tuples"
	keyChunkDir         = "pipeline.chunk_dir"
	keyOutOfCoreBytes   = "pipeline.out_of_core_bytes"
)

// newViper reads configFile, or nxcore.yaml from the working directory or
// $HOME/.nxcore when configFile is empty. A missing default file is not an
// error; a missing explicit one is.
func newViper(configFile string) (*viper.Viper, error) {
	v := viper.New()

	defaults := pipeline.DefaultConfig()
	v.SetDefault("format", "text")
	v.SetDefault(keyParallel, defaults.Parallel)
	v.SetDefault(keyWorkers, defaults.Workers)
	v.SetDefault(keyProgressInterval, defaults.ProgressInterval)
	v.SetDefault(keyChunkTuples, defaults.ChunkTuples)
	v.SetDefault(keyChunkDir, defaults.ChunkDir)
	v.SetDefault(keyOutOfCoreBytes, defaults.OutOfCoreBytes)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("nxcore")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.nxcore")
	}

	// --no-color -> NXCORE_NO_COLOR, pipeline.workers -> NXCORE_PIPELINE_WORKERS
	v.SetEnvPrefix("NXCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// loadSettings resolves opts from flags, environment and config file.
func loadSettings(opts *RootOptions, flags *pflag.FlagSet) error {
	v, err := newViper(opts.ConfigFile)
	if err != nil {
		return err
	}
	for _, name := range []string{"verbose", "format", "no-color"} {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(name, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	opts.Verbose = v.GetBool("verbose")
	opts.Format = v.GetString("format")
	opts.NoColor = v.GetBool("no-color")

	cfg, err := pipelineConfig(v)
	if err != nil {
		return err
	}
	opts.Pipeline = cfg
	return nil
}

// pipelineConfig reads the pipeline keys one by one so environment
// overrides of nested keys are honored.
func pipelineConfig(v *viper.Viper) (pipeline.Config, error) {
	cfg := pipeline.Config{
		Parallel:         v.GetBool(keyParallel),
		Workers:          v.GetInt(keyWorkers),
		ProgressInterval: v.GetDuration(keyProgressInterval),
		ChunkTuples:      v.GetUint64(keyChunkTuples),
		ChunkDir:         v.GetString(keyChunkDir),
		OutOfCoreBytes:   v.GetUint64(keyOutOfCoreBytes),
	}
	if cfg.Workers < 0 {
		return cfg, fmt.Errorf("%s must not be negative, got %d", keyWorkers, cfg.Workers)
	}
	if cfg.ProgressInterval < 0 {
		return cfg, fmt.Errorf("%s must not be negative, got %s", keyProgressInterval, cfg.ProgressInterval)
	}
	return cfg, nil
}

// newLogger builds the CLI's log handler: Info by default, Debug when
// verbose.
func newLogger(w io.Writer, verbose, noColor bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}))
}
