// Package config resolves the application configuration from command-line
// flags, CMPNC_* environment variables, an optional YAML file and defaults,
// in that priority order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	apperrors "github.com/dchandan/cmpnc/internal/errors"
	"github.com/dchandan/cmpnc/internal/logging"
	"github.com/dchandan/cmpnc/internal/orchestration"
	"github.com/dchandan/cmpnc/internal/tolerance"
)

// EnvPrefix prefixes every environment variable the application reads.
const EnvPrefix = "CMPNC_"

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// Files are the two datasets to compare.
	Files []string `yaml:"-" validate:"len=2,dive,required"`

	Verbose          bool `yaml:"verbose"`
	Summary          bool `yaml:"summary"`
	ContinueOnError  bool `yaml:"continue_on_error"`
	IgnoreAttributes bool `yaml:"ignore_attributes"`
	// Parallelism is the worker count; 0 selects runtime.NumCPU().
	Parallelism int `yaml:"parallelism" validate:"gte=1"`

	Atol          float64       `yaml:"atol" validate:"gte=0"`
	Rtol          float64       `yaml:"rtol" validate:"gte=0"`
	WorkerTimeout time.Duration `yaml:"worker_timeout" validate:"gte=0"`

	Progress  bool   `yaml:"progress"`
	NoColor   bool   `yaml:"no_color"`
	Theme     string `yaml:"theme" validate:"oneof=dark light"`
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"oneof=console json"`

	MetricsFile string `yaml:"metrics_file"`
	ReportFile  string `yaml:"report_file"`
	ConfigFile  string `yaml:"-"`
}

// Default returns the configuration used when nothing else is set.
func Default() AppConfig {
	return AppConfig{
		Atol:      tolerance.DefaultAtol,
		Rtol:      tolerance.DefaultRtol,
		Theme:     "dark",
		LogLevel:  "warn",
		LogFormat: "console",
	}
}

// RegisterFlags registers the compare flags on fs, bound to cfg. cfg should
// hold Default().
func RegisterFlags(fs *pflag.FlagSet, cfg *AppConfig) {
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "print every check as it is decided")
	fs.BoolVarP(&cfg.Summary, "summary", "s", cfg.Summary, "print the two paths and the passed/failed/skipped counts")
	fs.BoolVar(&cfg.ContinueOnError, "continue-on-error", cfg.ContinueOnError, "record structural mismatches instead of aborting (implies --summary)")
	fs.BoolVar(&cfg.IgnoreAttributes, "ignore-attributes", cfg.IgnoreAttributes, "skip the global attribute comparison")
	fs.IntVarP(&cfg.Parallelism, "parallelism", "p", cfg.Parallelism, "number of parallel workers (0 = number of CPUs)")
	fs.Float64Var(&cfg.Atol, "atol", cfg.Atol, "absolute tolerance")
	fs.Float64Var(&cfg.Rtol, "rtol", cfg.Rtol, "relative tolerance")
	fs.DurationVar(&cfg.WorkerTimeout, "worker-timeout", cfg.WorkerTimeout, "time limit for one work unit (0 = none)")
	fs.BoolVar(&cfg.Progress, "progress", cfg.Progress, "show a progress spinner on stderr")
	fs.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "disable coloured output")
	fs.StringVar(&cfg.Theme, "theme", cfg.Theme, "colour theme (dark, light)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (console, json)")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "write Prometheus metrics to this file")
	fs.StringVar(&cfg.ReportFile, "report", cfg.ReportFile, "write a JSON report to this file")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML configuration file")
}

// Resolve builds the final configuration. fs must have been parsed with
// flags registered by RegisterFlags; files are the positional arguments.
func Resolve(fs *pflag.FlagSet, files []string) (AppConfig, error) {
	cfg := Default()
	cfg.Files = files

	path := configFilePath(fs)
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return AppConfig{}, err
		}
		cfg.ConfigFile = path
	}
	if err := applyEnvOverrides(&cfg, fs); err != nil {
		return AppConfig{}, err
	}
	if err := applyFlags(&cfg, fs); err != nil {
		return AppConfig{}, err
	}

	cfg = ApplyAdaptiveDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func configFilePath(fs *pflag.FlagSet) string {
	if f := fs.Lookup("config"); f != nil && f.Changed {
		return f.Value.String()
	}
	return os.Getenv(EnvPrefix + "CONFIG")
}

func loadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewConfigError("cannot read config file %s: %v", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty file decodes to io.EOF and leaves the defaults alone.
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.NewConfigError("invalid config file %s: %v", path, err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration and reports every violation as a single
// ConfigError.
func (c AppConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewConfigError("invalid configuration: %v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return apperrors.NewConfigError("invalid configuration: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Files":
		return "exactly two dataset files are required"
	}
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s must be >= %s", flagName(fe.StructField()), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", flagName(fe.StructField()), fe.Param(), fe.Value())
	case "required":
		return fmt.Sprintf("%s must not be empty", flagName(fe.StructField()))
	}
	return fmt.Sprintf("%s failed %s", flagName(fe.StructField()), fe.Tag())
}

func flagName(field string) string {
	for _, o := range overrides {
		if o.field == field {
			return "--" + o.flag
		}
	}
	return field
}

// ToOptions converts the configuration into orchestrator options.
func (c AppConfig) ToOptions() orchestration.Options {
	return orchestration.Options{
		Parallelism:      c.Parallelism,
		ContinueOnError:  c.ContinueOnError,
		IgnoreAttributes: c.IgnoreAttributes,
		Tolerance:        tolerance.Tolerance{Atol: c.Atol, Rtol: c.Rtol},
		WorkerTimeout:    c.WorkerTimeout,
	}
}

// LogOptions converts the configuration into logger options.
func (c AppConfig) LogOptions() logging.Options {
	return logging.Options{Level: c.LogLevel, Format: c.LogFormat, Component: "cmpnc", NoColor: c.NoColor}
}
