// This file contains the override table shared by environment variables and
// command-line flags.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	apperrors "github.com/dchandan/cmpnc/internal/errors"
)

// override declares one setting that can come from a flag or from the
// environment. field is the AppConfig field name, used in validation
// messages.
type override struct {
	envKey string
	flag   string
	field  string
	apply  func(*AppConfig, string) error
}

// overrides is the declarative table of every overridable setting.
var overrides = []override{
	// Numeric overrides
	{"PARALLELISM", "parallelism", "Parallelism", func(c *AppConfig, v string) (err error) {
		c.Parallelism, err = strconv.Atoi(v)
		return err
	}},
	{"ATOL", "atol", "Atol", func(c *AppConfig, v string) (err error) {
		c.Atol, err = strconv.ParseFloat(v, 64)
		return err
	}},
	{"RTOL", "rtol", "Rtol", func(c *AppConfig, v string) (err error) {
		c.Rtol, err = strconv.ParseFloat(v, 64)
		return err
	}},

	// Duration overrides
	{"WORKER_TIMEOUT", "worker-timeout", "WorkerTimeout", func(c *AppConfig, v string) (err error) {
		c.WorkerTimeout, err = time.ParseDuration(v)
		return err
	}},

	// String overrides
	{"THEME", "theme", "Theme", func(c *AppConfig, v string) error {
		c.Theme = v
		return nil
	}},
	{"LOG_LEVEL", "log-level", "LogLevel", func(c *AppConfig, v string) error {
		c.LogLevel = strings.ToLower(v)
		return nil
	}},
	{"LOG_FORMAT", "log-format", "LogFormat", func(c *AppConfig, v string) error {
		c.LogFormat = strings.ToLower(v)
		return nil
	}},
	{"METRICS_FILE", "metrics-file", "MetricsFile", func(c *AppConfig, v string) error {
		c.MetricsFile = v
		return nil
	}},
	{"REPORT", "report", "ReportFile", func(c *AppConfig, v string) error {
		c.ReportFile = v
		return nil
	}},

	// Boolean overrides
	{"VERBOSE", "verbose", "Verbose", boolSetter(func(c *AppConfig) *bool { return &c.Verbose })},
	{"SUMMARY", "summary", "Summary", boolSetter(func(c *AppConfig) *bool { return &c.Summary })},
	{"CONTINUE_ON_ERROR", "continue-on-error", "ContinueOnError", boolSetter(func(c *AppConfig) *bool { return &c.ContinueOnError })},
	{"IGNORE_ATTRIBUTES", "ignore-attributes", "IgnoreAttributes", boolSetter(func(c *AppConfig) *bool { return &c.IgnoreAttributes })},
	{"PROGRESS", "progress", "Progress", boolSetter(func(c *AppConfig) *bool { return &c.Progress })},
	{"NO_COLOR", "no-color", "NoColor", boolSetter(func(c *AppConfig) *bool { return &c.NoColor })},
}

func boolSetter(field func(*AppConfig) *bool) func(*AppConfig, string) error {
	return func(c *AppConfig, v string) error {
		b, err := parseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

// parseBool accepts "true", "1", "yes" as true and "false", "0", "no" as
// false (case-insensitive).
func parseBool(val string) (bool, error) {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, strconv.ErrSyntax
}

// isFlagSet checks if a flag was explicitly set on the command line.
func isFlagSet(fs *pflag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	return f != nil && f.Changed
}

// applyEnvOverrides applies CMPNC_* environment variables for every setting
// whose flag was not given on the command line.
func applyEnvOverrides(cfg *AppConfig, fs *pflag.FlagSet) error {
	for _, o := range overrides {
		if isFlagSet(fs, o.flag) {
			continue
		}
		val, ok := os.LookupEnv(EnvPrefix + o.envKey)
		if !ok || val == "" {
			continue
		}
		if err := o.apply(cfg, val); err != nil {
			return apperrors.NewConfigError("invalid value %q for %s%s", val, EnvPrefix, o.envKey)
		}
	}
	return nil
}

// applyFlags copies every explicitly set flag into cfg.
func applyFlags(cfg *AppConfig, fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		for _, o := range overrides {
			if o.flag != f.Name {
				continue
			}
			if aerr := o.apply(cfg, f.Value.String()); aerr != nil {
				err = apperrors.NewConfigError("invalid value %q for --%s", f.Value.String(), f.Name)
			}
			return
		}
	})
	return err
}
