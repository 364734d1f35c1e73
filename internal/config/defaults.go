package config

import "runtime"

// Resolution chain (highest priority first):
//   1. CLI flags
//   2. Environment variables (CMPNC_PARALLELISM, etc.)
//   3. YAML config file (--config or CMPNC_CONFIG)
//   4. Hardware-derived defaults (this file)
//   5. Static defaults in Default()

// ApplyAdaptiveDefaults fills settings that depend on the host and applies
// the implications between flags. Only zero values are replaced.
func ApplyAdaptiveDefaults(cfg AppConfig) AppConfig {
	if cfg.Parallelism == 0 {
		cfg.Parallelism = DefaultParallelism()
	}
	if cfg.ContinueOnError {
		cfg.Summary = true
	}
	return cfg
}

// DefaultParallelism returns the host's available parallelism.
func DefaultParallelism() int {
	return max(1, runtime.NumCPU())
}
