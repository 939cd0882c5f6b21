// Package engineconfig loads the tunables that govern engine and
// factory behavior across a simulation: termination timeouts, the
// common engine's worker parallelism, and per-factory entity caps.
// Precedence, highest first: an explicit Option passed to Load,
// then a YAML file, then environment variables, then the built-in
// default (spec §9's "option > file > env > default" resolution
// order, grounded on how the teacher's own cli commands let a flag
// override a config file which in turn falls back to an env var).
package engineconfig

import (
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"oss.jalse.dev/jalse/config"
)

const (
	envTerminationTimeout = "JALSE_ENGINE_TERMINATION_TIMEOUT_MS"
	envSpinYieldThreshold = "JALSE_ENGINE_SPIN_YIELD_THRESHOLD_NS"
	envEntityLimit        = "JALSE_FACTORY_ENTITY_LIMIT"
	envCommonParallelism  = "JALSE_COMMON_ENGINE_PARALLELISM"

	defaultTerminationTimeout = 2 * time.Second
	defaultSpinYieldThreshold = int64(1e7)
	defaultEntityLimit        = 0
)

// Config holds every tunable this package resolves.
type Config struct {
	// EngineTerminationTimeout is the resolved engine termination
	// timeout. No engine in package action reads it.
	EngineTerminationTimeout time.Duration `yaml:"engineTerminationTimeoutMs"`

	// SpinYieldThresholdNanos is the resolved spin-yield threshold. No
	// engine in package action reads it.
	SpinYieldThresholdNanos int64 `yaml:"spinYieldThresholdNs"`

	// FactoryEntityLimit is the default cap passed to a freshly built
	// EntityFactory; 0 means unlimited.
	FactoryEntityLimit int `yaml:"factoryEntityLimit"`

	// CommonEngineParallelism is a worker count; Load turns 0 into
	// runtime.GOMAXPROCS(0). action.Common does not read it and always
	// sizes the shared engine by GOMAXPROCS.
	CommonEngineParallelism int `yaml:"commonEngineParallelism"`
}

// yamlFile mirrors Config's shape for unmarshalling, since the
// duration field is stored as milliseconds on disk.
type yamlFile struct {
	EngineTerminationTimeoutMs int `yaml:"engineTerminationTimeoutMs"`
	SpinYieldThresholdNs       int64 `yaml:"spinYieldThresholdNs"`
	FactoryEntityLimit         int `yaml:"factoryEntityLimit"`
	CommonEngineParallelism    int `yaml:"commonEngineParallelism"`
}

// Default returns the built-in, hardcoded defaults.
func Default() Config {
	return Config{
		EngineTerminationTimeout: defaultTerminationTimeout,
		SpinYieldThresholdNanos:  defaultSpinYieldThreshold,
		FactoryEntityLimit:       defaultEntityLimit,
		CommonEngineParallelism:  0,
	}
}

// Option overrides one or more fields on top of whatever file/env/
// default resolution already produced.
type Option func(*Config)

// WithEngineTerminationTimeout overrides the termination timeout.
func WithEngineTerminationTimeout(d time.Duration) Option {
	return func(c *Config) { c.EngineTerminationTimeout = d }
}

// WithFactoryEntityLimit overrides the default factory entity cap.
func WithFactoryEntityLimit(limit int) Option {
	return func(c *Config) { c.FactoryEntityLimit = limit }
}

// WithCommonEngineParallelism overrides action.Common's worker count.
func WithCommonEngineParallelism(n int) Option {
	return func(c *Config) { c.CommonEngineParallelism = n }
}

// Load resolves a Config from, in increasing priority: the built-in
// default, environment variables, an optional YAML file at path (pass
// "" to skip), and finally opts applied in order.
func Load(path string, opts ...Option) (Config, error) {
	cfg := Default()
	applyEnv(&cfg)

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.CommonEngineParallelism <= 0 {
		cfg.CommonEngineParallelism = runtime.GOMAXPROCS(0)
	}
	return cfg, nil
}

func applyEnv(c *Config) {
	if ms, err := config.GetEnvAsInt64(envTerminationTimeout, int64(c.EngineTerminationTimeout/time.Millisecond)); err == nil {
		c.EngineTerminationTimeout = time.Duration(ms) * time.Millisecond
	}
	if ns, err := config.GetEnvAsInt64(envSpinYieldThreshold, c.SpinYieldThresholdNanos); err == nil {
		c.SpinYieldThresholdNanos = ns
	}
	if limit, err := config.GetEnvAsInt(envEntityLimit, c.FactoryEntityLimit); err == nil {
		c.FactoryEntityLimit = limit
	}
	if par, err := config.GetEnvAsInt(envCommonParallelism, c.CommonEngineParallelism); err == nil {
		c.CommonEngineParallelism = par
	}
}

func applyFile(c *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var y yamlFile
	if err := yaml.Unmarshal(raw, &y); err != nil {
		return err
	}
	if y.EngineTerminationTimeoutMs > 0 {
		c.EngineTerminationTimeout = time.Duration(y.EngineTerminationTimeoutMs) * time.Millisecond
	}
	if y.SpinYieldThresholdNs > 0 {
		c.SpinYieldThresholdNanos = y.SpinYieldThresholdNs
	}
	if y.FactoryEntityLimit > 0 {
		c.FactoryEntityLimit = y.FactoryEntityLimit
	}
	if y.CommonEngineParallelism > 0 {
		c.CommonEngineParallelism = y.CommonEngineParallelism
	}
	return nil
}
