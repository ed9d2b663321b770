// Package config loads the service configuration from the environment, with
// an optional YAML options file overriding the multistart defaults.
package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"

	"github.com/Mv77/estimagic/internal/optimization"
	"github.com/Mv77/estimagic/internal/optimization/batch"
	"github.com/Mv77/estimagic/internal/optimization/exploration"
	"github.com/Mv77/estimagic/internal/optimization/multistart"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	// OptionsFile optionally points at a YAML file whose keys override the
	// multistart defaults below.
	OptionsFile string `env:"MULTISTART_OPTIONS_FILE"`

	Multistart Multistart
}

// Multistart is the full configuration surface of the engine, with the
// documented defaults.
type Multistart struct {
	NSamples                   int     `env:"MS_N_SAMPLES" envDefault:"0" yaml:"n_samples" json:"n_samples"`
	ShareOptimizations         float64 `env:"MS_SHARE_OPTIMIZATIONS" envDefault:"0.1" yaml:"share_optimizations" json:"share_optimizations"`
	SamplingDistribution       string  `env:"MS_SAMPLING_DISTRIBUTION" envDefault:"uniform" yaml:"sampling_distribution" json:"sampling_distribution"`
	SamplingMethod             string  `env:"MS_SAMPLING_METHOD" envDefault:"sobol" yaml:"sampling_method" json:"sampling_method"`
	MixingWeightMethod         string  `env:"MS_MIXING_WEIGHT_METHOD" envDefault:"tiktak" yaml:"mixing_weight_method" json:"mixing_weight_method"`
	MixingWeightMin            float64 `env:"MS_MIXING_WEIGHT_MIN" envDefault:"0.1" yaml:"mixing_weight_min" json:"mixing_weight_min"`
	MixingWeightMax            float64 `env:"MS_MIXING_WEIGHT_MAX" envDefault:"0.995" yaml:"mixing_weight_max" json:"mixing_weight_max"`
	MaxDiscoveries             int     `env:"MS_MAX_DISCOVERIES" envDefault:"2" yaml:"max_discoveries" json:"max_discoveries"`
	RelativeParamsTolerance    float64 `env:"MS_RELATIVE_PARAMS_TOLERANCE" envDefault:"0.01" yaml:"relative_params_tolerance" json:"relative_params_tolerance"`
	RelativeCriterionTolerance float64 `env:"MS_RELATIVE_CRITERION_TOLERANCE" envDefault:"1e-8" yaml:"relative_criterion_tolerance" json:"relative_criterion_tolerance"`
	NCores                     int     `env:"MS_N_CORES" envDefault:"1" yaml:"n_cores" json:"n_cores"`
	BatchEvaluator             string  `env:"MS_BATCH_EVALUATOR" envDefault:"sequential" yaml:"batch_evaluator" json:"batch_evaluator"`
	BatchSize                  int     `env:"MS_BATCH_SIZE" envDefault:"0" yaml:"batch_size" json:"batch_size"`
	Seed                       int64   `env:"MS_SEED" envDefault:"0" yaml:"seed" json:"seed"`
	ExplorationErrorHandling   string  `env:"MS_EXPLORATION_ERROR_HANDLING" envDefault:"continue" yaml:"exploration_error_handling" json:"exploration_error_handling"`
	OptimizationErrorHandling  string  `env:"MS_OPTIMIZATION_ERROR_HANDLING" envDefault:"continue" yaml:"optimization_error_handling" json:"optimization_error_handling"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	if cfg.OptionsFile != "" {
		if err := cfg.Multistart.applyFile(cfg.OptionsFile); err != nil {
			return nil, err
		}
	}

	// A batch size of zero means one batch per group of cores.
	if cfg.Multistart.BatchSize == 0 {
		cfg.Multistart.BatchSize = cfg.Multistart.NCores
	}

	return cfg, nil
}

// applyFile overlays the YAML options file onto the current values. Keys
// absent from the file keep their environment or default values.
func (m *Multistart) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, m)
}

// Options resolves the string tags into the engine's strategy enumerations.
// Resolution happens once here, never inside the scheduling loop.
func (m Multistart) Options() (multistart.Options, error) {
	opts := multistart.DefaultOptions()

	method, err := exploration.ParseMethod(m.SamplingMethod)
	if err != nil {
		return opts, err
	}
	dist, err := exploration.ParseDistribution(m.SamplingDistribution)
	if err != nil {
		return opts, err
	}
	weight, err := multistart.ParseWeightMethod(m.MixingWeightMethod)
	if err != nil {
		return opts, err
	}
	explorationHandling, err := optimization.ParseErrorHandling(m.ExplorationErrorHandling)
	if err != nil {
		return opts, err
	}
	optimizationHandling, err := optimization.ParseErrorHandling(m.OptimizationErrorHandling)
	if err != nil {
		return opts, err
	}

	opts.NSamples = m.NSamples
	opts.ShareOptimizations = m.ShareOptimizations
	opts.SamplingMethod = method
	opts.SamplingDistribution = dist
	opts.WeightMethod = weight
	opts.WeightBounds = [2]float64{m.MixingWeightMin, m.MixingWeightMax}
	opts.MaxDiscoveries = m.MaxDiscoveries
	opts.RelativeParamsTolerance = m.RelativeParamsTolerance
	opts.RelativeCriterionTolerance = m.RelativeCriterionTolerance
	opts.ExplorationErrorHandling = explorationHandling
	opts.OptimizationErrorHandling = optimizationHandling
	opts.Seed = m.Seed
	return opts, nil
}

// Evaluator builds the configured batch evaluator.
func (m Multistart) Evaluator() (batch.Evaluator, error) {
	return batch.New(m.BatchEvaluator, m.NCores, m.BatchSize)
}
