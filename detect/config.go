package detect

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gnoswap-labs/cornelius/internal/rewrite"
	"github.com/gnoswap-labs/cornelius/internal/saturate"
)

const (
	DefaultConfigFile = ".cornelius.yaml"
	DefaultOutputDir  = "equivalence_results"
)

// Config is the run configuration. Zero limits mean unbounded.
type Config struct {
	MaxIterations    int    `yaml:"max_iterations"`
	MaxNodes         int    `yaml:"max_nodes"`
	ExecutionTimeout int    `yaml:"execution_timeout"` // seconds
	HaltOnError      bool   `yaml:"halt_on_error"`
	OutputDir        string `yaml:"output_dir"`
	RulesFile        string `yaml:"rules,omitempty"`
	Jobs             int    `yaml:"jobs"`
	MatchWorkers     int    `yaml:"match_workers"`
	DotDir           string `yaml:"dot_dir,omitempty"`
	CacheDir         string `yaml:"cache_dir,omitempty"`
	CacheMaxAge      int    `yaml:"cache_max_age,omitempty"` // seconds, 0 keeps entries until their inputs change
	ClearCache       bool   `yaml:"-"`
}

func DefaultConfig() Config {
	return Config{
		MaxIterations:    saturate.DefaultIterLimit,
		MaxNodes:         saturate.DefaultNodeLimit,
		ExecutionTimeout: int(saturate.DefaultTimeLimit / time.Second),
		OutputDir:        DefaultOutputDir,
		Jobs:             1,
		MatchWorkers:     1,
	}
}

// LoadConfig reads a YAML configuration file. Keys missing from the file
// keep their default values.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		return config, fmt.Errorf("parsing %s: %w", path, err)
	}
	return config, config.Validate()
}

// WriteConfig writes cfg as YAML to path.
func WriteConfig(path string, cfg Config) error {
	d, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, d, 0o644)
}

func (c Config) Validate() error {
	switch {
	case c.MaxIterations < 0:
		return fmt.Errorf("max_iterations must not be negative, got %d", c.MaxIterations)
	case c.MaxNodes < 0:
		return fmt.Errorf("max_nodes must not be negative, got %d", c.MaxNodes)
	case c.ExecutionTimeout < 0:
		return fmt.Errorf("execution_timeout must not be negative, got %d", c.ExecutionTimeout)
	case c.CacheMaxAge < 0:
		return fmt.Errorf("cache_max_age must not be negative, got %d", c.CacheMaxAge)
	}
	return nil
}

// Saturation converts the user-facing limits, where 0 means unbounded.
func (c Config) Saturation() saturate.Config {
	return saturate.Config{
		IterLimit: saturate.LimitOf(c.MaxIterations),
		NodeLimit: saturate.LimitOf(c.MaxNodes),
		TimeLimit: time.Duration(c.ExecutionTimeout) * time.Second,
		Workers:   c.MatchWorkers,
	}
}

// RuleSet returns the rules from RulesFile, or the defaults when unset.
func (c Config) RuleSet() ([]*rewrite.Rule, error) {
	if c.RulesFile == "" {
		return rewrite.DefaultRules(), nil
	}
	return rewrite.Load(c.RulesFile)
}
