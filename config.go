package metta

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config carries the tunables of an interpreter instance.
type Config struct {
	// Workers bounds concurrent evaluations per batch.
	Workers int `yaml:"workers"`
	// MaxIterations bounds the fixed-point driver.
	MaxIterations int `yaml:"max_iterations"`
	// HistoryLimit bounds recorded evaluations; 0 means unbounded.
	HistoryLimit int `yaml:"history_limit"`
	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`
}

func DefaultConfig() Config {
	return Config{
		Workers:       runtime.NumCPU(),
		MaxIterations: 1000,
		HistoryLimit:  1000,
	}
}

// LoadConfig reads a YAML config file, filling unset fields with defaults.
// A missing file is not an error; the defaults apply.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.MaxIterations < 1 {
		cfg.MaxIterations = 1
	}
	return cfg, nil
}
