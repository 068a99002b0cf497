// Package config loads the YAML configuration options spec.md §6 names,
// the core's only recognized configuration surface. Grounded on the
// teacher's src/deviceid.go: read the whole file with io.ReadAll, decode
// with gopkg.in/yaml.v3, and fall back to defaults rather than treat a
// missing file as fatal.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spacelinkd/corecomm/internal/model"
)

// Config is the full set of options the core and its outer layers
// recognize (spec.md §6's configuration-option table, plus the ambient
// options this expansion's outer layers need).
type Config struct {
	MaxBandwidth                float64 `yaml:"max_bandwidth"`
	MaxQueueSize                int     `yaml:"max_queue_size"`
	MemoryLimitMB               int     `yaml:"memory_limit_mb"`
	EnableAdaptiveScheduling    bool    `yaml:"enable_adaptive_scheduling"`
	EnablePerformanceMonitoring bool    `yaml:"enable_performance_monitoring"`

	CodeRate          float64 `yaml:"code_rate"`
	BlockLength       int     `yaml:"block_length"`
	MaxIterations     int     `yaml:"max_iterations"`
	SyndromeThreshold int     `yaml:"syndrome_threshold"`
	EnableAdaptiveMode bool   `yaml:"enable_adaptive_mode"`

	ShutdownGraceSeconds int    `yaml:"shutdown_grace_seconds"`
	ControlPlanePort     int    `yaml:"control_plane_port"`
	ServiceName          string `yaml:"service_name"`
	EnableDiscovery      bool   `yaml:"enable_discovery"`
	LogLevel             string `yaml:"log_level"`
}

// Default returns the configuration the core falls back to when a host
// supplies no file, matching the scheduler and LDPC package defaults.
func Default() Config {
	return Config{
		MaxBandwidth:                0,
		MaxQueueSize:                1000,
		MemoryLimitMB:               512,
		EnableAdaptiveScheduling:    true,
		EnablePerformanceMonitoring: true,

		CodeRate:           0.5,
		BlockLength:        1024,
		MaxIterations:      50,
		SyndromeThreshold:  1,
		EnableAdaptiveMode: true,

		ShutdownGraceSeconds: 30,
		ControlPlanePort:     7654,
		ServiceName:          "",
		EnableDiscovery:      false,
		LogLevel:             "info",
	}
}

// Load reads and decodes a YAML config file. A missing file is not an
// error — callers get Default() back — matching deviceid_init's tolerance
// for an absent tocalls.yaml.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("opening config %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// CodeParameters derives the initial model.CodeParameters from the loaded
// LDPC options.
func (c Config) CodeParameters() model.CodeParameters {
	return model.CodeParameters{
		CodeRate:          c.CodeRate,
		BlockLength:       c.BlockLength,
		MaxIterations:     c.MaxIterations,
		SyndromeThreshold: c.SyndromeThreshold,
	}
}

// ShutdownGrace returns the configured shutdown grace period as a
// time.Duration.
func (c Config) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownGraceSeconds) * time.Second
}
