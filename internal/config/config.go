// Package config loads the YAML configuration of the poolctl tool.
//
// ${VAR} references are replaced with environment values before parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AlexsanderHamir/gwizpool/internal/logger"
	"github.com/AlexsanderHamir/gwizpool/manager"
	"github.com/AlexsanderHamir/gwizpool/persistence"
	"github.com/AlexsanderHamir/gwizpool/pool"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging     logger.Config     `yaml:"logging"`
	Manager     ManagerConfig     `yaml:"manager"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Metrics     MetricsConfig     `yaml:"metrics"`

	// Pools maps a pool type to a preset applied at startup.
	Pools map[string]string `yaml:"pools"`
}

type ManagerConfig struct {
	manager.Config `yaml:",inline"`

	// DefaultPreset, when set, replaces DefaultPool.
	DefaultPreset string `yaml:"default_preset"`
}

type PersistenceConfig struct {
	StatePath string `yaml:"state_path"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Listen    string `yaml:"listen"`
}

func Default() Config {
	return Config{
		Logging: logger.DefaultConfig(),
		Manager: ManagerConfig{Config: manager.DefaultConfig()},
		Persistence: PersistenceConfig{
			StatePath: persistence.DefaultStatePath,
		},
		Metrics: MetricsConfig{
			Namespace: "gwizpool",
			Listen:    "localhost:9090",
		},
	}
}

// Load reads path over Default. A missing file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal([]byte(substituteEnvVars(string(data))), &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error

	if _, err := c.ManagerConfig(); err != nil {
		errs = append(errs, err)
	}
	for t, name := range c.Pools {
		if _, err := Preset(name); err != nil {
			errs = append(errs, fmt.Errorf("pool %s: %w", t, err))
		}
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		errs = append(errs, errors.New("metrics.namespace is required when metrics are enabled"))
	}

	return errors.Join(errs...)
}

// ManagerConfig resolves the default preset and validates the default
// pool configuration.
func (c Config) ManagerConfig() (manager.Config, error) {
	mc := c.Manager.Config
	if c.Manager.DefaultPreset != "" {
		preset, err := Preset(c.Manager.DefaultPreset)
		if err != nil {
			return mc, fmt.Errorf("manager.default_preset: %w", err)
		}
		mc.DefaultPool = preset
	}
	if mc.DefaultPool != (pool.PoolConfig{}) {
		if err := mc.DefaultPool.Validate(); err != nil {
			return mc, fmt.Errorf("manager.default_pool: %w", err)
		}
	}
	return mc, nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
