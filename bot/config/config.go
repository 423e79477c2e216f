// Package config aggregates the bot's full configuration: the reusable core
// settings plus the database and application sections.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/meetbot/core/config"
	coredatabase "github.com/m3rciful/meetbot/core/database"
)

// AppConfig holds matchmaking-bot specific settings.
type AppConfig struct {
	// SeedDecoys enables inserting the placeholder candidate profiles at
	// startup so early users always find someone.
	SeedDecoys bool `yaml:"seed_decoys" envconfig:"BOT_SEED_DECOYS"`
}

// Config is the root configuration document.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	App      AppConfig           `yaml:"app"`
}

// CoreConfig exposes the embedded core configuration for the shared runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// Load reads the YAML file, applies environment overrides, and validates the
// core section.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	return &cfg, nil
}
