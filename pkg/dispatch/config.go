package dispatch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jdziat/simple-form-actions/pkg/core"
	"github.com/jdziat/simple-form-actions/pkg/serial"
)

// Config holds the policy settings that can be loaded from a YAML file:
//
//	emptyAsNull: true
//	strictSerializers: false
//	constructionStatus: 400
type Config struct {
	EmptyAsNull        bool `yaml:"emptyAsNull"`
	StrictSerializers  bool `yaml:"strictSerializers"`
	ConstructionStatus int  `yaml:"constructionStatus"`
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("actions: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML config data.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("actions: parse config: %w", err)
	}
	if cfg.ConstructionStatus != 0 && !core.ValidStatus(cfg.ConstructionStatus) {
		return nil, fmt.Errorf("actions: parse config: invalid constructionStatus %d", cfg.ConstructionStatus)
	}
	return &cfg, nil
}

// EngineOptions returns the engine options selected by the config.
func (c *Config) EngineOptions() []serial.Option {
	var opts []serial.Option
	if c.EmptyAsNull {
		opts = append(opts, serial.EmptyAsNull())
	}
	if c.StrictSerializers {
		opts = append(opts, serial.Strict())
	}
	return opts
}

// Options returns the dispatcher options selected by the config.
func (c *Config) Options() []Option {
	var opts []Option
	if c.ConstructionStatus != 0 {
		opts = append(opts, WithConstructionStatus(c.ConstructionStatus))
	}
	return opts
}
