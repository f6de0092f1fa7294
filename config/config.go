package config

import (
	"fmt"
	"sort"

	"github.com/kbukum/resourcekit/logger"
	"github.com/kbukum/resourcekit/observability"
	"github.com/kbukum/resourcekit/transport"
	"github.com/kbukum/resourcekit/validation"
)

// Kind classes accepted in Config.Kinds.
const (
	KindEntity     = "entity"
	KindCollection = "collection"
)

// Output formats.
const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Config is the configuration of a resourcekit application.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name" json:"name" validate:"required"`
	Environment string `yaml:"environment" mapstructure:"environment" json:"environment" validate:"oneof=development staging production"`
	Output      string `yaml:"output" mapstructure:"output" json:"output" validate:"oneof=json yaml"`

	Client  transport.Config           `yaml:"client" mapstructure:"client" json:"client"`
	Logging logger.Config              `yaml:"logging" mapstructure:"logging" json:"logging"`
	Tracing observability.TracerConfig `yaml:"tracing" mapstructure:"tracing" json:"tracing"`
	Metrics observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics" json:"metrics"`

	Kinds []KindConfig `yaml:"kinds" mapstructure:"kinds" json:"kinds" validate:"dive"`
}

// KindConfig declares one kind served by the API. Kinds are a list rather
// than a map because Viper lower-cases map keys.
type KindConfig struct {
	Kind  string `yaml:"kind" mapstructure:"kind" json:"kind" validate:"required"`
	Class string `yaml:"class" mapstructure:"class" json:"class" validate:"oneof=entity collection"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "resourcekit"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Output == "" {
		c.Output = OutputJSON
	}
	for i := range c.Kinds {
		if c.Kinds[i].Class == "" {
			c.Kinds[i].Class = KindEntity
		}
	}
	if c.Client.Name == "" {
		c.Client.Name = c.Name
	}
	c.Client.ApplyDefaults()
	c.Logging.ApplyDefaults()

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = c.Name
	}
	if c.Tracing.Environment == "" {
		c.Tracing.Environment = c.Environment
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1.0
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = c.Name
	}
	if c.Metrics.Environment == "" {
		c.Metrics.Environment = c.Environment
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = observability.DefaultMeterConfig(c.Name).Interval
	}
}

// Validate checks struct tags, then each section.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("config.client: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	seen := make(map[string]bool, len(c.Kinds))
	for _, k := range c.Kinds {
		if seen[k.Kind] {
			return fmt.Errorf("config.kinds: %s declared twice", k.Kind)
		}
		seen[k.Kind] = true
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("config.tracing: endpoint is required when enabled")
	}
	if c.Metrics.Enabled && c.Metrics.Endpoint == "" {
		return fmt.Errorf("config.metrics: endpoint is required when enabled")
	}
	return nil
}

// KindsOf returns the kinds configured as class, sorted.
func (c *Config) KindsOf(class string) []string {
	var out []string
	for _, k := range c.Kinds {
		if k.Class == class {
			out = append(out, k.Kind)
		}
	}
	sort.Strings(out)
	return out
}
