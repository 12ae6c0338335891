package config

import (
	"github.com/kbukum/augkit/logger"
	"github.com/kbukum/augkit/validation"
)

// Environments accepted by ServiceConfig.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig contains the fields every augkit process needs.
// PipelineConfig embeds it:
//
//	type PipelineConfig struct {
//	    ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Pipeline executor.Config `yaml:"pipeline" mapstructure:"pipeline"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetServiceConfig returns the base ServiceConfig.
// When embedded in a larger config struct, this method is promoted.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults applies default values to the base configuration.
// Embedding structs call c.ServiceConfig.ApplyDefaults() first.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	// Propagate service name into logging so Init() uses the right tag.
	if c.Logging.ServiceName == "" && c.Name != "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the base configuration fields and reports the first
// offending field as a ConfigurationError.
func (c *ServiceConfig) Validate() error {
	err := validation.New().
		Check(c.Name != "", "name", "is required").
		OneOf("environment", c.Environment, Environments...).
		Configuration()
	if err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return validation.New().Check(false, "logging", err.Error()).Configuration()
	}
	return nil
}
