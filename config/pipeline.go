package config

import (
	"github.com/kbukum/augkit/decode"
	"github.com/kbukum/augkit/executor"
	"github.com/kbukum/augkit/observability"
	"github.com/kbukum/augkit/reader"
	"github.com/kbukum/augkit/server"
	"github.com/kbukum/augkit/validation"
)

// PipelineConfig is the full configuration of an augkit run.
type PipelineConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Pipeline executor.Config `yaml:"pipeline" mapstructure:"pipeline"`
	Reader   reader.Config   `yaml:"reader" mapstructure:"reader"`
	Decode   decode.Config   `yaml:"decode" mapstructure:"decode"`

	// Graph is a YAML graph definition file or a graph name resolved
	// against GraphDirs.
	Graph     string   `yaml:"graph" mapstructure:"graph"`
	GraphDirs []string `yaml:"graph_dirs" mapstructure:"graph_dirs"`

	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
	Status    server.Config        `yaml:"status" mapstructure:"status"`
}

// ApplyDefaults fills zero-valued fields of every section.
func (c *PipelineConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
	c.Reader.ApplyDefaults()
	c.Decode.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
	c.Status.ApplyDefaults()
}

// Validate checks every section and returns the first ConfigurationError.
func (c *PipelineConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if err := c.Reader.Validate(); err != nil {
		return err
	}
	if err := c.Decode.Validate(); err != nil {
		return err
	}
	if err := validation.Config(&c.Telemetry); err != nil {
		return err
	}
	if err := c.Status.Validate(); err != nil {
		return err
	}
	return validation.New().Check(c.Graph != "", "graph", "is required").Configuration()
}

// Load reads the configuration of the named run, applies defaults and
// validates it.
func Load(name string, opts ...LoaderOption) (*PipelineConfig, error) {
	cfg := &PipelineConfig{}
	if err := LoadConfig(name, cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = name
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
