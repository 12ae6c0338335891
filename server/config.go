package server

import (
	"time"

	"github.com/kbukum/augkit/validation"
)

// DefaultAddr is the listen address of the status server.
const DefaultAddr = ":8089"

// Config holds status server configuration.
type Config struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	return validation.New().
		Check(c.Addr != "", "status.addr", "is required").
		Check(c.ReadTimeout >= 0, "status.read_timeout", "must not be negative").
		Check(c.WriteTimeout >= 0, "status.write_timeout", "must not be negative").
		Check(c.IdleTimeout >= 0, "status.idle_timeout", "must not be negative").
		Configuration()
}
