package storage

import (
	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/validation"
)

// Provider constants for supported storage backends.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Default configuration values.
const (
	DefaultProvider = ProviderLocal
	DefaultRegion   = "us-east-1"
)

// Config holds storage configuration.
type Config struct {
	// Provider selects the storage backend: "local" or "s3".
	Provider string `yaml:"provider" mapstructure:"provider" validate:"omitempty,oneof=local s3"`

	// BasePath is the root directory for local storage.
	BasePath string `yaml:"base_path" mapstructure:"base_path"`

	// Bucket is the S3 bucket name.
	Bucket string `yaml:"bucket" mapstructure:"bucket"`

	// Prefix restricts listing to keys under this prefix.
	Prefix string `yaml:"prefix" mapstructure:"prefix"`

	// Region is the AWS region for S3.
	Region string `yaml:"region" mapstructure:"region"`

	// Endpoint is a custom S3-compatible endpoint (e.g. MinIO).
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// AccessKey is the AWS access key ID. Empty uses the default credential chain.
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`

	// SecretKey is the AWS secret access key.
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`

	// ForcePathStyle forces path-style URLs instead of virtual-hosted-style.
	ForcePathStyle bool `yaml:"force_path_style" mapstructure:"force_path_style"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate checks that the configuration is valid for the selected provider.
func (c *Config) Validate() error {
	if err := validation.Config(c); err != nil {
		return err
	}
	v := validation.New()
	switch c.Provider {
	case ProviderLocal:
		v.Check(c.BasePath != "", "storage.base_path", "is required for local provider")
	case ProviderS3:
		v.Check(c.Bucket != "", "storage.bucket", "is required for s3 provider")
		v.Check(c.Region != "", "storage.region", "is required for s3 provider")
		v.Check((c.AccessKey == "") == (c.SecretKey == ""), "storage.secret_key", "access_key and secret_key must be set together")
	default:
		return errors.Configuration("storage.provider", "unsupported provider "+c.Provider)
	}
	return v.Configuration()
}
