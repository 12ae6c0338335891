package decode

import (
	"github.com/kbukum/augkit/validation"
)

// Output color layouts.
const (
	OutputRGB  = "RGB"
	OutputGray = "GRAY"
)

// Config configures the decode stage.
type Config struct {
	// OutputType is RGB (3 channels) or GRAY (1 channel).
	OutputType string     `yaml:"output_type" mapstructure:"output_type" validate:"oneof=RGB GRAY"`
	RandomCrop RandomCrop `yaml:"random_crop" mapstructure:"random_crop"`
	// ShardID and NumShards mirror the reader's shard when the decoder is
	// configured independently. NumShards 0 inherits the reader's shard.
	ShardID   int `yaml:"shard_id" mapstructure:"shard_id" validate:"gte=0"`
	NumShards int `yaml:"num_shards" mapstructure:"num_shards" validate:"gte=0"`
}

// RandomCrop configures the fused random-area crop.
type RandomCrop struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	AreaMin     float64 `yaml:"area_min" mapstructure:"area_min" validate:"gt=0,lte=1"`
	AreaMax     float64 `yaml:"area_max" mapstructure:"area_max" validate:"gtefield=AreaMin,lte=1"`
	RatioMin    float64 `yaml:"ratio_min" mapstructure:"ratio_min" validate:"gt=0"`
	RatioMax    float64 `yaml:"ratio_max" mapstructure:"ratio_max" validate:"gtefield=RatioMin"`
	MaxAttempts int     `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gt=0"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.OutputType == "" {
		c.OutputType = OutputRGB
	}
	rc := &c.RandomCrop
	if rc.AreaMin == 0 {
		rc.AreaMin = 0.08
	}
	if rc.AreaMax == 0 {
		rc.AreaMax = 1.0
	}
	if rc.RatioMin == 0 {
		rc.RatioMin = 3.0 / 4.0
	}
	if rc.RatioMax == 0 {
		rc.RatioMax = 4.0 / 3.0
	}
	if rc.MaxAttempts == 0 {
		rc.MaxAttempts = 10
	}
}

// Validate checks the decode configuration.
func (c *Config) Validate() error {
	if err := validation.Config(c); err != nil {
		return err
	}
	if c.NumShards > 0 {
		return validation.New().
			Range("decode.shard_id", float64(c.ShardID), 0, float64(c.NumShards-1)).
			Configuration()
	}
	return nil
}

// Channels returns the channel count of the configured output type.
func (c *Config) Channels() int {
	if c.OutputType == OutputGray {
		return 1
	}
	return 3
}
