package executor

import (
	"github.com/kbukum/augkit/batch"
	"github.com/kbukum/augkit/tensor"
	"github.com/kbukum/augkit/validation"
)

// Decode error policies.
const (
	OnDecodeErrorSkip = "skip"
	OnDecodeErrorFail = "fail"
)

// Config holds the global pipeline parameters.
type Config struct {
	BatchSize  int `yaml:"batch_size" mapstructure:"batch_size" validate:"gt=0"`
	NumThreads int `yaml:"num_threads" mapstructure:"num_threads" validate:"gt=0"`
	DeviceID   int `yaml:"device_id" mapstructure:"device_id" validate:"gte=0"`
	// Seed drives shuffling and every stochastic decision. Nil draws one
	// from system entropy at build.
	Seed               *uint64 `yaml:"seed" mapstructure:"seed"`
	TensorDType        string  `yaml:"tensor_dtype" mapstructure:"tensor_dtype" validate:"oneof=uint8 float32 float16"`
	TensorLayout       string  `yaml:"tensor_layout" mapstructure:"tensor_layout" validate:"oneof=NCHW NHWC"`
	PrefetchQueueDepth int     `yaml:"prefetch_queue_depth" mapstructure:"prefetch_queue_depth" validate:"gt=0"`
	LastBatchPolicy    string  `yaml:"last_batch_policy" mapstructure:"last_batch_policy" validate:"oneof=drop pad_with_last pad_with_zero"`
	OnDecodeError      string  `yaml:"on_decode_error" mapstructure:"on_decode_error" validate:"oneof=skip fail"`
	// OneHotClasses enables one-hot labels when positive.
	OneHotClasses int `yaml:"one_hot_classes" mapstructure:"one_hot_classes" validate:"gte=0"`
}

// ApplyDefaults fills zero-valued fields. BatchSize has no default.
func (c *Config) ApplyDefaults() {
	if c.NumThreads == 0 {
		c.NumThreads = 1
	}
	if c.TensorDType == "" {
		c.TensorDType = string(tensor.Float32)
	}
	if c.TensorLayout == "" {
		c.TensorLayout = string(tensor.NCHW)
	}
	if c.PrefetchQueueDepth == 0 {
		c.PrefetchQueueDepth = 2
	}
	if c.LastBatchPolicy == "" {
		c.LastBatchPolicy = string(batch.PolicyPadWithLast)
	}
	if c.OnDecodeError == "" {
		c.OnDecodeError = OnDecodeErrorFail
	}
}

// Validate checks the parameters and reports the first offending field as a
// ConfigurationError.
func (c *Config) Validate() error {
	return validation.Config(c)
}

// WithSeed returns a pointer for Config.Seed.
func WithSeed(seed uint64) *uint64 { return &seed }
