package reader

import (
	"github.com/kbukum/augkit/resilience"
	"github.com/kbukum/augkit/storage"
	"github.com/kbukum/augkit/validation"
)

// Reader kinds.
const (
	KindFile    = "file"
	KindStorage = "storage"
)

// DefaultExtensions are the file extensions read when none are configured.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tif", ".tiff"}

// Config is the reader section of a pipeline configuration.
type Config struct {
	Kind string `yaml:"kind" mapstructure:"kind" validate:"oneof=file storage"`
	// FileRoot is the dataset root for the file reader.
	FileRoot string `yaml:"file_root" mapstructure:"file_root"`
	// FileList optionally names a text file of "relative/path label" lines.
	FileList  string `yaml:"file_list" mapstructure:"file_list"`
	ShardID   int    `yaml:"shard_id" mapstructure:"shard_id" validate:"gte=0,ltfield=NumShards"`
	NumShards int    `yaml:"num_shards" mapstructure:"num_shards" validate:"gt=0"`
	// RandomShuffle permutes the shard's samples each epoch.
	RandomShuffle bool     `yaml:"random_shuffle" mapstructure:"random_shuffle"`
	Extensions    []string `yaml:"extensions" mapstructure:"extensions"`
	// Storage configures the object store for the storage reader.
	Storage storage.Config `yaml:"storage" mapstructure:"storage"`
	// Retry bounds payload download retries for the storage reader.
	Retry resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Kind == "" {
		c.Kind = KindFile
	}
	if c.NumShards == 0 {
		c.NumShards = 1
	}
	if len(c.Extensions) == 0 {
		c.Extensions = DefaultExtensions
	}
	if c.Kind == KindStorage {
		c.Storage.ApplyDefaults()
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry = resilience.DefaultRetryConfig()
	}
}

// Validate checks the reader configuration.
func (c *Config) Validate() error {
	if err := validation.Config(c); err != nil {
		return err
	}
	if err := ValidateShard(c.ShardID, c.NumShards); err != nil {
		return err
	}
	if c.Kind == KindFile {
		return validation.New().Check(c.FileRoot != "", "file_root", "is required for the file reader").Configuration()
	}
	return c.Storage.Validate()
}

// New creates the reader described by cfg. store is required for the
// storage kind and ignored otherwise.
func New(cfg Config, store storage.Storage) (Reader, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := Options{
		ShardID:       cfg.ShardID,
		NumShards:     cfg.NumShards,
		RandomShuffle: cfg.RandomShuffle,
		Extensions:    cfg.Extensions,
	}
	if cfg.Kind == KindStorage {
		if store == nil {
			return nil, validation.New().Check(false, "storage", "backend is not started").Configuration()
		}
		return NewStorageReader(store, cfg.Storage.Prefix, cfg.Retry, opts), nil
	}
	return NewFileReader(cfg.FileRoot, cfg.FileList, opts), nil
}

// Options are the sharding and filtering settings shared by all readers.
type Options struct {
	ShardID       int
	NumShards     int
	RandomShuffle bool
	// Extensions filters listed files, compared case-insensitively.
	Extensions []string
}

func (o Options) normalized() Options {
	if o.NumShards == 0 {
		o.NumShards = 1
	}
	if len(o.Extensions) == 0 {
		o.Extensions = DefaultExtensions
	}
	return o
}
