package config

import (
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/logger"
)

// FileSystem abstracts the file operations of the loader for tests.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem on the local disk.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads a .env file without overriding variables already set.
func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Resolver finds the config and .env files of a run.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles keeps explicit paths and searches the standard locations
// for the rest. An empty path means nothing was found.
func (r *Resolver) ResolveFiles(name string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = r.first(
			"./cmd/"+name+"/config.yml",
			"./config/"+name+".yml",
			"./config/config.yml",
			"./"+name+".yml",
			"./config.yml",
		)
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = r.first(
			"./cmd/"+name+"/.env",
			".env."+name,
			".env",
		)
	}
	return resolved
}

func (r *Resolver) first(paths ...string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // explicit config file path (optional)
	EnvFile    string // explicit .env file path (optional)

	// Flags maps configuration keys to command-line flags. A flag set on
	// the command line overrides both the file and the environment.
	Flags map[string]*pflag.Flag
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithFlag binds a command-line flag to a configuration key such as
// "pipeline.batch_size". Nil flags are ignored.
func WithFlag(key string, flag *pflag.Flag) LoaderOption {
	return func(lc *LoaderConfig) {
		if flag == nil {
			return
		}
		if lc.Flags == nil {
			lc.Flags = make(map[string]*pflag.Flag)
		}
		lc.Flags[key] = flag
	}
}

// EnvName returns the environment variable that overrides key for the
// named run: EnvName("augkit", "pipeline.batch_size") is
// AUGKIT_PIPELINE_BATCH_SIZE.
func EnvName(name, key string) string {
	r := strings.NewReplacer("-", "_", ".", "_")
	return strings.ToUpper(r.Replace(name) + "_" + r.Replace(key))
}

// LoadConfig decodes the configuration of the named run into cfg, a
// pointer to a struct with mapstructure tags. Sources in increasing
// precedence: the config file, the .env file, the environment, flags.
//
// An explicit config file that is missing is a NotFound error; one that
// fails to parse is a ConfigurationError.
func LoadConfig(name string, cfg interface{}, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = RealFileSystem{}
	}

	files := (&Resolver{FileSystem: lc.FileSystem}).ResolveFiles(name, lc)
	log := logger.WithComponent("config")
	v := viper.New()

	if files.ConfigFile != "" {
		if !lc.FileSystem.Exists(files.ConfigFile) {
			return errors.NotFound(files.ConfigFile, "config file does not exist")
		}
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.Configuration("config_file", err.Error()).
				WithDetail("path", files.ConfigFile).
				WithCause(err)
		}
		log.Debug("config file loaded", map[string]interface{}{logger.FieldPath: files.ConfigFile})
	}

	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			log.Warn("failed to load env file", map[string]interface{}{
				logger.FieldPath:  files.EnvFile,
				logger.FieldError: err.Error(),
			})
		}
	}

	for _, key := range Keys(cfg) {
		if err := v.BindEnv(key, EnvName(name, key)); err != nil {
			return errors.Internal(err)
		}
	}

	for key, flag := range lc.Flags {
		if flag.Changed {
			v.Set(key, flag.Value.String())
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return errors.Configuration(name, "failed to decode config: "+err.Error()).WithCause(err)
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// Keys lists the dotted configuration keys of the leaf fields of cfg, in
// declaration order. Squashed structs contribute their keys unprefixed.
func Keys(cfg interface{}) []string {
	t := reflect.TypeOf(cfg)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	var keys []string
	collectKeys(t, "", &keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("mapstructure")
		name, opts, _ := strings.Cut(tag, ",")
		if name == "-" {
			continue
		}
		ft := f.Type
		if opts == "squash" && ft.Kind() == reflect.Struct {
			collectKeys(ft, prefix, keys)
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := prefix + name
		if ft.Kind() == reflect.Struct && ft != durationType {
			collectKeys(ft, key+".", keys)
			continue
		}
		*keys = append(*keys, key)
	}
}
