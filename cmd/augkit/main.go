// Command augkit runs an augmentation pipeline for a number of epochs and
// reports per-epoch statistics.
//
//	augkit --config train.yml --epochs 3
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/kbukum/augkit/bootstrap"
	"github.com/kbukum/augkit/config"
	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/observability"
	"github.com/kbukum/augkit/reader"
	"github.com/kbukum/augkit/server"
	"github.com/kbukum/augkit/storage"
	_ "github.com/kbukum/augkit/storage/local"
	_ "github.com/kbukum/augkit/storage/s3"
	"github.com/kbukum/augkit/version"
)

const serviceName = "augkit"

// options are the flags that are not part of the configuration file.
type options struct {
	configFile string
	envFile    string
	epochs     int
	version    bool
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.IsConfiguration(err) || errors.IsNotFound(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"batch-size":    "pipeline.batch_size",
	"threads":       "pipeline.num_threads",
	"seed":          "pipeline.seed",
	"dtype":         "pipeline.tensor_dtype",
	"layout":        "pipeline.tensor_layout",
	"last-batch":    "pipeline.last_batch_policy",
	"shuffle":       "reader.random_shuffle",
	"data":          "reader.file_root",
	"file-list":     "reader.file_list",
	"shard-id":      "reader.shard_id",
	"num-shards":    "reader.num_shards",
	"graph":         "graph",
	"status":        "status.enabled",
	"status-addr":   "status.addr",
	"log-level":     "logging.level",
	"tracing":       "telemetry.tracing",
	"metrics":       "telemetry.metrics",
	"otlp-endpoint": "telemetry.endpoint",
}

func newFlagSet(opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	fs.StringVarP(&opts.configFile, "config", "c", "", "path to the configuration file")
	fs.StringVar(&opts.envFile, "env-file", "", "path to a .env file")
	fs.IntVarP(&opts.epochs, "epochs", "e", 1, "number of epochs to run")
	fs.BoolVarP(&opts.version, "version", "v", false, "print the version and exit")

	fs.Int("batch-size", 0, "samples per batch")
	fs.Int("threads", 0, "worker goroutines")
	fs.Uint64("seed", 0, "pipeline seed")
	fs.String("dtype", "", "tensor element type: uint8, float32 or float16")
	fs.String("layout", "", "tensor layout: NCHW or NHWC")
	fs.String("last-batch", "", "last batch policy: drop, pad_with_last or pad_with_zero")
	fs.Bool("shuffle", false, "shuffle the shard every epoch")
	fs.String("data", "", "dataset root for the file reader")
	fs.String("file-list", "", "file of \"path label\" lines")
	fs.Int("shard-id", 0, "shard served by this process")
	fs.Int("num-shards", 0, "total number of shards")
	fs.String("graph", "", "graph definition file or name")
	fs.Bool("status", false, "serve /health and /stats")
	fs.String("status-addr", "", "status server listen address")
	fs.String("log-level", "", "log level")
	fs.Bool("tracing", false, "export traces over OTLP")
	fs.Bool("metrics", false, "export metrics over OTLP")
	fs.String("otlp-endpoint", "", "OTLP HTTP endpoint")
	return fs
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var opts options
	fs := newFlagSet(&opts)
	if err := fs.Parse(args); err != nil {
		return errors.Configuration("flags", err.Error())
	}
	if opts.version {
		fmt.Fprintln(stdout, serviceName, version.Short())
		return nil
	}
	if opts.epochs <= 0 {
		return errors.Configuration("epochs", "must be positive")
	}

	loaderOpts := []config.LoaderOption{
		config.WithConfigFile(opts.configFile),
		config.WithEnvFile(opts.envFile),
	}
	for name, key := range flagKeys {
		loaderOpts = append(loaderOpts, config.WithFlag(key, fs.Lookup(name)))
	}
	cfg, err := config.Load(serviceName, loaderOpts...)
	if err != nil {
		return err
	}
	if cfg.Version == "" {
		cfg.Version = version.Short()
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	app.Logger.Info("augkit starting", version.Fields())

	metrics, shutdownTelemetry, err := observability.Setup(ctx, cfg.Telemetry, cfg.Name, cfg.Version, cfg.Environment)
	if err != nil {
		return err
	}
	app.OnStop(shutdownTelemetry)

	var store *storage.Component
	if cfg.Reader.Kind == reader.KindStorage {
		store = storage.NewComponent(cfg.Reader.Storage, app.Logger)
		if err := app.RegisterComponent(store); err != nil {
			return err
		}
	}

	pc := newPipelineComponent(cfg, store, metrics)
	stats := newRunStats()

	if cfg.Status.Enabled {
		srv := server.New(cfg.Status, app.Logger)
		srv.RegisterEndpoints(cfg.Name, app.Components.HealthAll, func() any {
			return statusSnapshot(pc, stats)
		})
		if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
			return err
		}
	}
	if err := app.RegisterComponent(pc); err != nil {
		return err
	}

	err = app.RunTask(ctx, func(ctx context.Context) error {
		return runEpochs(ctx, pc.pipeline(), opts.epochs, stats, app.Logger.WithComponent("run"))
	})

	s := statusSnapshot(pc, stats)
	app.Logger.Info("run finished", map[string]interface{}{
		"epochs":  len(s.Epochs),
		"batches": s.Batches,
		"samples": s.Samples,
		"elapsed": s.Elapsed.String(),
	})
	return err
}

// statusSnapshot combines the run statistics with the pipeline's own.
func statusSnapshot(pc *pipelineComponent, stats *runStats) runSummary {
	s := stats.summary()
	if p := pc.pipeline(); p != nil {
		ps := p.Stats()
		s.Pipeline = &ps
	}
	return s
}
