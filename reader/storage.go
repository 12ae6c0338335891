package reader

import (
	"context"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/logger"
	"github.com/kbukum/augkit/resilience"
	"github.com/kbukum/augkit/storage"
)

// StorageReader reads encoded objects under a prefix of a storage backend.
// The first key segment below the prefix names the class, using the same
// labelling rules as FileReader. Payloads are downloaded lazily with retry.
type StorageReader struct {
	client  storage.ByteClient
	prefix  string
	retry   resilience.RetryConfig
	opts    Options
	cur     *cursor
	classes []string
	log     *logger.Logger
}

// NewStorageReader creates a reader over the objects under prefix.
func NewStorageReader(s storage.Storage, prefix string, retry resilience.RetryConfig, opts Options) *StorageReader {
	opts = opts.normalized()
	log := logger.Get("reader")
	retry.OnRetry = func(attempt int, err error, _ time.Duration) {
		log.Warn("retrying sample download", map[string]interface{}{
			"attempt":         attempt,
			logger.FieldError: err.Error(),
		})
	}
	return &StorageReader{
		client: storage.NewByteClient(s),
		prefix: prefix,
		retry:  retry,
		opts:   opts,
		cur:    newCursor(opts.ShardID, opts.NumShards, opts.RandomShuffle),
		log:    log,
	}
}

// Open lists the objects and starts epoch 0.
func (r *StorageReader) Open(ctx context.Context, seed uint64) error {
	files, err := resilience.Retry(ctx, r.retry, func() ([]storage.FileInfo, error) {
		files, err := r.client.List(ctx, r.prefix)
		if err != nil {
			return nil, errors.Storage(r.prefix, err)
		}
		return files, nil
	})
	if err != nil {
		return err
	}

	type keyed struct {
		key   string
		class string
	}
	var objects []keyed
	var rootObjects []keyed
	for _, f := range files {
		if !r.eligible(f.Path) {
			continue
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(f.Path, r.prefix), "/")
		class, _, nested := strings.Cut(rel, "/")
		if nested {
			objects = append(objects, keyed{key: f.Path, class: class})
		} else {
			rootObjects = append(rootObjects, keyed{key: f.Path})
		}
	}
	if len(objects) == 0 {
		objects = rootObjects
	}

	r.classes = r.classes[:0]
	for _, o := range objects {
		if o.class != "" && !slices.Contains(r.classes, o.class) {
			r.classes = append(r.classes, o.class)
		}
	}
	slices.Sort(r.classes)
	slices.SortFunc(objects, func(a, b keyed) int { return strings.Compare(a.key, b.key) })

	all := make([]entry, len(objects))
	for i, o := range objects {
		all[i] = entry{key: o.key}
		if o.class != "" {
			all[i].label, _ = slices.BinarySearch(r.classes, o.class)
		}
	}
	if len(all) == 0 {
		return errors.NotFound(r.prefix, "no eligible objects under prefix")
	}
	if err := r.cur.load(r.prefix, all, seed); err != nil {
		return err
	}

	r.log.Info("storage reader opened", map[string]interface{}{
		logger.FieldPath:    r.prefix,
		"total":             len(all),
		"classes":           len(r.classes),
		logger.FieldShardID: r.opts.ShardID,
		"shard_len":         r.Len(),
	})
	return nil
}

func (r *StorageReader) eligible(key string) bool {
	return slices.ContainsFunc(r.opts.Extensions, func(ext string) bool {
		return strings.EqualFold(path.Ext(key), ext)
	})
}

// Next downloads the next object of the epoch.
func (r *StorageReader) Next(ctx context.Context) (Sample, bool, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, false, err
	}
	e, ok := r.cur.next()
	if !ok {
		return Sample{}, false, nil
	}
	data, err := resilience.Retry(ctx, r.retry, func() ([]byte, error) {
		data, err := r.client.Download(ctx, e.key)
		if errors.IsNotFound(err) {
			return nil, err
		}
		if err != nil {
			return nil, errors.Storage(e.key, err)
		}
		return data, nil
	})
	if err != nil {
		return Sample{}, false, err
	}
	return Sample{Index: e.index, Key: e.key, Payload: data, Label: e.label}, true, nil
}

// Reset starts the next epoch.
func (r *StorageReader) Reset(_ context.Context) error {
	r.cur.rewind()
	return nil
}

// Classes returns the class names in label order.
func (r *StorageReader) Classes() []string { return r.classes }

func (r *StorageReader) Len() int { return len(r.cur.entries) }
func (r *StorageReader) Epoch() int { return r.cur.epoch }
func (r *StorageReader) Shard() (int, int) { return r.opts.ShardID, r.opts.NumShards }
func (r *StorageReader) Close() error { return nil }

var _ Reader = (*StorageReader)(nil)
