package reader

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/logger"
)

// FileReader reads encoded files from a local directory tree.
//
// Each first-level sub-directory of the root is one class; its label is the
// directory's index in sorted order and every eligible file below it
// (recursively) carries that label. When the root has no sub-directories
// the files directly under it are read with label 0. When a file list is
// configured it replaces the directory walk.
type FileReader struct {
	root     string
	fileList string
	opts     Options
	cur      *cursor
	classes  []string
	log      *logger.Logger
}

// NewFileReader creates a reader over root. fileList may be empty.
func NewFileReader(root, fileList string, opts Options) *FileReader {
	opts = opts.normalized()
	return &FileReader{
		root:     root,
		fileList: fileList,
		opts:     opts,
		cur:      newCursor(opts.ShardID, opts.NumShards, opts.RandomShuffle),
		log:      logger.Get("reader"),
	}
}

// Open lists the dataset and starts epoch 0.
func (r *FileReader) Open(ctx context.Context, seed uint64) error {
	info, err := os.Stat(r.root)
	if err != nil || !info.IsDir() {
		return errors.NotFound(r.root, "data root does not exist or is not a directory")
	}

	var all []entry
	if r.fileList != "" {
		all, err = r.readFileList()
	} else {
		all, err = r.walk(ctx)
	}
	if err != nil {
		return err
	}
	if err := r.cur.load(r.root, all, seed); err != nil {
		return err
	}

	r.log.Info("file reader opened", map[string]interface{}{
		logger.FieldPath:    r.root,
		"total":             len(all),
		"classes":           len(r.classes),
		logger.FieldShardID: r.opts.ShardID,
		"num_shards":        r.opts.NumShards,
		"shard_len":         r.Len(),
		"shuffle":           r.opts.RandomShuffle,
	})
	return nil
}

func (r *FileReader) walk(ctx context.Context) ([]entry, error) {
	dirEntries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, errors.NotFound(r.root, err.Error())
	}

	var rootFiles []entry
	r.classes = r.classes[:0]
	for _, de := range dirEntries {
		switch {
		case de.IsDir():
			r.classes = append(r.classes, de.Name())
		case r.eligible(de.Name()):
			rootFiles = append(rootFiles, entry{key: filepath.Join(r.root, de.Name())})
		}
	}
	if len(r.classes) == 0 {
		return rootFiles, nil
	}
	if len(rootFiles) > 0 {
		r.log.Warn("ignoring files outside class directories", map[string]interface{}{
			logger.FieldPath: r.root,
			"count":          len(rootFiles),
		})
	}

	var all []entry
	for label, class := range r.classes {
		err := filepath.WalkDir(filepath.Join(r.root, class), func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if !d.IsDir() && r.eligible(d.Name()) {
				all = append(all, entry{key: path, label: label})
			}
			return nil
		})
		if err != nil {
			return nil, errors.NotFound(filepath.Join(r.root, class), err.Error())
		}
	}
	return all, nil
}

// readFileList parses "relative/path label" lines. Blank lines and lines
// starting with '#' are skipped; a missing label means 0.
func (r *FileReader) readFileList() ([]entry, error) {
	f, err := os.Open(r.fileList)
	if err != nil {
		return nil, errors.NotFound(r.fileList, "cannot open file list")
	}
	defer f.Close()

	var all []entry
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		e := entry{key: filepath.Join(r.root, fields[0])}
		if len(fields) > 1 {
			label, err := strconv.Atoi(fields[len(fields)-1])
			if err != nil {
				return nil, errors.Configuration("file_list", fmt.Sprintf("%s:%d: bad label %q", r.fileList, line, fields[len(fields)-1]))
			}
			e.label = label
		}
		all = append(all, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NotFound(r.fileList, err.Error())
	}
	return all, nil
}

func (r *FileReader) eligible(name string) bool {
	return slices.ContainsFunc(r.opts.Extensions, func(ext string) bool {
		return strings.EqualFold(filepath.Ext(name), ext)
	})
}

// Next reads the next file of the epoch.
func (r *FileReader) Next(ctx context.Context) (Sample, bool, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, false, err
	}
	e, ok := r.cur.next()
	if !ok {
		return Sample{}, false, nil
	}
	data, err := os.ReadFile(e.key)
	if err != nil {
		if os.IsNotExist(err) {
			return Sample{}, false, errors.NotFound(e.key, "sample file disappeared")
		}
		return Sample{}, false, errors.Storage(e.key, err)
	}
	return Sample{Index: e.index, Key: e.key, Payload: data, Label: e.label}, true, nil
}

// Reset starts the next epoch.
func (r *FileReader) Reset(_ context.Context) error {
	r.cur.rewind()
	return nil
}

// Classes returns the class directory names in label order.
func (r *FileReader) Classes() []string { return r.classes }

func (r *FileReader) Len() int { return len(r.cur.entries) }
func (r *FileReader) Epoch() int { return r.cur.epoch }
func (r *FileReader) Shard() (int, int) { return r.opts.ShardID, r.opts.NumShards }
func (r *FileReader) Close() error { return nil }

var _ Reader = (*FileReader)(nil)
