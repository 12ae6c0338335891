// Package s3 serves dataset objects from Amazon S3 or an S3-compatible
// endpoint such as MinIO.
package s3

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/logger"
	"github.com/kbukum/augkit/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderS3, func(ctx context.Context, cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		s, err := NewStorage(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Debug("s3 client ready", logger.Fields("bucket", cfg.Bucket, "region", cfg.Region, "endpoint", cfg.Endpoint))
		return s, nil
	})
}

// Storage reads and writes objects of one bucket.
type Storage struct {
	client *awss3.Client
	bucket string
}

// NewStorage builds a client from the default AWS credential chain, or from
// static keys when both are configured. A custom endpoint implies path-style
// addressing.
func NewStorage(ctx context.Context, cfg storage.Config) (*Storage, error) {
	load := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		load = append(load, awsconfig.WithCredentialsProvider(creds))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, load...)
	if err != nil {
		return nil, errors.Configuration("storage", "load aws config: "+err.Error()).WithCause(err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.Endpoint != "" || cfg.ForcePathStyle
	})
	return &Storage{client: client, bucket: cfg.Bucket}, nil
}

// Upload puts r at key.
func (s *Storage) Upload(ctx context.Context, key string, r io.Reader) error {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("storage: s3 put %s: %w", key, err)
	}
	return nil
}

// Download streams the object at key. A missing key is a NotFound error.
func (s *Storage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if isMissing(err) {
		return nil, errors.NotFound(key, "object does not exist")
	}
	if err != nil {
		return nil, fmt.Errorf("storage: s3 get %s: %w", key, err)
	}
	return out.Body, nil
}

// Exists issues a HEAD request for key.
func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		return true, nil
	case isMissing(err):
		return false, nil
	}
	return false, fmt.Errorf("storage: s3 head %s: %w", key, err)
}

// List pages through every key under prefix and returns them sorted.
func (s *Storage) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	pages := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	files := []storage.FileInfo{}
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("storage: s3 list %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			files = append(files, storage.FileInfo{
				Path:         aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	// S3 already lists in UTF-8 byte order; MinIO and other gateways may not.
	slices.SortFunc(files, func(a, b storage.FileInfo) int { return strings.Compare(a.Path, b.Path) })
	return files, nil
}

// isMissing recognises the typed errors S3 returns for absent keys. HEAD
// responses carry no body, so they surface as NotFound instead of NoSuchKey.
func isMissing(err error) bool {
	if err == nil {
		return false
	}
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	return stderrors.As(err, &noKey) || stderrors.As(err, &notFound)
}

var _ storage.Storage = (*Storage)(nil)
