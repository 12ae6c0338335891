// Package storage provides the object storage backends readers pull sample
// payloads from.
//
// # Backends
//
//   - storage/local: a directory on the local filesystem
//   - storage/s3: Amazon S3 and S3-compatible services (MinIO, Ceph)
//
// Backends register themselves with RegisterFactory from an init function;
// import them for side effects before calling New:
//
//	import _ "github.com/kbukum/augkit/storage/s3"
//
// # Configuration
//
//	reader:
//	  kind: storage
//	  storage:
//	    provider: s3
//	    bucket: datasets
//	    prefix: flowers/train/
//	    region: us-east-1
package storage
