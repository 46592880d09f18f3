package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"melodex/apperr"
	"melodex/config"
	"melodex/logger"
)

// BlobStore is the object storage boundary for song audio. Implementations
// report failures through the apperr taxonomy so that driver errors never
// leak to callers.
type BlobStore interface {
	// Put uploads data under key and returns the stored path. When overwrite
	// is false the call fails with StorageConflict if the key already exists.
	Put(ctx context.Context, key string, data []byte, contentType string, overwrite bool) (string, error)
	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// Exists reports whether a key currently holds an object.
	Exists(ctx context.Context, key string) (bool, error)
	// Open returns a reader for the object at key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MinioStore implements BlobStore against a MinIO (or S3-compatible) bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO and makes sure the bucket exists.
func NewMinioStore(ctx context.Context, cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageFailure, "failed to create storage client", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageFailure, "failed to check storage bucket", err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion})
		if err != nil {
			return nil, apperr.Wrap(apperr.KindStorageFailure, "failed to create storage bucket", err)
		}
		logger.Info("storage bucket created", logger.String("bucket", cfg.MinioBucket))
	}

	return &MinioStore{client: client, bucket: cfg.MinioBucket}, nil
}

// Put uploads data under key. Creation uses non-overwrite semantics: an
// existing object under the same key surfaces as StorageConflict.
func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string, overwrite bool) (string, error) {
	if !overwrite {
		exists, err := s.Exists(ctx, key)
		if err != nil {
			return "", err
		}
		if exists {
			return "", apperr.Newf(apperr.KindStorageConflict, "an object named %q already exists", key)
		}
	}

	opts := minio.PutObjectOptions{
		ContentType:      contentType,
		DisableMultipart: true,
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return "", apperr.Wrap(apperr.KindStorageFailure, "failed to upload object", err)
	}
	return key, nil
}

// Delete removes the given keys, best effort across all of them.
func (s *MinioStore) Delete(ctx context.Context, keys ...string) error {
	var firstErr error
	for _, key := range keys {
		if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			if firstErr == nil {
				firstErr = apperr.Wrap(apperr.KindStorageFailure, "failed to delete object", err)
			}
			logger.Warn("blob delete failed",
				logger.String("key", key),
				logger.ErrorField(err))
		}
	}
	return firstErr
}

// Exists reports whether key holds an object.
func (s *MinioStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, apperr.Wrap(apperr.KindStorageFailure, "failed to stat object", err)
	}
	return true, nil
}

// Open returns a reader for the object at key.
func (s *MinioStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageFailure, "failed to read object", err)
	}
	return object, nil
}
