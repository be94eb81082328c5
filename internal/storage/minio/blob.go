// Package minio stores sealed attachments and approval photos in a MinIO bucket.
package minio

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dtroode/securemail-server/internal/model"
)

const (
	contentType  = "application/octet-stream"
	codeNotFound = "NoSuchKey"
)

// objectAPI is the part of *minio.Client the store uses.
type objectAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
	StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// sdk adapts *minio.Client. GetObject stats the object so a missing key fails
// here instead of on the first read.
type sdk struct{ c *minio.Client }

func (s sdk) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return s.c.BucketExists(ctx, bucket)
}

func (s sdk) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	return s.c.MakeBucket(ctx, bucket, opts)
}

func (s sdk) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return s.c.PutObject(ctx, bucket, key, reader, size, opts)
}

func (s sdk) GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	obj, err := s.c.GetObject(ctx, bucket, key, opts)
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, err
	}
	return obj, nil
}

func (s sdk) RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error {
	return s.c.RemoveObject(ctx, bucket, key, opts)
}

func (s sdk) StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return s.c.StatObject(ctx, bucket, key, opts)
}

// Config holds connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

var _ model.Storage = (*Store)(nil)

type Store struct {
	api    objectAPI
	bucket string
}

// Open connects to MinIO and makes sure the bucket exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return newStore(ctx, sdk{c: client}, cfg.Bucket)
}

func newStore(ctx context.Context, api objectAPI, bucket string) (*Store, error) {
	exists, err := api.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}
	return &Store{api: api, bucket: bucket}, nil
}

func (s *Store) Upload(ctx context.Context, key string, reader io.Reader) error {
	if _, err := s.api.PutObject(ctx, s.bucket, key, reader, -1, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

func (s *Store) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.api.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("failed to get object %s: %w", key, model.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	return rc, nil
}

// Delete removes the object. Missing objects are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.api.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", key, err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := s.api.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object %s: %w", key, err)
	}
	return true, nil
}

func isNotFound(err error) bool {
	return minio.ToErrorResponse(err).Code == codeNotFound
}
