package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/campuslink/alumninet/internal/config"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MediaStorage puts uploaded bytes into the object store and hands back
// a locator string. The rest of the system only ever stores and
// forwards the locator.
type MediaStorage struct {
	client *minio.Client
	bucket string
}

func NewMediaStorage(cfg *config.StorageConfig) (*MediaStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage client: %w", err)
	}

	return &MediaStorage{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MediaStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
}

// Put stores one object under a fresh key and returns its locator.
func (s *MediaStorage) Put(ctx context.Context, reader io.Reader, size int64, filename, contentType string) (string, error) {
	key := fmt.Sprintf("submissions/%s%s", uuid.NewString(), path.Ext(filename))

	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// PresignGet returns a short-lived read URL for a locator.
func (s *MediaStorage) PresignGet(ctx context.Context, locator string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, locator, expiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
