// Package storage provides the adapter for the external media store that
// hosts listing images.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"cozystay/internal/config"
	"cozystay/internal/middleware"
	"cozystay/internal/models"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MediaStore uploads and removes listing images on the remote media host.
// Upload returns a stable public URL plus the storage identifier needed to
// remove the object later.
type MediaStore interface {
	Upload(ctx context.Context, filename string, data []byte) (models.ImageRef, error)
	Remove(ctx context.Context, storageID string) error
}

type minioStore struct {
	client *minio.Client
	bucket string
}

// NewMediaStore connects to the S3-compatible media host configured in cfg
// and ensures the bucket exists.
func NewMediaStore(cfg *config.Config) (MediaStore, error) {
	client, err := minio.New(cfg.MediaEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MediaAccessKey, cfg.MediaSecretKey, ""),
		Secure: cfg.MediaUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create media store client for %s: %w", cfg.MediaEndpoint, err)
	}

	ctx := context.Background()
	if err := client.MakeBucket(ctx, cfg.MediaBucket, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := client.BucketExists(ctx, cfg.MediaBucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("failed to create or verify bucket %s: %w", cfg.MediaBucket, err)
		}
	}

	middleware.Logger.Info("Media store connected",
		slog.String("endpoint", cfg.MediaEndpoint),
		slog.String("bucket", cfg.MediaBucket),
	)

	return &minioStore{client: client, bucket: cfg.MediaBucket}, nil
}

func (s *minioStore) Upload(ctx context.Context, filename string, data []byte) (models.ImageRef, error) {
	// Unique object key; keep the original extension for content negotiation.
	objectKey := fmt.Sprintf("listings/%s%s", uuid.New().String(), filepath.Ext(filename))

	_, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: http.DetectContentType(data),
	})
	if err != nil {
		middleware.MediaStoreOperations.WithLabelValues("upload", "error").Inc()
		return models.ImageRef{}, fmt.Errorf("failed to upload object %s: %w", objectKey, err)
	}
	middleware.MediaStoreOperations.WithLabelValues("upload", "ok").Inc()

	return models.ImageRef{
		URL:       fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, objectKey),
		StorageID: objectKey,
	}, nil
}

func (s *minioStore) Remove(ctx context.Context, storageID string) error {
	err := s.client.RemoveObject(ctx, s.bucket, storageID, minio.RemoveObjectOptions{})
	if err != nil {
		middleware.MediaStoreOperations.WithLabelValues("remove", "error").Inc()
		return fmt.Errorf("failed to remove object %s: %w", storageID, err)
	}
	middleware.MediaStoreOperations.WithLabelValues("remove", "ok").Inc()
	return nil
}
