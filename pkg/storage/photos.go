package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/example/shopdesk/pkg/config"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// PhotoStore keeps product photos in a MinIO bucket. The reference saved on
// the product is the object key.
type PhotoStore struct {
	client *minio.Client
	bucket string
}

func NewPhotoStore(ctx context.Context, cfg *config.MinIOConfig) (*PhotoStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &PhotoStore{client: client, bucket: cfg.Bucket}, nil
}

// PhotoKey builds the object key for a product photo, or reports that the
// content type is not an accepted image format.
func PhotoKey(productID uint64, contentType string) (string, error) {
	ext, ok := allowedPhotoTypes[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("unsupported photo type %q", contentType)
	}
	return path.Join("products", fmt.Sprint(productID), uuid.NewString()+ext), nil
}

func (s *PhotoStore) PutPhoto(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload photo: %w", err)
	}
	return nil
}

func (s *PhotoStore) RemovePhoto(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove photo: %w", err)
	}
	return nil
}
