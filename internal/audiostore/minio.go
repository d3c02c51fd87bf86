package audiostore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"AIAvatar/internal/config"
	"AIAvatar/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOStore keeps audio blobs in an object-store bucket, for deployments
// where several service instances share one answer store.
type MinIOStore struct {
	log    *logger.Logger
	client *minio.Client
	bucket string
}

// NewMinIOStore connects to the object store and ensures the bucket exists.
func NewMinIOStore(ctx context.Context, cfg *config.MinIOConfig, log *logger.Logger) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket '%s': %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket '%s': %w", cfg.Bucket, err)
		}
	}

	log.WithPayload(map[string]any{"endpoint": cfg.Endpoint, "bucket": cfg.Bucket}).Info("Connected to MinIO audio store")
	return &MinIOStore{log: log, client: client, bucket: cfg.Bucket}, nil
}

// Put uploads the blob as an MP3 object named name.
func (s *MinIOStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "audio/mpeg"})
	if err != nil {
		return "", fmt.Errorf("failed to upload audio object '%s': %w", name, err)
	}
	return name, nil
}

// Get downloads the object for a reference produced by Put.
func (s *MinIOStore) Get(ctx context.Context, ref string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio object '%s': %w", ref, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio object '%s': %w", ref, err)
	}
	return data, nil
}

var _ Store = (*MinIOStore)(nil)
