package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"portfolio-backend/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioUploader stores media assets in a single public-read bucket. The
// public identifier is the object name, so deletion needs no extra lookup.
type MinioUploader struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

func NewMinioUploader(cfg *config.MinIOConfig) (*MinioUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("error initializing MinIO client: %w", err)
	}

	exists, err := client.BucketExists(context.Background(), cfg.MediaBucket)
	if err != nil {
		return nil, fmt.Errorf("error checking bucket %s: %w", cfg.MediaBucket, err)
	}
	if !exists {
		err = client.MakeBucket(context.Background(), cfg.MediaBucket, minio.MakeBucketOptions{Region: cfg.Region})
		if err != nil {
			return nil, fmt.Errorf("error creating bucket %s: %w", cfg.MediaBucket, err)
		}
		log.Printf("Created bucket: %s", cfg.MediaBucket)
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	endpoint := cfg.PublicEndpoint
	if endpoint == "" {
		endpoint = cfg.Endpoint
	}

	log.Println("Successfully initialized MinIO client")
	return &MinioUploader{
		client:  client,
		bucket:  cfg.MediaBucket,
		baseURL: fmt.Sprintf("%s://%s/%s", scheme, endpoint, cfg.MediaBucket),
	}, nil
}

func (u *MinioUploader) Upload(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (Asset, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := u.client.PutObject(ctx, u.bucket, name, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Asset{}, fmt.Errorf("error uploading %s to MinIO: %w", name, err)
	}

	return Asset{
		URL:      u.baseURL + "/" + name,
		PublicID: name,
	}, nil
}

func (u *MinioUploader) Delete(ctx context.Context, publicID string) error {
	if strings.Contains(publicID, "..") {
		return fmt.Errorf("invalid object name: %s", publicID)
	}

	err := u.client.RemoveObject(ctx, u.bucket, publicID, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("error deleting %s from MinIO: %w", publicID, err)
	}
	return nil
}
