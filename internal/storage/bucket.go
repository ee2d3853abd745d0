package storage

import (
	"context"
	"fmt"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/drbn-app/drbn-backend/internal/config"
	"google.golang.org/api/option"
)

// Bucket abstracts the photo object store so pipelines and tests never
// depend on GCS directly.
type Bucket interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	SignedURL(key string, expiry time.Duration) (string, error)
}

type gcsBucket struct {
	client *gcs.Client
	name   string
}

// NewGCSBucket connects to the configured check-in photo bucket.
func NewGCSBucket(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (Bucket, error) {
	if cfg.CheckinBucket == "" {
		return nil, fmt.Errorf("missing CHECKIN_GCS_BUCKET")
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &gcsBucket{client: client, name: cfg.CheckinBucket}, nil
}

func (b *gcsBucket) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.name).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close writer for %s: %w", key, err)
	}
	return nil
}

func (b *gcsBucket) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := b.client.Bucket(b.name).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

func (b *gcsBucket) SignedURL(key string, expiry time.Duration) (string, error) {
	return b.client.Bucket(b.name).SignedURL(key, &gcs.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(expiry),
		Scheme:  gcs.SigningSchemeV4,
	})
}
