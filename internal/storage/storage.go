package storage

import (
	"context"
	"io"
	"time"
)

// Service stores avatar images in remote object storage.
type Service interface {
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader) (string, error)
	PresignGet(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}
