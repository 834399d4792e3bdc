package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Service stores avatar objects in Amazon S3 (or compatible APIs).
type S3Service struct {
	client   *s3.Client
	uploader *manager.Uploader
	presign  *s3.PresignClient
}

func NewS3Service(client *s3.Client) *S3Service {
	return &S3Service{
		client:   client,
		uploader: manager.NewUploader(client),
		presign:  s3.NewPresignClient(client),
	}
}

func (s *S3Service) Upload(ctx context.Context, bucket, key, contentType string, body io.Reader) (string, error) {
	if bucket == "" {
		return "", fmt.Errorf("storage bucket is required")
	}
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
		ACL:    types.ObjectCannedACLPrivate,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", bucket, key), nil
}

func (s *S3Service) PresignGet(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	if bucket == "" {
		return "", fmt.Errorf("storage bucket is required")
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

var _ Service = (*S3Service)(nil)
