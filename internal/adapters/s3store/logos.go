// Package s3store keeps uploaded branding assets in S3.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"review_hero/internal/adapters/observability"
)

// putter is the part of *s3.Client the store needs.
type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type LogoStore struct {
	client putter
	bucket string
	region string
}

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
}

// New loads the default AWS credential chain for region.
func New(ctx context.Context, bucket, region string) (*LogoStore, error) {
	if bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS configuration: %w", err)
	}
	return &LogoStore{client: s3.NewFromConfig(cfg), bucket: bucket, region: region}, nil
}

// PutLogo uploads body under logos/<account>/ and returns its public URL.
// Each upload gets a new key so cached copies of the old logo never linger.
func (s *LogoStore) PutLogo(ctx context.Context, accountID, contentType string, body io.Reader, size int64) (string, error) {
	ext, ok := extensions[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}
	key := fmt.Sprintf("logos/%s/%s.%s", accountID, uuid.NewString(), ext)

	start := time.Now()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	status := 200
	if err != nil {
		status = 500
	}
	observability.ObserveExternal("s3", "put_object", status, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.publicURL(key), nil
}

func (s *LogoStore) publicURL(key string) string {
	if s.region == "" || s.region == "us-east-1" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
