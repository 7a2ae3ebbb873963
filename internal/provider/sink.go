package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"artgen-go/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ImageSink publishes raw image bytes and returns a URL that serves them.
type ImageSink interface {
	Publish(ctx context.Context, data []byte, contentType string) (string, error)
}

// DataURISink inlines images as data: URIs.
type DataURISink struct{}

func (DataURISink) Publish(_ context.Context, data []byte, contentType string) (string, error) {
	return Image{Data: data, MimeType: contentType}.DataURI(), nil
}

// uploader is the part of manager.Uploader used by S3Sink.
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Sink uploads images to an S3 compatible bucket.
type S3Sink struct {
	uploader      uploader
	bucket        string
	publicBaseURL string
	keyPrefix     string
}

// NewS3Sink builds a sink from configuration.
func NewS3Sink(cfg config.S3Config) (*S3Sink, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("s3 bucket is not configured")
	}

	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		opts.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		)
	}

	return &S3Sink{
		uploader:      manager.NewUploader(s3.New(opts)),
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		keyPrefix:     "generated",
	}, nil
}

// Publish uploads data under a random key.
func (s *S3Sink) Publish(ctx context.Context, data []byte, contentType string) (string, error) {
	key := fmt.Sprintf("%s/%s%s", s.keyPrefix, uuid.NewString(), extensionFor(contentType))

	result, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		var mu manager.MultiUploadFailure
		if errors.As(err, &mu) {
			return "", fmt.Errorf("multi-upload failure (upload_id: %s): %w", mu.UploadID(), mu)
		}
		return "", fmt.Errorf("upload image: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"bucket": s.bucket,
		"key":    key,
	}).Debug("uploaded generated image")

	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key, nil
	}
	return result.Location, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
