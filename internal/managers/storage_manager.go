package managers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"
)

// StorageMgr stores profile photos in an S3-compatible object store and hands
// out short-lived presigned URLs for reading them.
type StorageMgr interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// StorageManager is the S3-backed implementation of StorageMgr.
type StorageManager struct {
	api     *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// NewStorageManagerFromEnv initialises a StorageManager from environment variables.
//
// Required: S3_BUCKET, S3_ACCESS_KEY, S3_SECRET_KEY.
// Optional: S3_ENDPOINT (for S3-compatible stores), S3_REGION (default "eu-central-1").
func NewStorageManagerFromEnv() (StorageMgr, error) {
	bucket := os.Getenv("S3_BUCKET")
	accessKey := os.Getenv("S3_ACCESS_KEY")
	secretKey := os.Getenv("S3_SECRET_KEY")
	endpoint := strings.TrimSpace(os.Getenv("S3_ENDPOINT"))

	region := os.Getenv("S3_REGION")
	if region == "" {
		region = "eu-central-1"
	}

	if bucket == "" {
		return nil, errors.New("S3_BUCKET is required")
	}
	if accessKey == "" || secretKey == "" {
		return nil, errors.New("S3_ACCESS_KEY and S3_SECRET_KEY are required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(
		context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		awsconfig.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	log.Info("Initializing storage manager for bucket ", bucket)

	return &StorageManager{
		api:     client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
	}, nil
}

// Upload stores the object under the given key.
func (sm *StorageManager) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := sm.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &sm.bucket,
		Key:           &key,
		Body:          body,
		ContentLength: &size,
		ContentType:   &contentType,
	})
	return err
}

// PresignURL generates a presigned GET URL for the provided key and TTL.
func (sm *StorageManager) PresignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := sm.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &sm.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// disabledStorage stands in when object storage is not configured, so the
// rest of the application can start without it.
type disabledStorage struct{}

// NewDisabledStorage returns a StorageMgr whose operations always fail.
func NewDisabledStorage() StorageMgr {
	return &disabledStorage{}
}

func (disabledStorage) Upload(context.Context, string, io.Reader, int64, string) error {
	return fmt.Errorf("object storage is not configured")
}

func (disabledStorage) PresignURL(context.Context, string, time.Duration) (string, error) {
	return "", fmt.Errorf("object storage is not configured")
}
