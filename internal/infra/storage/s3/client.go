package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultLinkTTL = 7 * 24 * time.Hour

// Uploader stores content under key and returns a URL it can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
}

type Config struct {
	Endpoint  string
	UseSSL    bool
	AccessKey string
	SecretKey string
	Bucket    string
	// LinkTTL bounds the presigned links handed out for private objects.
	LinkTTL time.Duration
}

// Client wraps a MinIO/S3 client over a private bucket.
type Client struct {
	bucket         string
	linkTTL        time.Duration
	client         *minio.Client
	logger         *slog.Logger
	bucketInitOnce sync.Once
	bucketInitErr  error
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	minioClient, err := minio.New(parseEndpoint(endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	ttl := cfg.LinkTTL
	if ttl <= 0 {
		ttl = defaultLinkTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{bucket: bucket, linkTTL: ttl, client: minioClient, logger: logger}, nil
}

// Upload stores the content and returns a presigned GET link.
func (c *Client) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	if reader == nil {
		return "", errors.New("s3: reader is required")
	}
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("s3: object key is required")
	}
	if err := c.ensureBucket(ctx); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := c.client.PutObject(ctx, c.bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("s3: put object: %w", err)
	}
	link, err := c.client.PresignedGetObject(ctx, c.bucket, key, c.linkTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("s3: presign: %w", err)
	}
	c.logger.Info("s3 upload completed", "bucket", c.bucket, "key", key)
	return link.String(), nil
}

func (c *Client) ensureBucket(ctx context.Context) error {
	c.bucketInitOnce.Do(func() {
		exists, err := c.client.BucketExists(ctx, c.bucket)
		if err != nil {
			c.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			c.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
		}
	})
	return c.bucketInitErr
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

var _ Uploader = (*Client)(nil)
