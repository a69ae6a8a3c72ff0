// Package storage uploads project images to S3-compatible object storage
// and returns publicly addressable URLs.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds S3-compatible storage configuration.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	PublicURL string
}

// Uploader stores image blobs under a projects/ prefix.
type Uploader struct {
	cfg    Config
	client s3Client
}

// NewUploader creates an Uploader. It returns a disabled (nil-client)
// uploader when credentials are missing; Configured reports that state.
func NewUploader(cfg Config) *Uploader {
	u := &Uploader{cfg: cfg}
	if cfg.Bucket != "" && cfg.AccessKey != "" && cfg.SecretKey != "" {
		u.client = newS3Client(cfg)
	}
	return u
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Configured returns true if the uploader has working credentials.
func (u *Uploader) Configured() bool {
	return u.client != nil
}

// UploadImage stores the image under a fresh random key, retrying transient
// failures with bounded exponential backoff, and returns its public URL.
func (u *Uploader) UploadImage(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	if u.client == nil {
		return "", fmt.Errorf("image storage not configured")
	}

	key := "projects/" + uuid.NewString() + strings.ToLower(path.Ext(filename))

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(u.cfg.Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	return u.PublicURL(key), nil
}

// Delete removes the object behind a previously returned public URL.
// Unknown URLs are ignored.
func (u *Uploader) Delete(ctx context.Context, url string) error {
	if u.client == nil {
		return fmt.Errorf("image storage not configured")
	}
	key, ok := u.keyFromURL(url)
	if !ok {
		return nil
	}
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

// PublicURL returns the address where an uploaded key is served from.
func (u *Uploader) PublicURL(key string) string {
	base := u.cfg.PublicURL
	if base == "" {
		base = strings.TrimSuffix(u.cfg.Endpoint, "/") + "/" + u.cfg.Bucket
	}
	return strings.TrimSuffix(base, "/") + "/" + key
}

func (u *Uploader) keyFromURL(url string) (string, bool) {
	base := strings.TrimSuffix(u.cfg.PublicURL, "/")
	if base == "" {
		base = strings.TrimSuffix(u.cfg.Endpoint, "/") + "/" + u.cfg.Bucket
	}
	if !strings.HasPrefix(url, base+"/") {
		return "", false
	}
	return strings.TrimPrefix(url, base+"/"), true
}
