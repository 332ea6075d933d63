// Package objectstore uploads CSV exports to an S3-compatible bucket.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pscheid92/textpulse/internal/adapter/metrics"
	"github.com/pscheid92/textpulse/internal/platform/retry"
)

const csvContentType = "text/csv; charset=utf-8"

// Client is the subset of *minio.Client the archiver uses.
type Client interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	URLExpiry time.Duration
}

// Archiver implements domain.ExportArchiver.
type Archiver struct {
	client  Client
	bucket  string
	expiry  time.Duration
	policy  retry.Policy
	metrics *metrics.EventMetrics
}

// Dial creates a MinIO client for opts and ensures the bucket exists.
func Dial(ctx context.Context, opts Options, m *metrics.EventMetrics) (*Archiver, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}
	return NewArchiver(ctx, client, opts.Bucket, opts.URLExpiry, m)
}

func NewArchiver(ctx context.Context, client Client, bucket string, expiry time.Duration, m *metrics.EventMetrics) (*Archiver, error) {
	a := &Archiver{
		client: client,
		bucket: bucket,
		expiry: expiry,
		policy: retry.Policy{
			MaxAttempts:      3,
			InitialBackoff:   200 * time.Millisecond,
			RateLimitBackoff: time.Second,
			MaxBackoff:       2 * time.Second,
			OnRetry: func(attempt int, err error, backoff time.Duration) {
				slog.Warn("Object store upload failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
			},
		},
		metrics: m,
	}
	if err := a.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Archiver) ensureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	slog.Info("Created export bucket", "bucket", a.bucket)
	return nil
}

// Archive uploads data under key and returns a presigned download URL.
func (a *Archiver) Archive(ctx context.Context, key string, data []byte) (string, error) {
	err := retry.DoVoid(ctx, a.policy, classify, func(ctx context.Context) error {
		_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: csvContentType,
		})
		return err
	})
	if err != nil {
		a.metrics.RecordArchive("error")
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	u, err := a.client.PresignedGetObject(ctx, a.bucket, key, a.expiry, nil)
	if err != nil {
		a.metrics.RecordArchive("error")
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}

	a.metrics.RecordArchive("success")
	return u.String(), nil
}

func classify(err error) retry.Action {
	if action := retry.Transient(err); action == retry.Stop {
		return action
	}

	switch status := minio.ToErrorResponse(err).StatusCode; {
	case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable:
		return retry.After
	case status >= 400 && status < 500:
		return retry.Stop
	default:
		return retry.Retry
	}
}
