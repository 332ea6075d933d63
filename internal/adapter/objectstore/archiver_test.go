package objectstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/textpulse/internal/adapter/metrics"
	"github.com/pscheid92/textpulse/internal/platform/retry"
)

type fakeClient struct {
	exists     bool
	existsErr  error
	made       []string
	putErrs    []error
	puts       int
	objects    map[string][]byte
	presignErr error
}

func (f *fakeClient) BucketExists(context.Context, string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeClient) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.made = append(f.made, bucket)
	return nil
}

func (f *fakeClient) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.puts++
	if len(f.putErrs) > 0 {
		err := f.putErrs[0]
		f.putErrs = f.putErrs[1:]
		if err != nil {
			return minio.UploadInfo{}, err
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = data
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

func (f *fakeClient) PresignedGetObject(_ context.Context, bucket, key string, expires time.Duration, _ url.Values) (*url.URL, error) {
	if f.presignErr != nil {
		return nil, f.presignErr
	}
	return &url.URL{
		Scheme:   "https",
		Host:     "objects.example.com",
		Path:     "/" + bucket + "/" + key,
		RawQuery: "X-Amz-Expires=" + expires.String(),
	}, nil
}

func newTestArchiver(t *testing.T, client *fakeClient) (*Archiver, *metrics.EventMetrics) {
	t.Helper()
	m := metrics.NewEventMetrics(prometheus.NewRegistry())
	a, err := NewArchiver(context.Background(), client, "exports", time.Hour, m)
	require.NoError(t, err)
	a.policy.InitialBackoff = time.Millisecond
	a.policy.RateLimitBackoff = time.Millisecond
	a.policy.OnRetry = nil
	return a, m
}

func TestNewArchiver_CreatesMissingBucket(t *testing.T) {
	client := &fakeClient{}
	newTestArchiver(t, client)
	assert.Equal(t, []string{"exports"}, client.made)
}

func TestNewArchiver_ExistingBucket(t *testing.T) {
	client := &fakeClient{exists: true}
	newTestArchiver(t, client)
	assert.Empty(t, client.made)
}

func TestNewArchiver_BucketCheckFails(t *testing.T) {
	_, err := NewArchiver(context.Background(), &fakeClient{existsErr: errors.New("dial tcp: refused")}, "exports", time.Hour, nil)
	assert.ErrorContains(t, err, "failed to check bucket")
}

func TestArchive_UploadsAndPresigns(t *testing.T) {
	client := &fakeClient{exists: true}
	a, m := newTestArchiver(t, client)

	link, err := a.Archive(context.Background(), "exports/user-1/a.csv", []byte("text,sentiment\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://objects.example.com/exports/exports/user-1/a.csv?X-Amz-Expires=1h0m0s", link)
	assert.Equal(t, []byte("text,sentiment\n"), client.objects["exports/user-1/a.csv"])
	assert.InDelta(t, 1, testutil.ToFloat64(m.Archives.WithLabelValues("success")), 0)
}

func TestArchive_RetriesTransientFailures(t *testing.T) {
	client := &fakeClient{exists: true, putErrs: []error{errors.New("connection reset"), nil}}
	a, _ := newTestArchiver(t, client)

	_, err := a.Archive(context.Background(), "k.csv", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, 2, client.puts)
}

func TestArchive_DoesNotRetryClientErrors(t *testing.T) {
	denied := minio.ErrorResponse{StatusCode: http.StatusForbidden, Code: "AccessDenied"}
	client := &fakeClient{exists: true, putErrs: []error{denied}}
	a, m := newTestArchiver(t, client)

	_, err := a.Archive(context.Background(), "k.csv", []byte("x"))
	require.Error(t, err)

	var permanent *retry.PermanentError
	assert.ErrorAs(t, err, &permanent)
	assert.Equal(t, 1, client.puts)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Archives.WithLabelValues("error")), 0)
}

func TestArchive_PresignFailure(t *testing.T) {
	client := &fakeClient{exists: true, presignErr: errors.New("bad credentials")}
	a, _ := newTestArchiver(t, client)

	_, err := a.Archive(context.Background(), "k.csv", []byte("x"))
	assert.ErrorContains(t, err, "failed to presign")
}

func TestClassify(t *testing.T) {
	assert.Equal(t, retry.Stop, classify(context.Canceled))
	assert.Equal(t, retry.After, classify(minio.ErrorResponse{StatusCode: http.StatusServiceUnavailable}))
	assert.Equal(t, retry.After, classify(minio.ErrorResponse{StatusCode: http.StatusTooManyRequests}))
	assert.Equal(t, retry.Stop, classify(minio.ErrorResponse{StatusCode: http.StatusNotFound}))
	assert.Equal(t, retry.Retry, classify(minio.ErrorResponse{StatusCode: http.StatusInternalServerError}))
	assert.Equal(t, retry.Retry, classify(errors.New("i/o timeout")))
}
