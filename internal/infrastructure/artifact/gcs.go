package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/cenkalti/backoff/v4"
	multierror "github.com/hashicorp/go-multierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/felixgeelhaar/lcovreport/internal/application"
	"github.com/felixgeelhaar/lcovreport/internal/domain"
	"github.com/felixgeelhaar/lcovreport/internal/infrastructure/httpretry"
)

// ObjectWriter stores one object. It is satisfied by a GCS bucket and by
// test fakes.
type ObjectWriter interface {
	WriteObject(ctx context.Context, object, contentType string, data []byte) error
}

type bucket struct {
	handle *storage.BucketHandle
}

func (b bucket) WriteObject(ctx context.Context, object, contentType string, data []byte) error {
	w := b.handle.Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "no-cache"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload %s: only partially written: %w", object, err)
	}
	return w.Close()
}

// GCSPublisher uploads the bundle under gs://<Bucket>/<Name>/.
type GCSPublisher struct {
	Bucket string
	Name   string
	Store  ObjectWriter
	Retry  httpretry.Config
	Logger *slog.Logger

	client *storage.Client
}

var _ application.ArtifactPublisher = (*GCSPublisher)(nil)

// NewGCSPublisher connects with application default credentials unless opts
// say otherwise. Close releases the client.
func NewGCSPublisher(ctx context.Context, bucketName, name string, logger *slog.Logger, opts ...option.ClientOption) (*GCSPublisher, error) {
	opts = append([]option.ClientOption{option.WithUserAgent("lcovreport")}, opts...)
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &GCSPublisher{
		Bucket: bucketName,
		Name:   name,
		Store:  bucket{handle: client.Bucket(bucketName)},
		Retry:  httpretry.DefaultConfig(),
		Logger: logger,
		client: client,
	}, nil
}

// Close releases the underlying storage client, if any.
func (p *GCSPublisher) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

// Publish uploads every bundle file, retrying transient failures, and
// returns the gs:// location of index.html. All failed uploads are reported.
func (p *GCSPublisher) Publish(ctx context.Context, r domain.Report, generated time.Time) (string, error) {
	files, err := Bundle(r, generated)
	if err != nil {
		return "", err
	}
	dir := prefix(p.Name)

	var result *multierror.Error
	for _, f := range files {
		object := dir + "/" + f.Name
		if err := p.upload(ctx, object, f); err != nil {
			result = multierror.Append(result, fmt.Errorf("gs://%s/%s: %w", p.Bucket, object, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s/%s", p.Bucket, dir, IndexFile), nil
}

func (p *GCSPublisher) upload(ctx context.Context, object string, f File) error {
	op := func() error {
		err := p.Store.WriteObject(ctx, object, f.ContentType, f.Data)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		if p.Logger != nil {
			p.Logger.Warn("retrying upload", "object", object, "error", err, "wait", wait)
		}
	}
	return backoff.RetryNotify(op, backoff.WithContext(p.Retry.NewBackOff(), ctx), notify)
}

// retryable treats 5xx, 429 and non-API errors as transient.
func retryable(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code >= http.StatusInternalServerError || apiErr.Code == http.StatusTooManyRequests
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
