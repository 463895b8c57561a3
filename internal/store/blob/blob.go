// Package blob stores documents as objects in a Google Cloud Storage bucket.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"

	"keuangan/internal/store"
)

// ErrMissingCredentials is returned by writes when the store was built
// without credentials.
var ErrMissingCredentials = errors.New("blob credentials are not configured")

// ObjectClient is the subset of the object API the store needs.
type ObjectClient interface {
	Read(ctx context.Context, object string) ([]byte, error)
	Write(ctx context.Context, object string, body []byte) error
}

// Documents maps document names to <prefix>/<name> objects.
type Documents struct {
	client ObjectClient
	prefix string
}

func NewDocuments(client ObjectClient, prefix string) *Documents {
	return &Documents{client: client, prefix: strings.Trim(prefix, "/")}
}

// New returns a store that serves fallback values when an object cannot be
// read, so a cold or unreachable bucket still renders pages.
func New(client ObjectClient, prefix string, logger *slog.Logger) *store.JSONStore {
	return store.NewJSONStore(NewDocuments(client, prefix), store.TolerateReadErrors(logger))
}

func (d *Documents) Object(name string) string {
	if d.prefix == "" {
		return name
	}
	return path.Join(d.prefix, name)
}

func (d *Documents) Get(ctx context.Context, name string) ([]byte, error) {
	if d.client == nil {
		return nil, store.ErrNoDocument
	}
	return d.client.Read(ctx, d.Object(name))
}

func (d *Documents) Put(ctx context.Context, name string, body []byte) error {
	if d.client == nil {
		return ErrMissingCredentials
	}
	return d.client.Write(ctx, d.Object(name), body)
}

// GCSClient talks to the Cloud Storage JSON API.
type GCSClient struct {
	svc    *storage.Service
	bucket string
}

// NewGCSClient builds a client from service account JSON.
func NewGCSClient(ctx context.Context, bucket string, credentialsJSON []byte) (*GCSClient, error) {
	if bucket == "" {
		return nil, errors.New("blob bucket is required")
	}
	if len(credentialsJSON) == 0 {
		return nil, ErrMissingCredentials
	}
	svc, err := storage.NewService(ctx, option.WithCredentialsJSON(credentialsJSON), option.WithScopes(storage.DevstorageReadWriteScope))
	if err != nil {
		return nil, fmt.Errorf("storage service: %w", err)
	}
	return &GCSClient{svc: svc, bucket: bucket}, nil
}

func (c *GCSClient) Read(ctx context.Context, object string) ([]byte, error) {
	resp, err := c.svc.Objects.Get(c.bucket, object).Context(ctx).Download()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return nil, store.ErrNoDocument
		}
		return nil, fmt.Errorf("download %s: %w", object, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *GCSClient) Write(ctx context.Context, object string, body []byte) error {
	obj := &storage.Object{
		Name:         object,
		ContentType:  "application/json",
		CacheControl: "no-store",
	}
	_, err := c.svc.Objects.Insert(c.bucket, obj).
		Media(bytes.NewReader(body), googleapi.ContentType("application/json")).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("upload %s: %w", object, err)
	}
	return nil
}
