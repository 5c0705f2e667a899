// Package gcs stores the budget document as one object in a Google Cloud
// Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"budgetbook/internal/remote"
)

type Client struct {
	client *storage.Client
	bucket string
	object string
}

var _ remote.Blob = (*Client)(nil)

// New builds a GCS client. Empty credentials fall back to Application
// Default Credentials.
func New(ctx context.Context, bucket, object string, credentialsJSON []byte) (*Client, error) {
	var opts []option.ClientOption
	if len(credentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(credentialsJSON))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Client{client: client, bucket: bucket, object: object}, nil
}

func (c *Client) Upload(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := c.client.Bucket(c.bucket).Object(c.object).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return c.describe(err, "write object")
	}
	if err := w.Close(); err != nil {
		return c.describe(err, "finalize upload")
	}
	return nil
}

func (c *Client) Download(ctx context.Context) ([]byte, error) {
	r, err := c.client.Bucket(c.bucket).Object(c.object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, remote.ErrBlobNotFound
		}
		return nil, c.describe(err, "open object reader")
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}

func (c *Client) Stat(ctx context.Context) (remote.BlobInfo, error) {
	attrs, err := c.client.Bucket(c.bucket).Object(c.object).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return remote.BlobInfo{}, remote.ErrBlobNotFound
		}
		return remote.BlobInfo{}, c.describe(err, "stat object")
	}
	return remote.BlobInfo{ModifiedAt: attrs.Updated, Size: attrs.Size}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// describe maps bucket permission failures to the IAM fix.
func (c *Client) describe(err error, op string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: credentials rejected, regenerate the service-account key: %w", op, err)
		case http.StatusForbidden:
			return fmt.Errorf("%s: access denied to gs://%s/%s, grant roles/storage.objectAdmin to the service account: %w", op, c.bucket, c.object, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
