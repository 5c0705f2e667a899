// Package httpblob speaks the blob contract against any plain HTTP endpoint:
// PUT overwrites the document, GET fetches it, HEAD reports Last-Modified.
package httpblob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"budgetbook/internal/remote"
)

type Client struct {
	url  string
	http *http.Client
}

var _ remote.Blob = (*Client)(nil)

func New(url string) *Client {
	return &Client{url: url, http: &http.Client{Timeout: 30 * time.Second}}
}

func (c *Client) Upload(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()
	return c.checkStatus(resp, "upload")
}

func (c *Client) Download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if err := c.checkStatus(resp, "download"); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read download body: %w", err)
	}
	return data, nil
}

func (c *Client) Stat(ctx context.Context) (remote.BlobInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		return remote.BlobInfo{}, fmt.Errorf("build stat request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return remote.BlobInfo{}, fmt.Errorf("stat: %w", err)
	}
	defer resp.Body.Close()
	if err := c.checkStatus(resp, "stat"); err != nil {
		return remote.BlobInfo{}, err
	}

	info := remote.BlobInfo{Size: resp.ContentLength}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		mod, err := http.ParseTime(lm)
		if err != nil {
			return remote.BlobInfo{}, fmt.Errorf("parse Last-Modified %q: %w", lm, err)
		}
		info.ModifiedAt = mod
	}
	return info, nil
}

func (c *Client) checkStatus(resp *http.Response, op string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, remote.ErrBlobNotFound)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s %s: endpoint refused the request (%s), check the bearer token or endpoint ACL", op, c.url, resp.Status)
	default:
		return fmt.Errorf("%s %s: unexpected status %s", op, c.url, resp.Status)
	}
}
