// Package gdrive stores the budget document as a single file on Google
// Drive, found by name inside a configured folder and overwritten in place.
package gdrive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"budgetbook/internal/remote"
)

type Client struct {
	svc      *drive.Service
	folderID string
	fileName string
}

var _ remote.Blob = (*Client)(nil)

// New builds a Drive client with service-account credentials. An empty
// credentials slice falls back to Application Default Credentials; an empty
// folder ID searches the whole drive.file-visible space.
func New(ctx context.Context, folderID, fileName string, credentialsJSON []byte) (*Client, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, errors.New("drive file name is empty")
	}
	opts := []option.ClientOption{option.WithScopes(drive.DriveFileScope)}
	if len(credentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(credentialsJSON))
	}
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Client{svc: svc, folderID: folderID, fileName: fileName}, nil
}

// Upload overwrites the remote document, creating it on first use.
func (c *Client) Upload(ctx context.Context, data []byte) error {
	existing, err := c.find(ctx)
	switch {
	case errors.Is(err, remote.ErrBlobNotFound):
		meta := &drive.File{Name: c.fileName, MimeType: "application/json"}
		if c.folderID != "" {
			meta.Parents = []string{c.folderID}
		}
		if _, err := c.svc.Files.Create(meta).Media(bytes.NewReader(data)).Context(ctx).Do(); err != nil {
			return c.describe(err, "create drive file")
		}
		slog.InfoContext(ctx, "Created remote document on Drive", "name", c.fileName, "bytes", len(data))
		return nil
	case err != nil:
		return err
	}
	if _, err := c.svc.Files.Update(existing.Id, &drive.File{}).Media(bytes.NewReader(data)).Context(ctx).Do(); err != nil {
		return c.describe(err, "update drive file")
	}
	return nil
}

func (c *Client) Download(ctx context.Context) ([]byte, error) {
	existing, err := c.find(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := c.svc.Files.Get(existing.Id).Context(ctx).Download()
	if err != nil {
		return nil, c.describe(err, "download drive file")
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read drive file body: %w", err)
	}
	return data, nil
}

func (c *Client) Stat(ctx context.Context) (remote.BlobInfo, error) {
	existing, err := c.find(ctx)
	if err != nil {
		return remote.BlobInfo{}, err
	}
	mod, err := time.Parse(time.RFC3339, existing.ModifiedTime)
	if err != nil {
		return remote.BlobInfo{}, fmt.Errorf("parse drive modifiedTime %q: %w", existing.ModifiedTime, err)
	}
	return remote.BlobInfo{ModifiedAt: mod, Size: existing.Size}, nil
}

// find locates the document by name, newest metadata included.
func (c *Client) find(ctx context.Context) (*drive.File, error) {
	q := fmt.Sprintf("name = '%s' and trashed = false", escapeQuery(c.fileName))
	if c.folderID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(c.folderID))
	}
	list, err := c.svc.Files.List().Q(q).
		Fields("files(id, name, modifiedTime, size)").
		PageSize(1).Context(ctx).Do()
	if err != nil {
		return nil, c.describe(err, "list drive files")
	}
	if len(list.Files) == 0 {
		return nil, remote.ErrBlobNotFound
	}
	return list.Files[0], nil
}

// describe turns Drive auth failures into messages naming the fix instead of
// surfacing the raw transport error.
func (c *Client) describe(err error, op string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: credentials rejected, regenerate the service-account key and set GOOGLE_CREDENTIALS_JSON: %w", op, err)
		case http.StatusForbidden:
			return fmt.Errorf("%s: access denied, share folder %q with the service-account email (scope %s): %w", op, c.folderID, drive.DriveFileScope, err)
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", op, remote.ErrBlobNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, `'`, `\'`)
}
