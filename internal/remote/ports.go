// Package remote defines the blob-store contract the sync layer speaks: one
// JSON document per budget, overwritten wholesale and compared by server
// modification time. Any provider that can upload, download and stat a single
// named blob satisfies it.
package remote

import (
	"context"
	"errors"
	"time"
)

// ErrBlobNotFound reports that the remote document does not exist yet. First
// sync on a fresh provider hits this on every download and stat.
var ErrBlobNotFound = errors.New("remote blob not found")

// BlobInfo is the metadata driving the last-writer-wins comparison.
type BlobInfo struct {
	ModifiedAt time.Time
	Size       int64
}

// Ports for blob-store adapters.
type (
	Uploader interface {
		Upload(ctx context.Context, data []byte) error
	}

	Downloader interface {
		Download(ctx context.Context) ([]byte, error)
	}

	Stater interface {
		Stat(ctx context.Context) (BlobInfo, error)
	}

	// Blob is the full provider contract.
	Blob interface {
		Uploader
		Downloader
		Stater
	}
)
