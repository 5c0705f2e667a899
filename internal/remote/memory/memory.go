// Package memory is an in-process blob store for tests.
package memory

import (
	"context"
	"sync"
	"time"

	"budgetbook/internal/remote"
)

type Blob struct {
	mu       sync.Mutex
	data     []byte
	modified time.Time
	uploads  int
}

var _ remote.Blob = (*Blob)(nil)

func New() *Blob {
	return &Blob{}
}

func (b *Blob) Upload(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append([]byte(nil), data...)
	b.modified = time.Now().UTC()
	b.uploads++
	return nil
}

func (b *Blob) Download(_ context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil, remote.ErrBlobNotFound
	}
	return append([]byte(nil), b.data...), nil
}

func (b *Blob) Stat(_ context.Context) (remote.BlobInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return remote.BlobInfo{}, remote.ErrBlobNotFound
	}
	return remote.BlobInfo{ModifiedAt: b.modified, Size: int64(len(b.data))}, nil
}

// Put seeds the blob with explicit metadata without touching the upload
// counter, so tests can stage a remote state.
func (b *Blob) Put(data []byte, modifiedAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append([]byte(nil), data...)
	b.modified = modifiedAt
}

// Uploads reports how many uploads the blob accepted.
func (b *Blob) Uploads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uploads
}
