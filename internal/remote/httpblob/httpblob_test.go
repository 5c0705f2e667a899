package httpblob

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"budgetbook/internal/remote"
)

// blobServer is a minimal PUT/GET/HEAD document endpoint.
type blobServer struct {
	mu       sync.Mutex
	data     []byte
	modified time.Time
}

func (s *blobServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.data = data
		s.modified = time.Now().UTC()
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet, http.MethodHead:
		if s.data == nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Last-Modified", s.modified.Format(http.TimeFormat))
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(s.data)))
			return
		}
		_, _ = w.Write(s.data)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestClientRoundTrip(t *testing.T) {
	srv := httptest.NewServer(&blobServer{})
	defer srv.Close()
	c := New(srv.URL)
	ctx := context.Background()

	if _, err := c.Download(ctx); !errors.Is(err, remote.ErrBlobNotFound) {
		t.Fatalf("download before upload: %v, want ErrBlobNotFound", err)
	}
	if _, err := c.Stat(ctx); !errors.Is(err, remote.ErrBlobNotFound) {
		t.Fatalf("stat before upload: %v, want ErrBlobNotFound", err)
	}

	doc := []byte(`{"version":3}`)
	if err := c.Upload(ctx, doc); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	got, err := c.Download(ctx)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(got) != string(doc) {
		t.Errorf("downloaded %q, want %q", got, doc)
	}

	info, err := c.Stat(ctx)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.ModifiedAt.IsZero() {
		t.Error("Stat returned zero ModifiedAt")
	}
	if info.Size != int64(len(doc)) {
		t.Errorf("Stat size = %d, want %d", info.Size, len(doc))
	}
}

func TestClientAuthFailureMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	c := New(srv.URL)

	err := c.Upload(context.Background(), []byte("x"))
	if err == nil {
		t.Fatal("expected error for 403")
	}
	if !strings.Contains(err.Error(), "refused") {
		t.Errorf("error %q does not name the auth problem", err)
	}
}
