// Package services hosts the long-running pieces tying the ledger to the
// outside world, chiefly the remote document syncer.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
	"budgetbook/internal/persist"
	"budgetbook/internal/remote"
)

// SyncerConfig holds configuration for the blob syncer.
type SyncerConfig struct {
	// PollInterval is how often the remote document is compared (default: 5m)
	PollInterval time.Duration

	// UploadOnSave mirrors every local save to the remote store.
	UploadOnSave bool
}

// DefaultSyncerConfig returns sensible defaults.
func DefaultSyncerConfig() SyncerConfig {
	return SyncerConfig{
		PollInterval: 5 * time.Minute,
		UploadOnSave: true,
	}
}

// BlobSyncer keeps the local document and a remote blob converged under a
// last-writer-wins policy: a remote document with a newer server timestamp
// replaces local state wholesale, local saves overwrite the remote copy.
// Local edits made between polls lose to a newer remote document; that is
// the contract, not a bug.
type BlobSyncer struct {
	ledger   *ledger.Ledger
	blob     remote.Blob
	defaults core.Defaults
	config   SyncerConfig

	// Lifecycle management
	mu         sync.Mutex
	running    bool
	stopCh     chan struct{}
	doneCh     chan struct{}
	lastSynced time.Time
}

// NewBlobSyncer creates a syncer over the given ledger and provider.
// Defaults are re-merged into downloaded documents the same way Open merges
// them into loaded ones.
func NewBlobSyncer(led *ledger.Ledger, blob remote.Blob, defaults core.Defaults, config SyncerConfig) *BlobSyncer {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultSyncerConfig().PollInterval
	}
	return &BlobSyncer{
		ledger:   led,
		blob:     blob,
		defaults: defaults,
		config:   config,
	}
}

// Hook returns the save hook that mirrors local saves to the remote store.
// Register it with the ledger when UploadOnSave is enabled.
func (s *BlobSyncer) Hook() ledger.SaveHook {
	return func(ctx context.Context, snapshot *core.State) {
		if !s.config.UploadOnSave || snapshot == nil {
			return
		}
		if err := s.uploadState(ctx, snapshot); err != nil {
			slog.WarnContext(ctx, "Upload after save failed", "error", err)
		}
	}
}

// Start begins the poll loop. Returns an error if already running.
func (s *BlobSyncer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("blob syncer is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Blob syncer started",
		"poll_interval", s.config.PollInterval,
		"upload_on_save", s.config.UploadOnSave)

	return nil
}

// Stop gracefully stops the poll loop. An in-flight poll finishes; it is
// simply not rescheduled.
func (s *BlobSyncer) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)

	select {
	case <-s.doneCh:
		slog.InfoContext(ctx, "Blob syncer stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Blob syncer stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	return nil
}

// IsRunning returns whether the poll loop is active.
func (s *BlobSyncer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *BlobSyncer) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	// Poll immediately on startup.
	s.pollOnce(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *BlobSyncer) pollOnce(ctx context.Context) {
	if err := s.Poll(ctx); err != nil {
		slog.ErrorContext(ctx, "Sync poll failed", "error", err)
	}
}

// Poll runs one compare-and-converge cycle: a missing remote document is
// seeded from local state, a newer one replaces local state, anything else
// is a no-op.
func (s *BlobSyncer) Poll(ctx context.Context) error {
	info, err := s.blob.Stat(ctx)
	if errors.Is(err, remote.ErrBlobNotFound) {
		slog.InfoContext(ctx, "No remote document yet, seeding from local state")
		return s.UploadNow(ctx)
	}
	if err != nil {
		return fmt.Errorf("stat remote document: %w", err)
	}

	s.mu.Lock()
	last := s.lastSynced
	s.mu.Unlock()
	if !info.ModifiedAt.After(last) {
		return nil
	}

	data, err := s.blob.Download(ctx)
	if err != nil {
		return fmt.Errorf("download remote document: %w", err)
	}
	st, err := persist.Decode(data)
	if err != nil {
		return fmt.Errorf("decode remote document: %w", err)
	}
	for _, change := range persist.Migrate(st, s.defaults, s.ledger.CurrentYear()) {
		slog.InfoContext(ctx, "Migrated remote document", "change", change)
	}

	local := s.ledger.Snapshot()
	slog.InfoContext(ctx, "Applying newer remote document",
		"remote_modified", info.ModifiedAt,
		"local_transactions", len(local.Transactions),
		"remote_transactions", len(st.Transactions))
	if err := s.ledger.ReplaceState(ctx, st); err != nil {
		return fmt.Errorf("replace local state: %w", err)
	}

	s.mu.Lock()
	s.lastSynced = info.ModifiedAt
	s.mu.Unlock()
	return nil
}

// UploadNow pushes the current local document to the remote store.
func (s *BlobSyncer) UploadNow(ctx context.Context) error {
	return s.uploadState(ctx, s.ledger.Snapshot())
}

// Check reports the remote document metadata, exercising the provider's
// auth path. ErrBlobNotFound means the provider works but holds no document.
func (s *BlobSyncer) Check(ctx context.Context) (remote.BlobInfo, error) {
	return s.blob.Stat(ctx)
}

func (s *BlobSyncer) uploadState(ctx context.Context, st *core.State) error {
	data, err := persist.Encode(st, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := s.blob.Upload(ctx, data); err != nil {
		return fmt.Errorf("upload document: %w", err)
	}
	// Record the server's timestamp so our own upload does not read back as
	// a newer remote document on the next poll.
	if info, err := s.blob.Stat(ctx); err == nil {
		s.mu.Lock()
		s.lastSynced = info.ModifiedAt
		s.mu.Unlock()
	}
	slog.InfoContext(ctx, "Uploaded document to remote store", "bytes", len(data))
	return nil
}
