package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
	"budgetbook/internal/persist"
	"budgetbook/internal/remote"
	remotemem "budgetbook/internal/remote/memory"
	"budgetbook/internal/storage"
)

func syncDefaults() core.Defaults {
	return core.Defaults{
		Categories:  []string{"groceries"},
		IncomeItems: []string{"salary"},
	}
}

func newSyncLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	led, err := ledger.Open(context.Background(), storage.NewMemoryStore(), syncDefaults(), ledger.Options{
		CurrentYear: 2025,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return led
}

func TestDefaultSyncerConfig(t *testing.T) {
	config := DefaultSyncerConfig()
	if config.PollInterval != 5*time.Minute {
		t.Errorf("expected PollInterval 5m, got %v", config.PollInterval)
	}
	if !config.UploadOnSave {
		t.Error("expected UploadOnSave enabled by default")
	}
}

func TestPollSeedsEmptyRemote(t *testing.T) {
	ctx := context.Background()
	led := newSyncLedger(t)
	if _, err := led.AddEntry(ctx, ledger.EntryInput{Item: "Super Market", Amount: 50, Month: 3, Year: 2025}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	blob := remotemem.New()
	s := NewBlobSyncer(led, blob, syncDefaults(), DefaultSyncerConfig())
	if err := s.Poll(ctx); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if blob.Uploads() != 1 {
		t.Fatalf("uploads = %d, want 1", blob.Uploads())
	}

	data, err := blob.Download(ctx)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	st, err := persist.Decode(data)
	if err != nil {
		t.Fatalf("Decode uploaded document: %v", err)
	}
	if len(st.Transactions) != 1 || st.Transactions[0].Item != "Super Market" {
		t.Errorf("uploaded transactions = %+v", st.Transactions)
	}
}

func TestPollAppliesNewerRemote(t *testing.T) {
	ctx := context.Background()
	led := newSyncLedger(t)
	if _, err := led.AddEntry(ctx, ledger.EntryInput{Item: "local only", Amount: 10, Month: 3, Year: 2025}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	remoteState := core.NewState()
	remoteState.Transactions = []core.Transaction{
		{ID: "r1", Month: 4, Year: 2025, Item: "from remote", Amount: -75, Type: core.Expense, Category: core.CategoryUncategorized},
	}
	data, err := persist.Encode(remoteState, time.Now().UTC())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	blob := remotemem.New()
	blob.Put(data, time.Now().Add(time.Hour))

	s := NewBlobSyncer(led, blob, syncDefaults(), DefaultSyncerConfig())
	// The hook must not fire for the sync path's own ReplaceState.
	led.AddSaveHook(s.Hook())

	if err := s.Poll(ctx); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	txs := led.Transactions()
	if len(txs) != 1 || txs[0].Item != "from remote" {
		t.Fatalf("transactions after poll = %+v", txs)
	}
	if blob.Uploads() != 0 {
		t.Errorf("download fed back into %d uploads", blob.Uploads())
	}

	// Unchanged remote timestamp: second poll is a no-op.
	if err := s.Poll(ctx); err != nil {
		t.Fatalf("second Poll: %v", err)
	}
	if got := led.Transactions(); len(got) != 1 {
		t.Errorf("second poll changed state: %+v", got)
	}
}

func TestPollIgnoresOlderRemote(t *testing.T) {
	ctx := context.Background()
	led := newSyncLedger(t)
	if _, err := led.AddEntry(ctx, ledger.EntryInput{Item: "keep me", Amount: 30, Month: 3, Year: 2025}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	blob := remotemem.New()
	s := NewBlobSyncer(led, blob, syncDefaults(), DefaultSyncerConfig())
	if err := s.UploadNow(ctx); err != nil {
		t.Fatalf("UploadNow: %v", err)
	}

	stale := core.NewState()
	stale.Transactions = []core.Transaction{
		{ID: "old", Month: 1, Year: 2024, Item: "stale", Amount: -5, Type: core.Expense, Category: core.CategoryUncategorized},
	}
	data, err := persist.Encode(stale, time.Now().UTC())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	blob.Put(data, time.Now().Add(-time.Hour))

	if err := s.Poll(ctx); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	txs := led.Transactions()
	if len(txs) != 1 || txs[0].Item != "keep me" {
		t.Errorf("older remote replaced local state: %+v", txs)
	}
}

func TestHookUploadsOnSave(t *testing.T) {
	ctx := context.Background()

	t.Run("enabled", func(t *testing.T) {
		led := newSyncLedger(t)
		blob := remotemem.New()
		s := NewBlobSyncer(led, blob, syncDefaults(), DefaultSyncerConfig())
		led.AddSaveHook(s.Hook())

		if _, err := led.AddEntry(ctx, ledger.EntryInput{Item: "mirrored", Amount: 12, Month: 3, Year: 2025}); err != nil {
			t.Fatalf("AddEntry: %v", err)
		}
		if blob.Uploads() != 1 {
			t.Errorf("uploads = %d, want 1", blob.Uploads())
		}
	})

	t.Run("disabled", func(t *testing.T) {
		led := newSyncLedger(t)
		blob := remotemem.New()
		cfg := DefaultSyncerConfig()
		cfg.UploadOnSave = false
		s := NewBlobSyncer(led, blob, syncDefaults(), cfg)
		led.AddSaveHook(s.Hook())

		if _, err := led.AddEntry(ctx, ledger.EntryInput{Item: "local", Amount: 12, Month: 3, Year: 2025}); err != nil {
			t.Fatalf("AddEntry: %v", err)
		}
		if blob.Uploads() != 0 {
			t.Errorf("uploads = %d, want 0", blob.Uploads())
		}
	})
}

func TestSyncerStartStop(t *testing.T) {
	ctx := context.Background()
	led := newSyncLedger(t)
	blob := remotemem.New()
	cfg := DefaultSyncerConfig()
	cfg.PollInterval = 50 * time.Millisecond
	s := NewBlobSyncer(led, blob, syncDefaults(), cfg)

	if s.IsRunning() {
		t.Fatal("syncer reports running before start")
	}
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.IsRunning() {
		t.Error("syncer not running after start")
	}
	if err := s.Start(ctx); err == nil {
		t.Error("expected error when starting twice")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.IsRunning() {
		t.Error("syncer still running after stop")
	}
	// The startup poll runs before the loop waits, so by the time Stop
	// returns the empty remote has been seeded.
	if blob.Uploads() == 0 {
		t.Error("startup poll did not seed the remote")
	}
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	led := newSyncLedger(t)
	blob := remotemem.New()
	s := NewBlobSyncer(led, blob, syncDefaults(), DefaultSyncerConfig())

	if _, err := s.Check(ctx); !errors.Is(err, remote.ErrBlobNotFound) {
		t.Fatalf("Check on empty remote: %v, want ErrBlobNotFound", err)
	}
	if err := s.UploadNow(ctx); err != nil {
		t.Fatalf("UploadNow: %v", err)
	}
	info, err := s.Check(ctx)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if info.Size == 0 || info.ModifiedAt.IsZero() {
		t.Errorf("info = %+v", info)
	}
}
