package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"budgetbook/internal/core"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "budget.json")
	store := NewFileStore(path)

	if _, err := store.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first save, got %v", err)
	}

	s := core.NewState()
	s.Transactions = append(s.Transactions, core.Transaction{
		ID: "t1", Month: 3, Year: 2025, Item: "groceries", Amount: -120,
		Type: core.Expense, Category: "food",
	})
	s.Mappings.Set(core.Mapping{Item: "groceries", Category: "food", IncludeInMonthlyExpenses: true})
	s.OpeningBalances[core.NewPeriod(2025, 3)] = 900
	s.LastSelectedYear = 2025

	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded.Transactions) != 1 || loaded.Transactions[0].Item != "groceries" {
		t.Fatalf("unexpected transactions after reload: %+v", loaded.Transactions)
	}
	if got, ok := loaded.Mappings.Get("groceries"); !ok || got.Category != "food" {
		t.Fatalf("mapping lost on reload: %+v ok=%v", got, ok)
	}
	if loaded.OpeningBalances[core.NewPeriod(2025, 3)] != 900 {
		t.Fatalf("opening balance lost on reload")
	}
	if loaded.LastSelectedYear != 2025 {
		t.Fatalf("selection lost on reload")
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "budget.json")
	store := NewFileStore(path)

	s := core.NewState()
	s.LastSelectedMonth = 1
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	s.LastSelectedMonth = 7
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.LastSelectedMonth != 7 {
		t.Fatalf("expected last write to win, got month %d", loaded.LastSelectedMonth)
	}
}
