package ledger

import (
	"context"
	"testing"

	"budgetbook/internal/core"
)

func importBatch() []core.Transaction {
	return []core.Transaction{
		{Month: 3, Year: 2025, Item: "Electric Co", Amount: -200, Type: core.Expense, Category: "utilities", PaymentMethod: core.PayCash},
		{Month: 3, Year: 2025, Item: "salary", Amount: 9000, Type: core.Income, Category: core.CategoryUncategorized, PaymentMethod: core.PayCash},
		{Month: 3, Year: 2025, Item: "Super Market", Amount: -350.5, Type: core.Expense, Category: "groceries", PaymentMethod: core.PayCash},
	}
}

func TestMergeImportDedupIdempotence(t *testing.T) {
	l, store := newTestLedger(t)
	ctx := context.Background()
	batch := importBatch()

	first, err := l.MergeImport(ctx, batch, nil)
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	if first.Added != 3 || first.DuplicateTransactions != 0 {
		t.Fatalf("first import report = %+v, want 3 added", first)
	}

	savesAfterFirst := store.SaveCount()
	second, err := l.MergeImport(ctx, batch, nil)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if second.Added != 0 || second.DuplicateTransactions != len(batch) {
		t.Fatalf("second import report = %+v, want all %d rows skipped", second, len(batch))
	}
	if n := len(l.Transactions()); n != 3 {
		t.Fatalf("transaction count after re-import = %d, want 3", n)
	}
	// A pure-duplicate batch mutates nothing, so nothing is written.
	if store.SaveCount() != savesAfterFirst {
		t.Fatalf("re-import wrote the document: saves %d -> %d", savesAfterFirst, store.SaveCount())
	}
}

func TestMergeImportAmountTolerance(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	base := core.Transaction{Month: 3, Year: 2025, Item: "Electric Co", Amount: -200, Type: core.Expense, Category: "utilities", PaymentMethod: core.PayCash}
	if _, err := l.MergeImport(ctx, []core.Transaction{base}, nil); err != nil {
		t.Fatalf("seed import: %v", err)
	}

	tests := []struct {
		name   string
		amount float64
		dup    bool
	}{
		{"sub-cent wobble", -200.004, true},
		{"two cents off", -200.02, false},
		{"clearly different", -210, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := base
			row.Amount = tt.amount
			rep, err := l.MergeImport(ctx, []core.Transaction{row}, nil)
			if err != nil {
				t.Fatalf("import: %v", err)
			}
			gotDup := rep.DuplicateTransactions == 1
			if gotDup != tt.dup {
				t.Fatalf("amount %v duplicate = %v, want %v", tt.amount, gotDup, tt.dup)
			}
		})
	}
}

func TestMergeImportDistinguishesType(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	expense := core.Transaction{Month: 3, Year: 2025, Item: "refund run", Amount: -50, Type: core.Expense, Category: core.CategoryUncategorized, PaymentMethod: core.PayCash}
	income := core.Transaction{Month: 3, Year: 2025, Item: "refund run", Amount: 50, Type: core.Income, Category: core.CategoryUncategorized, PaymentMethod: core.PayCash}

	rep, err := l.MergeImport(ctx, []core.Transaction{expense, income}, nil)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	// Same item and period, different type and sign: both are kept.
	if rep.Added != 2 {
		t.Fatalf("report = %+v, want both rows added", rep)
	}
}

func TestMergeImportWithinBatchDuplicates(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	row := core.Transaction{Month: 3, Year: 2025, Item: "double row", Amount: -10, Type: core.Expense, Category: core.CategoryUncategorized, PaymentMethod: core.PayCash}
	rep, err := l.MergeImport(ctx, []core.Transaction{row, row}, nil)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if rep.Added != 1 || rep.DuplicateTransactions != 1 {
		t.Fatalf("report = %+v, want 1 added and 1 skipped inside one batch", rep)
	}
}

func TestMergeImportCheckItems(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	checks := []core.CheckItem{
		{Item: "checks (March)", Amount: -420, Month: 3, Year: 2025, Color: core.CheckColor},
	}
	rep, err := l.MergeImport(ctx, nil, checks)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if rep.AddedChecks != 1 {
		t.Fatalf("report = %+v, want 1 check added", rep)
	}

	rep, err = l.MergeImport(ctx, nil, checks)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if rep.AddedChecks != 0 || rep.DuplicateChecks != 1 {
		t.Fatalf("re-import report = %+v, want the check skipped", rep)
	}
	if got := l.CheckItems()[0].ID; got == "" {
		t.Fatalf("merged check item should have an id")
	}
}

func TestMergeImportAssignsIDs(t *testing.T) {
	l, _ := newTestLedger(t)

	rep, err := l.MergeImport(context.Background(), importBatch(), nil)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if rep.Added != 3 {
		t.Fatalf("report = %+v", rep)
	}
	seen := map[string]bool{}
	for _, tx := range l.Transactions() {
		if tx.ID == "" {
			t.Fatalf("imported transaction missing id: %+v", tx)
		}
		if seen[tx.ID] {
			t.Fatalf("duplicate id %s", tx.ID)
		}
		seen[tx.ID] = true
	}
}
