package core

import "testing"

func TestMappingTableOrder(t *testing.T) {
	tbl := NewMappingTable()
	tbl.Set(Mapping{Item: "super", Category: "groceries", IncludeInMonthlyExpenses: true})
	tbl.Set(Mapping{Item: "market", Category: "household", IncludeInMonthlyExpenses: true})
	tbl.Set(Mapping{Item: "super market", Category: "groceries", IncludeInMonthlyExpenses: true})

	entries := tbl.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []string{"super", "market", "super market"} {
		if entries[i].Item != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, entries[i].Item)
		}
	}

	// Updating an existing key keeps its slot.
	tbl.Set(Mapping{Item: "market", Category: "food", IncludeInMonthlyExpenses: false})
	entries = tbl.Entries()
	if entries[1].Item != "market" || entries[1].Category != "food" {
		t.Fatalf("expected in-place update at slot 1, got %+v", entries[1])
	}
}

func TestMappingTableDeleteReindexes(t *testing.T) {
	tbl := NewMappingTable()
	for _, item := range []string{"a", "b", "c"} {
		tbl.Set(Mapping{Item: item, Category: "x", IncludeInMonthlyExpenses: true})
	}
	if !tbl.Delete("a") {
		t.Fatalf("expected delete to report existing entry")
	}
	if tbl.Delete("a") {
		t.Fatalf("expected second delete to report missing entry")
	}
	if got, ok := tbl.Get("c"); !ok || got.Item != "c" {
		t.Fatalf("lookup after delete broken: %+v ok=%v", got, ok)
	}
	entries := tbl.Entries()
	if len(entries) != 2 || entries[0].Item != "b" || entries[1].Item != "c" {
		t.Fatalf("unexpected order after delete: %+v", entries)
	}
}

func TestStateCloneIsolation(t *testing.T) {
	s := NewState()
	s.Transactions = append(s.Transactions, Transaction{
		ID: "1", Month: 3, Year: 2025, Item: "rent", Amount: -1500, Type: Expense,
		PaymentMethod: PayCheck, CheckDetails: &CheckDetails{CheckNumber: "7"},
	})
	s.Mappings.Set(Mapping{Item: "rent", Category: "housing", IncludeInMonthlyExpenses: true})
	s.OpeningBalances[Period{2025, 3}] = 100
	s.ManualOpening[Period{2025, 3}] = true
	s.MonthlyNotes[Period{2025, 3}] = "note"
	s.AddCategory("housing")
	s.AddIncomeItem("salary")

	c := s.Clone()
	c.Transactions[0].Item = "changed"
	c.Transactions[0].CheckDetails.CheckNumber = "9"
	c.Mappings.Set(Mapping{Item: "rent", Category: "other", IncludeInMonthlyExpenses: false})
	c.OpeningBalances[Period{2025, 3}] = 999
	c.MonthlyNotes[Period{2025, 3}] = "edited"
	c.Categories[0] = "mutated"

	if s.Transactions[0].Item != "rent" || s.Transactions[0].CheckDetails.CheckNumber != "7" {
		t.Fatalf("clone shares transaction storage: %+v", s.Transactions[0])
	}
	if m, _ := s.Mappings.Get("rent"); m.Category != "housing" {
		t.Fatalf("clone shares mapping table: %+v", m)
	}
	if s.OpeningBalances[Period{2025, 3}] != 100 {
		t.Fatalf("clone shares balance map")
	}
	if s.MonthlyNotes[Period{2025, 3}] != "note" {
		t.Fatalf("clone shares notes map")
	}
	if s.Categories[0] != "housing" {
		t.Fatalf("clone shares category slice")
	}
}

func TestStateSetHelpers(t *testing.T) {
	s := NewState()
	if !s.AddCategory("groceries") {
		t.Fatalf("expected first add to succeed")
	}
	if s.AddCategory("groceries") {
		t.Fatalf("expected duplicate add to be a no-op")
	}
	if s.AddCategory("") {
		t.Fatalf("expected empty name to be rejected")
	}
	if !s.AddIncomeItem("salary") || s.AddIncomeItem("salary") {
		t.Fatalf("income item set semantics broken")
	}
	if !s.HasCategory("groceries") || !s.HasIncomeItem("salary") {
		t.Fatalf("lookups broken")
	}
}
