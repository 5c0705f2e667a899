package report

import (
	"bytes"
	"strings"
	"testing"

	"budgetbook/internal/balance"
	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
	"budgetbook/internal/reconcile"
)

const testYear = 2025

func testState() *core.State {
	s := core.NewState()
	s.Mappings.Set(core.Mapping{Item: "Super Market", Category: "groceries", IncludeInMonthlyExpenses: true})
	s.Mappings.Set(core.Mapping{Item: "Gift Shop", Category: "gifts", IncludeInMonthlyExpenses: false})
	s.IncomeItems = []string{"salary"}
	s.Transactions = []core.Transaction{
		{ID: "1", Month: 3, Year: 2025, Item: "Super Market", Amount: -200, Type: core.Expense, Category: "groceries"},
		{ID: "2", Month: 3, Year: 2025, Item: "Gift Shop", Amount: -150, Type: core.Expense, Category: "gifts"},
		{ID: "3", Month: 3, Year: 2025, Item: "salary", Amount: 9000, Type: core.Income, Category: core.CategoryUncategorized},
		{ID: "4", Month: 4, Year: 2025, Item: "Super Market", Amount: -80, Type: core.Expense, Category: "groceries"},
	}
	return s
}

func TestMonthly(t *testing.T) {
	s := testState()
	p := core.NewPeriod(2025, 3)
	balance.SetManual(s, p, 1000)
	s.MonthlyNotes[p] = "rent paid late"

	m := Monthly(s, p, testYear)
	if m.MonthName != "March" || m.Year != 2025 {
		t.Errorf("period = %s %d", m.MonthName, m.Year)
	}
	if m.Opening != 1000 || !m.ManualOpening {
		t.Errorf("opening = %v manual=%v", m.Opening, m.ManualOpening)
	}
	if m.Income != 9000 || m.Expense != 350 || m.Transfer != 0 {
		t.Errorf("totals = %+v", m)
	}
	if m.Closing != 9650 {
		t.Errorf("closing = %v, want 9650", m.Closing)
	}
	if m.Transactions != 3 || m.Note != "rent paid late" {
		t.Errorf("count = %d note = %q", m.Transactions, m.Note)
	}
}

func TestCategories(t *testing.T) {
	s := testState()
	b := Categories(s, core.NewPeriod(2025, 3), testYear)

	if len(b.Totals) != 3 {
		t.Fatalf("got %d categories, want 3", len(b.Totals))
	}
	// Sorted by absolute movement.
	if b.Totals[0].Category != core.CategoryUncategorized || b.Totals[0].Amount != 9000 {
		t.Errorf("largest = %+v", b.Totals[0])
	}
	if b.Totals[1].Category != "groceries" || b.Totals[1].InMonthly != 200 {
		t.Errorf("groceries = %+v", b.Totals[1])
	}
	if b.Totals[2].Category != "gifts" || b.Totals[2].InMonthly != 0 {
		t.Errorf("gifts = %+v", b.Totals[2])
	}
	if b.MonthlyExpenses != 200 || b.OtherExpenses != 150 {
		t.Errorf("monthly = %v other = %v", b.MonthlyExpenses, b.OtherExpenses)
	}
}

func TestAnnualChainsBalances(t *testing.T) {
	s := core.NewState()
	s.Transactions = []core.Transaction{
		{ID: "1", Month: 1, Year: 2025, Item: "salary", Amount: 100, Type: core.Income, Category: core.CategoryUncategorized},
		{ID: "2", Month: 3, Year: 2025, Item: "shop", Amount: -40, Type: core.Expense, Category: core.CategoryUncategorized},
	}
	g := Annual(s, 2025, testYear)

	if g.Months[0].Opening != 0 || g.Months[0].Closing != 100 {
		t.Errorf("january = %+v", g.Months[0])
	}
	if g.Months[1].Opening != 100 || g.Months[1].Closing != 100 {
		t.Errorf("february = %+v", g.Months[1])
	}
	if g.Months[2].Opening != 100 || g.Months[2].Closing != 60 {
		t.Errorf("march = %+v", g.Months[2])
	}
	if g.Months[11].Closing != 60 {
		t.Errorf("december closing = %v, want 60", g.Months[11].Closing)
	}
	if g.TotalIncome != 100 || g.TotalExpense != 40 || g.TotalTransfer != 0 {
		t.Errorf("totals = %+v", g)
	}
}

func TestColorSums(t *testing.T) {
	s := core.NewState()
	s.Transactions = []core.Transaction{
		{ID: "1", Month: 3, Year: 2025, Item: "a", Amount: -50, Type: core.Expense, Category: "x", Color: "yellow"},
		{ID: "2", Month: 3, Item: "b", Amount: 20, Type: core.Income, Category: "x", Color: "green"},
		{ID: "3", Month: 3, Year: 2025, Item: "c", Amount: -10, Type: core.Expense, Category: "x"},
		{ID: "4", Month: 4, Year: 2025, Item: "d", Amount: -99, Type: core.Expense, Category: "x", Color: "yellow"},
	}
	s.CheckItems = []core.CheckItem{
		{ID: "5", Item: "checks (March)", Amount: -300, Month: 3, Year: 2025, Color: core.CheckColor},
	}

	sums := ColorSums(s, core.NewPeriod(2025, 3), testYear)
	if len(sums) != 3 {
		t.Fatalf("got %d colors, want 3: %+v", len(sums), sums)
	}
	// Palette order, not insertion order.
	if sums[0].Color != "yellow" || sums[0].Amount != -50 || sums[0].Count != 1 {
		t.Errorf("yellow = %+v", sums[0])
	}
	if sums[1].Color != "green" || sums[1].Amount != 20 {
		t.Errorf("green = %+v", sums[1])
	}
	if sums[2].Color != "purple" || sums[2].Amount != -300 {
		t.Errorf("purple = %+v", sums[2])
	}
}

func TestMappings(t *testing.T) {
	s := testState()
	rows := Mappings(s)

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	// Insertion order, with uses counted across all periods.
	if rows[0].Item != "Super Market" || rows[0].Uses != 2 || !rows[0].InMonthly {
		t.Errorf("super market = %+v", rows[0])
	}
	if rows[1].Item != "Gift Shop" || rows[1].Uses != 1 || rows[1].InMonthly {
		t.Errorf("gift shop = %+v", rows[1])
	}
}

func TestRenderers(t *testing.T) {
	s := testState()
	p := core.NewPeriod(2025, 3)

	t.Run("monthly", func(t *testing.T) {
		var buf bytes.Buffer
		RenderMonthly(&buf, Monthly(s.Clone(), p, testYear))
		out := buf.String()
		for _, want := range []string{"March 2025", "Income", "Closing", "9000.00"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("categories", func(t *testing.T) {
		var buf bytes.Buffer
		RenderCategories(&buf, Categories(s, p, testYear))
		out := buf.String()
		for _, want := range []string{"groceries", "gifts", "Monthly expenses", "Excluded from monthly"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("annual", func(t *testing.T) {
		var buf bytes.Buffer
		RenderAnnual(&buf, Annual(s.Clone(), 2025, testYear))
		out := buf.String()
		for _, want := range []string{"January", "December", "Total"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("colors", func(t *testing.T) {
		var buf bytes.Buffer
		RenderColorSums(&buf, p, nil)
		if !strings.Contains(buf.String(), "No colored entries") {
			t.Errorf("empty output = %q", buf.String())
		}
	})

	t.Run("mappings", func(t *testing.T) {
		var buf bytes.Buffer
		RenderMappings(&buf, Mappings(s))
		out := buf.String()
		for _, want := range []string{"Super Market", "groceries", "Uses"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}

		buf.Reset()
		RenderMappings(&buf, nil)
		if !strings.Contains(buf.String(), "No mappings defined") {
			t.Errorf("empty output = %q", buf.String())
		}
	})

	t.Run("import dry run", func(t *testing.T) {
		var buf bytes.Buffer
		res := &reconcile.Result{BatchID: "b1", Period: p, Skipped: 2}
		RenderImport(&buf, res, nil)
		out := buf.String()
		if !strings.Contains(out, "Dry run") || !strings.Contains(out, "March 2025") {
			t.Errorf("dry-run output = %q", out)
		}
	})

	t.Run("import with merge", func(t *testing.T) {
		var buf bytes.Buffer
		res := &reconcile.Result{BatchID: "b1", Period: p}
		RenderImport(&buf, res, &ledger.MergeReport{Added: 3, DuplicateTransactions: 1})
		out := buf.String()
		if !strings.Contains(out, "Duplicate transactions") || strings.Contains(out, "Dry run") {
			t.Errorf("merge output = %q", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteJSON(&buf, Monthly(s.Clone(), p, testYear)); err != nil {
			t.Fatalf("WriteJSON: %v", err)
		}
		if !strings.Contains(buf.String(), `"month_name": "March"`) {
			t.Errorf("json = %s", buf.String())
		}
	})
}
