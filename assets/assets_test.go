package assets

import (
	"testing"

	"budgetbook/internal/core"
)

func TestDefaults(t *testing.T) {
	defs, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults() error = %v", err)
	}

	if len(defs.Categories) == 0 {
		t.Fatal("Defaults() returned no categories")
	}
	for _, want := range []string{core.CategoryBankDeposit, core.CategoryNationalInsurance, core.CategoryUncategorized} {
		found := false
		for _, c := range defs.Categories {
			if c == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("seed categories missing %q", want)
		}
	}

	if len(defs.IncomeItems) == 0 {
		t.Error("Defaults() returned no income items")
	}

	if len(defs.Mappings) == 0 {
		t.Fatal("Defaults() returned no mappings")
	}
	sawExcluded := false
	for _, m := range defs.Mappings {
		if m.Item == "" || m.Category == "" {
			t.Errorf("seed mapping with empty fields: %+v", m)
		}
		if m.Item == "super market" && !m.IncludeInMonthlyExpenses {
			t.Error("omitted monthly flag should default to true")
		}
		if !m.IncludeInMonthlyExpenses {
			sawExcluded = true
		}
	}
	if !sawExcluded {
		t.Error("seed should carry at least one mapping excluded from monthly expenses")
	}
}
