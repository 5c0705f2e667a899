package classify

import (
	"testing"

	"budgetbook/internal/core"
)

func table(entries ...core.Mapping) *core.MappingTable {
	t := core.NewMappingTable()
	for _, e := range entries {
		t.Set(e)
	}
	return t
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`  electric co  `, "electric co"},
		{`"electric" co`, "electric co"},
		{"צ׳ק 1042", "צק 1042"},
		{"חב״ד", "חבד"},
		{`  "  " `, ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestClassifyExactBeforeSubstring(t *testing.T) {
	tbl := table(
		core.Mapping{Item: "market", Category: "household", IncludeInMonthlyExpenses: true},
		core.Mapping{Item: "super market", Category: "groceries", IncludeInMonthlyExpenses: true},
	)
	res := Classify("super market", tbl, nil)
	if res.Category != "groceries" {
		t.Fatalf("exact hit should beat earlier substring entry, got %q", res.Category)
	}
}

func TestClassifyExactIsCaseSensitiveSubstringIsNot(t *testing.T) {
	tbl := table(core.Mapping{Item: "Super Market", Category: "Groceries", IncludeInMonthlyExpenses: true})
	res := Classify("super market", tbl, nil)
	if res.Category != "Groceries" {
		t.Fatalf("expected case-insensitive substring fallback to land on Groceries, got %q", res.Category)
	}
}

func TestClassifySubstringBothDirections(t *testing.T) {
	tbl := table(core.Mapping{Item: "electric", Category: "utilities", IncludeInMonthlyExpenses: true})
	// Item contains the key.
	if res := Classify("electric co north", tbl, nil); res.Category != "utilities" {
		t.Fatalf("item-contains-key failed: %q", res.Category)
	}
	// Key contains the item.
	tbl2 := table(core.Mapping{Item: "city water corporation", Category: "utilities", IncludeInMonthlyExpenses: true})
	if res := Classify("water co inc", tbl2, nil); res.Category != core.CategoryUncategorized {
		t.Fatalf("unrelated item should not match, got %q", res.Category)
	}
	if res := Classify("water corporation", tbl2, nil); res.Category != "utilities" {
		t.Fatalf("key-contains-item failed: %q", res.Category)
	}
}

func TestClassifySubstringFirstMatchWins(t *testing.T) {
	tbl := table(
		core.Mapping{Item: "market", Category: "household", IncludeInMonthlyExpenses: true},
		core.Mapping{Item: "super", Category: "groceries", IncludeInMonthlyExpenses: true},
	)
	res := Classify("big super market", tbl, nil)
	if res.Category != "household" {
		t.Fatalf("expected first entry in insertion order to win, got %q", res.Category)
	}
}

func TestClassifyUnmappedDefaults(t *testing.T) {
	res := Classify("mystery shop", core.NewMappingTable(), nil)
	if res.Category != core.CategoryUncategorized {
		t.Fatalf("expected sentinel category, got %q", res.Category)
	}
	if !res.IncludeInMonthly {
		t.Fatalf("unmapped items must stay in monthly totals")
	}
	if res.Type != core.Expense {
		t.Fatalf("default type should be expense, got %q", res.Type)
	}
}

func TestClassifyDepositRules(t *testing.T) {
	tbl := table(core.Mapping{Item: "deposit withdrawal", Category: "something else", IncludeInMonthlyExpenses: false})

	res := Classify("deposit withdrawal", tbl, nil)
	if res.Category != core.CategoryBankDeposit {
		t.Fatalf("deposit category must override mapping, got %q", res.Category)
	}
	if res.Type != core.Income || !res.TypeForced {
		t.Fatalf("deposit+withdrawal must force income, got %q forced=%v", res.Type, res.TypeForced)
	}

	res = Classify("deposit placement", core.NewMappingTable(), nil)
	if res.Type != core.Expense || !res.TypeForced {
		t.Fatalf("deposit+placement must force expense, got %q forced=%v", res.Type, res.TypeForced)
	}
	if res.Category != core.CategoryBankDeposit {
		t.Fatalf("expected deposit category, got %q", res.Category)
	}

	// Bare deposit: fixed category, type not forced.
	res = Classify("פיקדון", core.NewMappingTable(), nil)
	if res.Category != core.CategoryBankDeposit || res.TypeForced {
		t.Fatalf("bare deposit: got category %q forced=%v", res.Category, res.TypeForced)
	}

	// Hebrew deposit interest.
	res = Classify("ריבית פיקדון", core.NewMappingTable(), nil)
	if res.Type != core.Income || !res.TypeForced {
		t.Fatalf("hebrew deposit interest must force income, got %q forced=%v", res.Type, res.TypeForced)
	}
}

func TestClassifyNationalInsurancePrefix(t *testing.T) {
	tbl := table(core.Mapping{Item: "national insurance institute", Category: "taxes", IncludeInMonthlyExpenses: true})
	res := Classify("national insurance institute", tbl, nil)
	if res.Category != core.CategoryNationalInsurance {
		t.Fatalf("prefix token must override mapping, got %q", res.Category)
	}
	res = Classify("ביטוח לאומי סניף חיפה", core.NewMappingTable(), nil)
	if res.Category != core.CategoryNationalInsurance {
		t.Fatalf("hebrew prefix failed, got %q", res.Category)
	}
	// Token in the middle of the item does not count.
	res = Classify("payment to national insurance", core.NewMappingTable(), nil)
	if res.Category == core.CategoryNationalInsurance {
		t.Fatalf("mid-string token must not match the prefix rule")
	}
}

func TestClassifyIncomeSet(t *testing.T) {
	incomes := []string{"salary", "משכורת"}
	if res := Classify("salary", core.NewMappingTable(), incomes); res.Type != core.Income {
		t.Fatalf("exact income hit failed, got %q", res.Type)
	}
	if res := Classify("Salary March", core.NewMappingTable(), incomes); res.Type != core.Income {
		t.Fatalf("substring income hit failed, got %q", res.Type)
	}
	if res := Classify("משכורת חודש מרץ", core.NewMappingTable(), incomes); res.Type != core.Income {
		t.Fatalf("hebrew income hit failed, got %q", res.Type)
	}
	if res := Classify("groceries", core.NewMappingTable(), incomes); res.Type != core.Expense {
		t.Fatalf("non-income item classified as income")
	}
}

func TestClassifyIdempotent(t *testing.T) {
	tbl := table(
		core.Mapping{Item: "super market", Category: "groceries", IncludeInMonthlyExpenses: true},
		core.Mapping{Item: "electric", Category: "utilities", IncludeInMonthlyExpenses: false},
	)
	incomes := []string{"salary"}
	for _, item := range []string{"super market", "electric co", "salary", "deposit withdrawal", "unknown", ""} {
		first := Classify(item, tbl, incomes)
		second := Classify(item, tbl, incomes)
		if first != second {
			t.Fatalf("classification of %q not idempotent: %+v vs %+v", item, first, second)
		}
	}
}

func TestCheckHelpers(t *testing.T) {
	if !IsCheckRowMarker("(check)") || !IsCheckRowMarker(" (Check) ") || !IsCheckRowMarker("(שיק)") {
		t.Fatalf("check row marker detection failed")
	}
	if IsCheckRowMarker("check 1042") {
		t.Fatalf("non-bracketed item must not be a row marker")
	}
	if !IsCheckPayment("check 1042") || !IsCheckPayment("שיק לבעל הבית") || !IsCheckPayment("צ׳ק 17") {
		t.Fatalf("check payment detection failed")
	}
	if IsCheckPayment("groceries") {
		t.Fatalf("false positive check payment")
	}
	if !IsBareCheckMarker(" Check ") || !IsBareCheckMarker("שיק") || !IsBareCheckMarker("צ׳ק") {
		t.Fatalf("bare check marker detection failed")
	}
	if IsBareCheckMarker("check 1042") || IsBareCheckMarker("(check)") {
		t.Fatalf("items beyond the bare marker must not count as bare")
	}
}

func TestDepositOverride(t *testing.T) {
	cases := []struct {
		item   string
		want   core.TransactionType
		forced bool
	}{
		{"deposit withdrawal", core.Income, true},
		{"deposit redemption", core.Income, true},
		{"deposit interest", core.Income, true},
		{"deposit placement", core.Expense, true},
		{"plain deposit", "", false},
		{"withdrawal", "", false},
		{"groceries", "", false},
	}
	for _, tc := range cases {
		got, forced := DepositOverride(tc.item)
		if got != tc.want || forced != tc.forced {
			t.Fatalf("DepositOverride(%q): expected (%q,%v), got (%q,%v)", tc.item, tc.want, tc.forced, got, forced)
		}
	}
}
