// Package classify resolves an item name to its category, monthly-expense
// inclusion flag and income/expense type. All functions are pure over the
// mapping table and income item set passed in; writing newly confirmed
// mappings back is the ledger's job.
package classify

import (
	"strings"

	"budgetbook/internal/core"
)

// Result is the outcome of classifying one item.
type Result struct {
	// Item is the normalized form actually stored on transactions.
	Item             string
	Category         string
	IncludeInMonthly bool
	// Type is the income-rule verdict. When TypeForced is set a deposit
	// special case fired and the type wins over any caller-supplied type.
	// Imported rows are the exception: there the debit/credit side is
	// authoritative and forced types are reapplied by the load migrations.
	Type       core.TransactionType
	TypeForced bool
}

// Normalize trims whitespace and strips quote-like characters: the ASCII
// double quote plus the Hebrew geresh and gershayim that bank exports wrap
// abbreviations in.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, "׳", "") // geresh ׳
	s = strings.ReplaceAll(s, "״", "") // gershayim ״
	return strings.TrimSpace(s)
}

// Classify resolves category and type for a raw item string.
//
// Category resolution order: deposit marker, national-insurance token, exact
// mapping hit (case-sensitive), substring fallback (case-insensitive, first
// match in table insertion order), sentinel "uncategorized". Unmapped items
// default to IncludeInMonthly=true so new expenses never silently vanish
// from monthly totals.
//
// Type resolution is an independent rule set: deposit special cases, exact
// income-set hit, substring income-set hit, default expense.
func Classify(item string, table *core.MappingTable, incomeItems []string) Result {
	norm := Normalize(item)
	lower := strings.ToLower(norm)

	res := Result{
		Item:             norm,
		Category:         core.CategoryUncategorized,
		IncludeInMonthly: true,
	}

	if t, forced := depositOverride(lower); forced {
		res.Type = t
		res.TypeForced = true
	} else {
		res.Type = incomeType(norm, lower, incomeItems)
	}

	if lower == "" {
		return res
	}
	switch {
	case containsAny(lower, depositMarkers):
		res.Category = core.CategoryBankDeposit
		res.IncludeInMonthly = true
	case hasPrefixAny(lower, nationalInsuranceTokens):
		res.Category = core.CategoryNationalInsurance
		res.IncludeInMonthly = true
	default:
		if m, ok := table.Get(norm); ok {
			res.Category, res.IncludeInMonthly = m.Category, m.IncludeInMonthlyExpenses
		} else if m, ok := substringMatch(lower, table); ok {
			res.Category, res.IncludeInMonthly = m.Category, m.IncludeInMonthlyExpenses
		}
	}
	return res
}

// substringMatch scans the mapping table in insertion order and returns the
// first entry whose key contains the item or is contained by it. Matching is
// case-insensitive; ties go to the earliest entry.
func substringMatch(lower string, table *core.MappingTable) (core.Mapping, bool) {
	var hit core.Mapping
	var found bool
	table.Range(func(m core.Mapping) bool {
		key := strings.ToLower(m.Item)
		if key == "" {
			return true
		}
		if strings.Contains(lower, key) || strings.Contains(key, lower) {
			hit, found = m, true
			return false
		}
		return true
	})
	return hit, found
}

// incomeType applies the income rule set minus the deposit cases: exact
// case-sensitive hit on the income set, then bidirectional case-insensitive
// substring hit, else expense.
func incomeType(norm, lower string, incomeItems []string) core.TransactionType {
	for _, it := range incomeItems {
		if it == norm {
			return core.Income
		}
	}
	if lower == "" {
		return core.Expense
	}
	for _, it := range incomeItems {
		l := strings.ToLower(strings.TrimSpace(it))
		if l == "" {
			continue
		}
		if strings.Contains(lower, l) || strings.Contains(l, lower) {
			return core.Income
		}
	}
	return core.Expense
}

// DepositOverride reports the transaction type forced by the deposit special
// cases: deposit+withdrawal/redemption/interest is income, deposit+placement
// is an expense. The bool is false for items the rules do not cover.
func DepositOverride(item string) (core.TransactionType, bool) {
	return depositOverride(strings.ToLower(Normalize(item)))
}

func depositOverride(lower string) (core.TransactionType, bool) {
	if !containsAny(lower, depositMarkers) {
		return "", false
	}
	if containsAny(lower, withdrawalMarkers) {
		return core.Income, true
	}
	if containsAny(lower, placementMarkers) {
		return core.Expense, true
	}
	return "", false
}

// IsNationalInsurance reports whether the item equals or starts with a
// national-insurance family token.
func IsNationalInsurance(item string) bool {
	return hasPrefixAny(strings.ToLower(Normalize(item)), nationalInsuranceTokens)
}

// IsCheckPayment reports whether the item text names a check payment.
func IsCheckPayment(item string) bool {
	return containsAny(strings.ToLower(Normalize(item)), checkSubstrings)
}

// IsBareCheckMarker reports whether the item is nothing but a check marker,
// the shape manual check entries arrive in when only the number and payee
// are known.
func IsBareCheckMarker(item string) bool {
	lower := strings.ToLower(Normalize(item))
	for _, m := range checkSubstrings {
		if lower == m {
			return true
		}
	}
	return false
}

// IsCheckRowMarker reports whether the item is exactly the bracketed check
// placeholder that diverts an imported row into the check-items list.
func IsCheckRowMarker(item string) bool {
	lower := strings.ToLower(Normalize(item))
	for _, m := range checkRowMarkers {
		if lower == m {
			return true
		}
	}
	return false
}
