package persist

import (
	"fmt"

	"budgetbook/internal/classify"
	"budgetbook/internal/core"
)

// Migrate upgrades a loaded state to the current schema in place and returns
// a description of every change it made; a non-empty result means the caller
// should re-save immediately. All steps are idempotent: running Migrate on
// its own output changes nothing.
//
// Shape-level coercions (string months, bare-string mapping values) already
// happened in Decode; this pass fixes data older documents accumulated over
// the years: missing years, quote characters inside items, stale categories
// for national-insurance items, deposit rows typed before the special cases
// existed, and documents saved before the current defaults shipped.
func Migrate(s *core.State, defs core.Defaults, currentYear int) []string {
	var applied []string

	if n := backfillYears(s, currentYear); n > 0 {
		applied = append(applied, fmt.Sprintf("backfilled year %d on %d transactions", currentYear, n))
	}
	if n := stripQuotedItems(s); n > 0 {
		applied = append(applied, fmt.Sprintf("normalized quote characters in %d items", n))
	}
	if n := recategorizeNationalInsurance(s); n > 0 {
		applied = append(applied, fmt.Sprintf("recategorized %d national-insurance transactions", n))
	}
	if n := rederiveDeposits(s); n > 0 {
		applied = append(applied, fmt.Sprintf("re-derived type and sign on %d deposit transactions", n))
	}
	if n := mergeDefaults(s, defs); n > 0 {
		applied = append(applied, fmt.Sprintf("merged %d missing default entries", n))
	}
	if s.Version < core.DocumentVersion {
		applied = append(applied, fmt.Sprintf("upgraded document version %d to %d", s.Version, core.DocumentVersion))
		s.Version = core.DocumentVersion
	}
	return applied
}

func backfillYears(s *core.State, currentYear int) int {
	n := 0
	for i := range s.Transactions {
		if s.Transactions[i].Year == 0 {
			s.Transactions[i].Year = currentYear
			n++
		}
	}
	for i := range s.CheckItems {
		if s.CheckItems[i].Year == 0 {
			s.CheckItems[i].Year = currentYear
			n++
		}
	}
	return n
}

func stripQuotedItems(s *core.State) int {
	n := 0
	for i := range s.Transactions {
		if norm := classify.Normalize(s.Transactions[i].Item); norm != s.Transactions[i].Item {
			s.Transactions[i].Item = norm
			n++
		}
	}
	for i := range s.CheckItems {
		if norm := classify.Normalize(s.CheckItems[i].Item); norm != s.CheckItems[i].Item {
			s.CheckItems[i].Item = norm
			n++
		}
	}
	return n
}

// recategorizeNationalInsurance forces the national-insurance category even
// on transactions already categorized differently. This is a correction, not
// a merge: earlier versions let the generic mapping win.
func recategorizeNationalInsurance(s *core.State) int {
	n := 0
	for i := range s.Transactions {
		tx := &s.Transactions[i]
		if classify.IsNationalInsurance(tx.Item) && tx.Category != core.CategoryNationalInsurance {
			tx.Category = core.CategoryNationalInsurance
			n++
		}
	}
	return n
}

func rederiveDeposits(s *core.State) int {
	n := 0
	for i := range s.Transactions {
		tx := &s.Transactions[i]
		forcedType, forced := classify.DepositOverride(tx.Item)
		if !forced {
			continue
		}
		amount := core.NormalizeSign(tx.Amount, forcedType)
		if tx.Type != forcedType || tx.Amount != amount {
			tx.Type = forcedType
			tx.Amount = amount
			n++
		}
	}
	return n
}

// mergeDefaults adds default categories, income items and mappings the
// document does not already carry. Additive only: user entries always win.
func mergeDefaults(s *core.State, defs core.Defaults) int {
	n := 0
	for _, c := range defs.Categories {
		if s.AddCategory(c) {
			n++
		}
	}
	for _, it := range defs.IncomeItems {
		if s.AddIncomeItem(it) {
			n++
		}
	}
	for _, m := range defs.Mappings {
		if _, ok := s.Mappings.Get(m.Item); !ok {
			s.Mappings.Set(m)
			n++
		}
	}
	return n
}
