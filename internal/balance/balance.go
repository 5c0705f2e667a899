// Package balance computes opening and closing balances per period.
//
// Opening balances follow a small state machine: a month either has no
// stored balance, an auto-derived one cached from the prior month's closing,
// or a manual override the derivation path must never touch. Closing
// balances are pure functions of the transaction list plus those maps.
package balance

import (
	"math"

	"budgetbook/internal/core"
)

// Summary holds one period's movement totals. Expense is an absolute value.
type Summary struct {
	Income   float64
	Expense  float64
	Transfer float64
	Count    int
}

// Totals sums the transactions belonging to period p. Transactions with no
// explicit year are counted under currentYear; old documents stored none.
func Totals(txs []core.Transaction, p core.Period, currentYear int) Summary {
	var s Summary
	for _, tx := range txs {
		year := tx.Year
		if year == 0 {
			year = currentYear
		}
		if year != p.Year || tx.Month != p.Month {
			continue
		}
		s.Count++
		switch tx.Type {
		case core.Income:
			s.Income += tx.Amount
		case core.Expense:
			s.Expense += math.Abs(tx.Amount)
		case core.Transfer:
			s.Transfer += tx.Amount
		}
	}
	return s
}

// Opening resolves the opening balance for p.
//
// A stored value wins, whether manual or previously derived. January opens
// at zero: chaining never crosses a year boundary. Any other month derives
// from the prior month's closing balance and caches the result, except when
// the derived value is exactly zero, which stays unset and uncached.
func Opening(s *core.State, p core.Period, currentYear int) float64 {
	if v, ok := s.OpeningBalances[p]; ok {
		return v
	}
	prev, ok := p.Prev()
	if !ok {
		return 0
	}
	derived := Closing(s, prev, currentYear)
	if derived != 0 {
		s.OpeningBalances[p] = derived
	}
	return derived
}

// Closing computes opening(p) + income - |expense| + transfer over the
// transactions of period p.
func Closing(s *core.State, p core.Period, currentYear int) float64 {
	sum := Totals(s.Transactions, p, currentYear)
	return Opening(s, p, currentYear) + sum.Income - sum.Expense + sum.Transfer
}

// SetManual records a manual opening balance for p. Manual entries live in
// the same value map but are tracked in the override set so derivation
// passes leave them alone.
func SetManual(s *core.State, p core.Period, v float64) {
	s.OpeningBalances[p] = v
	s.ManualOpening[p] = true
}

// ClearManual removes a manual override, returning the period to the
// auto-derivation path on its next read.
func ClearManual(s *core.State, p core.Period) {
	delete(s.OpeningBalances, p)
	delete(s.ManualOpening, p)
}

// IsManual reports whether p carries a manual override.
func IsManual(s *core.State, p core.Period) bool {
	return s.ManualOpening[p]
}
