package ledger

import (
	"context"

	"budgetbook/internal/balance"
	"budgetbook/internal/core"
)

// OpeningBalance resolves the opening balance for p, deriving and caching it
// from the prior month's closing balance when unset. The cache lives in
// memory only until the next persisted mutation; a balance read never forces
// a save of its own.
func (l *Ledger) OpeningBalance(p core.Period) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return balance.Opening(l.state, p, l.currentYear)
}

// ClosingBalance computes opening + income - |expense| + transfer for p.
func (l *Ledger) ClosingBalance(p core.Period) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return balance.Closing(l.state, p, l.currentYear)
}

// PeriodTotals sums the transactions of p.
func (l *Ledger) PeriodTotals(p core.Period) balance.Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return balance.Totals(l.state.Transactions, p, l.currentYear)
}

// SetOpeningBalance records a manual opening balance for p. Manual values
// are tracked in the override set and survive later derivation passes.
func (l *Ledger) SetOpeningBalance(ctx context.Context, p core.Period, v float64) error {
	return l.update(ctx, func(s *core.State) error {
		if err := validPeriod(p); err != nil {
			return err
		}
		balance.SetManual(s, p, v)
		return nil
	})
}

// ClearOpeningBalance drops any stored opening balance for p, manual or
// cached, returning the month to the auto-derivation path.
func (l *Ledger) ClearOpeningBalance(ctx context.Context, p core.Period) error {
	return l.update(ctx, func(s *core.State) error {
		if err := validPeriod(p); err != nil {
			return err
		}
		if _, ok := s.OpeningBalances[p]; !ok && !s.ManualOpening[p] {
			return errNoChange
		}
		balance.ClearManual(s, p)
		return nil
	})
}

// IsManualOpening reports whether p carries a manual override.
func (l *Ledger) IsManualOpening(p core.Period) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return balance.IsManual(l.state, p)
}

// MonthlyNote returns the free-text note for p, if any.
func (l *Ledger) MonthlyNote(p core.Period) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.MonthlyNotes[p]
}

// SetMonthlyNote records the note for p. An empty note deletes the entry.
func (l *Ledger) SetMonthlyNote(ctx context.Context, p core.Period, note string) error {
	return l.update(ctx, func(s *core.State) error {
		if err := validPeriod(p); err != nil {
			return err
		}
		if note == "" {
			if _, ok := s.MonthlyNotes[p]; !ok {
				return errNoChange
			}
			delete(s.MonthlyNotes, p)
			return nil
		}
		s.MonthlyNotes[p] = note
		return nil
	})
}

func validPeriod(p core.Period) error {
	if p.Month < 1 || p.Month > 12 {
		return core.ErrInvalidMonth
	}
	if p.Year < 1 {
		return core.ErrInvalidYear
	}
	return nil
}
