package ledger

import (
	"context"
	"math"

	"budgetbook/internal/core"
)

// duplicateAmountTolerance is the amount window inside which two otherwise
// identical rows count as the same entry. Bank exports round differently
// between runs; a sub-cent wobble must not produce a second transaction.
const duplicateAmountTolerance = 0.01

// MergeReport summarizes a reconciled batch applied to the ledger.
type MergeReport struct {
	Added                 int
	DuplicateTransactions int
	AddedChecks           int
	DuplicateChecks       int
}

// Total returns how many rows the batch carried.
func (r MergeReport) Total() int {
	return r.Added + r.DuplicateTransactions + r.AddedChecks + r.DuplicateChecks
}

// MergeImport appends reconciled transactions and check items, skipping
// duplicates. A duplicate transaction shares item, month, year and type with
// an existing one and its amount is within the tolerance; check items
// compare the same minus type. Rows are appended as they are accepted, so
// repeats inside one batch also collapse. Re-importing an identical batch
// adds nothing and does not touch the store.
func (l *Ledger) MergeImport(ctx context.Context, txs []core.Transaction, checks []core.CheckItem) (MergeReport, error) {
	var rep MergeReport
	err := l.update(ctx, func(s *core.State) error {
		for _, tx := range txs {
			if hasDuplicateTransaction(s.Transactions, tx) {
				rep.DuplicateTransactions++
				continue
			}
			if tx.ID == "" {
				tx.ID = core.NewID()
			}
			s.Transactions = append(s.Transactions, tx)
			rep.Added++
		}
		for _, c := range checks {
			if hasDuplicateCheck(s.CheckItems, c) {
				rep.DuplicateChecks++
				continue
			}
			if c.ID == "" {
				c.ID = core.NewID()
			}
			s.CheckItems = append(s.CheckItems, c)
			rep.AddedChecks++
		}
		if rep.Added == 0 && rep.AddedChecks == 0 {
			return errNoChange
		}
		return nil
	})
	if err != nil {
		return MergeReport{}, err
	}
	return rep, nil
}

func hasDuplicateTransaction(existing []core.Transaction, tx core.Transaction) bool {
	for _, e := range existing {
		if e.Item == tx.Item && e.Month == tx.Month && e.Year == tx.Year && e.Type == tx.Type &&
			math.Abs(e.Amount-tx.Amount) < duplicateAmountTolerance {
			return true
		}
	}
	return false
}

func hasDuplicateCheck(existing []core.CheckItem, c core.CheckItem) bool {
	for _, e := range existing {
		if e.Item == c.Item && e.Month == c.Month && e.Year == c.Year &&
			math.Abs(e.Amount-c.Amount) < duplicateAmountTolerance {
			return true
		}
	}
	return false
}
