package ledger

import (
	"context"
	"errors"
	"fmt"

	"budgetbook/internal/classify"
	"budgetbook/internal/core"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCheckItemNotFound   = errors.New("check item not found")
)

// EntryInput carries user-provided fields for a new transaction. Year zero
// defaults to the session year. Type, when set, overrides the income
// classification; the deposit special cases still win.
type EntryInput struct {
	Item        string
	Amount      float64
	Month       int
	Year        int
	Type        core.TransactionType
	Note        string
	Color       string
	CheckNumber string
	PayeeName   string
}

// AddEntry classifies the item, normalizes the amount sign to the resolved
// type and appends the transaction. The entry's period becomes the current
// selection.
func (l *Ledger) AddEntry(ctx context.Context, in EntryInput) (core.Transaction, error) {
	var tx core.Transaction
	err := l.update(ctx, func(s *core.State) error {
		res := classify.Classify(in.Item, s.Mappings, s.IncomeItems)

		t := res.Type
		if in.Type != "" && !res.TypeForced {
			if !in.Type.Valid() {
				return core.ErrInvalidType
			}
			t = in.Type
		}

		year := in.Year
		if year == 0 {
			year = l.currentYear
		}

		tx = core.Transaction{
			ID:            core.NewID(),
			Month:         in.Month,
			Year:          year,
			Item:          res.Item,
			Amount:        core.NormalizeSign(in.Amount, t),
			Type:          t,
			Category:      res.Category,
			Note:          in.Note,
			PaymentMethod: core.PayCash,
			Color:         in.Color,
		}
		if classify.IsCheckPayment(res.Item) || in.CheckNumber != "" || in.PayeeName != "" {
			tx.PaymentMethod = core.PayCheck
			tx.CheckDetails = &core.CheckDetails{
				CheckNumber: in.CheckNumber,
				PayeeName:   in.PayeeName,
			}
			if tx.Note == "" && classify.IsBareCheckMarker(res.Item) {
				tx.Note = checkNote(in.CheckNumber, in.PayeeName)
			}
		}
		if err := tx.Validate(); err != nil {
			return err
		}

		s.Transactions = append(s.Transactions, tx)
		s.LastSelectedMonth = tx.Month
		s.LastSelectedYear = tx.Year
		if tx.Color != "" {
			s.LastSelectedColor = tx.Color
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// checkNote synthesizes a note for entries whose item is nothing but a check
// marker, so the report line still says what the check was for.
func checkNote(number, payee string) string {
	switch {
	case number != "" && payee != "":
		return fmt.Sprintf("check #%s to %s", number, payee)
	case payee != "":
		return "check to " + payee
	case number != "":
		return "check #" + number
	}
	return ""
}

// TransactionUpdate lists the mutable transaction fields; nil leaves a field
// unchanged. Month and year are deliberately absent: moving an entry across
// periods would invalidate cached derived balances, so period fixes are
// delete and re-add.
type TransactionUpdate struct {
	Item     *string
	Amount   *float64
	Type     *core.TransactionType
	Category *string
	Note     *string
	Color    *string
}

// UpdateTransaction applies the given field updates. A changed item is
// reclassified; an explicit type or category wins over the classification
// except where a deposit special case forces the type.
func (l *Ledger) UpdateTransaction(ctx context.Context, id string, upd TransactionUpdate) (core.Transaction, error) {
	var out core.Transaction
	err := l.update(ctx, func(s *core.State) error {
		i := findTransaction(s, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
		}
		tx := s.Transactions[i]

		if upd.Item != nil {
			res := classify.Classify(*upd.Item, s.Mappings, s.IncomeItems)
			tx.Item = res.Item
			tx.Category = res.Category
			tx.Type = res.Type
			if classify.IsCheckPayment(res.Item) {
				tx.PaymentMethod = core.PayCheck
				if tx.CheckDetails == nil {
					tx.CheckDetails = &core.CheckDetails{}
				}
			}
		}
		if upd.Type != nil {
			if !upd.Type.Valid() {
				return core.ErrInvalidType
			}
			tx.Type = *upd.Type
		}
		// The deposit rules always win the type argument.
		if forced, ok := classify.DepositOverride(tx.Item); ok {
			tx.Type = forced
		}
		if upd.Category != nil {
			tx.Category = *upd.Category
			s.AddCategory(*upd.Category)
		}
		if upd.Amount != nil {
			tx.Amount = *upd.Amount
		}
		if upd.Note != nil {
			tx.Note = *upd.Note
		}
		if upd.Color != nil {
			tx.Color = *upd.Color
		}

		tx.Amount = core.NormalizeSign(tx.Amount, tx.Type)
		if err := tx.Validate(); err != nil {
			return err
		}
		s.Transactions[i] = tx
		out = tx
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return out, nil
}

// DeleteTransaction removes the transaction with the given id.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) error {
	return l.update(ctx, func(s *core.State) error {
		i := findTransaction(s, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
		}
		s.Transactions = append(s.Transactions[:i], s.Transactions[i+1:]...)
		return nil
	})
}

func findTransaction(s *core.State, id string) int {
	for i, tx := range s.Transactions {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

// CheckItemInput carries user-provided fields for a manual check item entry.
type CheckItemInput struct {
	Item        string
	Amount      float64
	Month       int
	Year        int
	Note        string
	CheckNumber string
	PayeeName   string
	Color       string
}

// AddCheckItem appends a check placeholder row. The amount is forced
// negative; check items always record money going out. An empty color gets
// the fixed check tag.
func (l *Ledger) AddCheckItem(ctx context.Context, in CheckItemInput) (core.CheckItem, error) {
	var item core.CheckItem
	err := l.update(ctx, func(s *core.State) error {
		year := in.Year
		if year == 0 {
			year = l.currentYear
		}
		color := in.Color
		if color == "" {
			color = core.CheckColor
		}
		amount := in.Amount
		if amount > 0 {
			amount = -amount
		}
		item = core.CheckItem{
			ID:          core.NewID(),
			Item:        classify.Normalize(in.Item),
			Amount:      amount,
			Month:       in.Month,
			Year:        year,
			Note:        in.Note,
			CheckNumber: in.CheckNumber,
			PayeeName:   in.PayeeName,
			Color:       color,
		}
		if err := item.Validate(); err != nil {
			return err
		}
		s.CheckItems = append(s.CheckItems, item)
		return nil
	})
	if err != nil {
		return core.CheckItem{}, err
	}
	return item, nil
}

// CheckItemUpdate lists the mutable check item fields; nil leaves a field
// unchanged. Month and year are immutable like transactions.
type CheckItemUpdate struct {
	Item        *string
	Amount      *float64
	Note        *string
	CheckNumber *string
	PayeeName   *string
	Color       *string
}

func (l *Ledger) UpdateCheckItem(ctx context.Context, id string, upd CheckItemUpdate) (core.CheckItem, error) {
	var out core.CheckItem
	err := l.update(ctx, func(s *core.State) error {
		i := findCheckItem(s, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrCheckItemNotFound, id)
		}
		item := s.CheckItems[i]

		if upd.Item != nil {
			item.Item = classify.Normalize(*upd.Item)
		}
		if upd.Amount != nil {
			item.Amount = *upd.Amount
			if item.Amount > 0 {
				item.Amount = -item.Amount
			}
		}
		if upd.Note != nil {
			item.Note = *upd.Note
		}
		if upd.CheckNumber != nil {
			item.CheckNumber = *upd.CheckNumber
		}
		if upd.PayeeName != nil {
			item.PayeeName = *upd.PayeeName
		}
		if upd.Color != nil {
			item.Color = *upd.Color
		}

		if err := item.Validate(); err != nil {
			return err
		}
		s.CheckItems[i] = item
		out = item
		return nil
	})
	if err != nil {
		return core.CheckItem{}, err
	}
	return out, nil
}

// DeleteCheckItem removes the check item with the given id.
func (l *Ledger) DeleteCheckItem(ctx context.Context, id string) error {
	return l.update(ctx, func(s *core.State) error {
		i := findCheckItem(s, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrCheckItemNotFound, id)
		}
		s.CheckItems = append(s.CheckItems[:i], s.CheckItems[i+1:]...)
		return nil
	})
}

func findCheckItem(s *core.State, id string) int {
	for i, c := range s.CheckItems {
		if c.ID == id {
			return i
		}
	}
	return -1
}
