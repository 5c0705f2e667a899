package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"budgetbook/internal/classify"
	"budgetbook/internal/core"
	"budgetbook/internal/persist"
)

var (
	ErrMappingNotFound = errors.New("mapping not found")
	ErrEmptyCategory   = errors.New("empty category")
)

// MappingInUseError blocks deleting a mapping while transactions still
// reference its item.
type MappingInUseError struct {
	Item  string
	Count int
}

func (e *MappingInUseError) Error() string {
	return fmt.Sprintf("mapping %q is referenced by %d transaction(s)", e.Item, e.Count)
}

// SetMapping creates or updates a mapping entry. A new category is appended
// to the category set; any string is accepted as a category.
func (l *Ledger) SetMapping(ctx context.Context, item, category string, include bool) (core.Mapping, error) {
	var m core.Mapping
	err := l.update(ctx, func(s *core.State) error {
		norm := classify.Normalize(item)
		if norm == "" {
			return core.ErrEmptyItem
		}
		if strings.TrimSpace(category) == "" {
			return ErrEmptyCategory
		}
		m = core.Mapping{Item: norm, Category: category, IncludeInMonthlyExpenses: include}
		s.Mappings.Set(m)
		s.AddCategory(category)
		return nil
	})
	return m, err
}

// ConfirmMapping is the interactive-entry variant of SetMapping: a novel item
// was just classified as uncategorized and the user supplied its category.
// Besides writing the mapping it recategorizes existing transactions for the
// same item that are still uncategorized, and returns how many it touched.
func (l *Ledger) ConfirmMapping(ctx context.Context, item, category string, include bool) (int, error) {
	var updated int
	err := l.update(ctx, func(s *core.State) error {
		norm := classify.Normalize(item)
		if norm == "" {
			return core.ErrEmptyItem
		}
		if strings.TrimSpace(category) == "" {
			return ErrEmptyCategory
		}
		s.Mappings.Set(core.Mapping{Item: norm, Category: category, IncludeInMonthlyExpenses: include})
		s.AddCategory(category)
		for i := range s.Transactions {
			if s.Transactions[i].Item == norm && s.Transactions[i].Category == core.CategoryUncategorized {
				s.Transactions[i].Category = category
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// DeleteMapping removes a mapping entry. Deletion is refused with a
// MappingInUseError while any transaction references the item, leaving the
// table unchanged.
func (l *Ledger) DeleteMapping(ctx context.Context, item string) error {
	return l.update(ctx, func(s *core.State) error {
		norm := classify.Normalize(item)
		if _, ok := s.Mappings.Get(norm); !ok {
			return fmt.Errorf("%w: %s", ErrMappingNotFound, norm)
		}
		if n := usageCount(s, norm); n > 0 {
			return &MappingInUseError{Item: norm, Count: n}
		}
		s.Mappings.Delete(norm)
		return nil
	})
}

// UsageCount reports how many transactions reference the item.
func (l *Ledger) UsageCount(item string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return usageCount(l.state, classify.Normalize(item))
}

func usageCount(s *core.State, item string) int {
	n := 0
	for _, tx := range s.Transactions {
		if tx.Item == item {
			n++
		}
	}
	return n
}

// AddCategory appends a category name. Adding an existing name is a no-op.
func (l *Ledger) AddCategory(ctx context.Context, name string) (bool, error) {
	var added bool
	err := l.update(ctx, func(s *core.State) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return ErrEmptyCategory
		}
		added = s.AddCategory(name)
		if !added {
			return errNoChange
		}
		return nil
	})
	return added, err
}

// AddIncomeItem appends an item to the income set. Adding an existing item
// is a no-op.
func (l *Ledger) AddIncomeItem(ctx context.Context, item string) (bool, error) {
	var added bool
	err := l.update(ctx, func(s *core.State) error {
		norm := classify.Normalize(item)
		if norm == "" {
			return core.ErrEmptyItem
		}
		added = s.AddIncomeItem(norm)
		if !added {
			return errNoChange
		}
		return nil
	})
	return added, err
}

// MappingsImportReport summarizes an ImportMappings call.
type MappingsImportReport struct {
	Mappings    int
	Categories  int
	IncomeItems int
}

// ImportMappings merges an exported mappings document: categories and income
// items are unioned, mapping entries overwrite per key. Counts cover applied
// mappings and newly added list entries.
func (l *Ledger) ImportMappings(ctx context.Context, data []byte) (MappingsImportReport, error) {
	defs, err := persist.DecodeMappings(data)
	if err != nil {
		return MappingsImportReport{}, err
	}
	var rep MappingsImportReport
	err = l.update(ctx, func(s *core.State) error {
		for _, c := range defs.Categories {
			if s.AddCategory(c) {
				rep.Categories++
			}
		}
		for _, it := range defs.IncomeItems {
			if s.AddIncomeItem(it) {
				rep.IncomeItems++
			}
		}
		for _, m := range defs.Mappings {
			if m.Item == "" {
				continue
			}
			s.Mappings.Set(m)
			s.AddCategory(m.Category)
			rep.Mappings++
		}
		if rep.Mappings == 0 && rep.Categories == 0 && rep.IncomeItems == 0 {
			return errNoChange
		}
		return nil
	})
	if err != nil {
		return MappingsImportReport{}, err
	}
	return rep, nil
}

// ExportMappings renders the mapping table, category set and income set in
// the exchange format ImportMappings accepts.
func (l *Ledger) ExportMappings() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return persist.EncodeMappings(l.state)
}
