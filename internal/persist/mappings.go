package persist

import (
	"encoding/json"
	"fmt"
	"sort"

	"budgetbook/internal/core"
)

// mappingsExport is the standalone exchange format for sharing a mapping
// table between documents. Unlike the main document it uses a plain JSON
// object, so key order is not significant.
type mappingsExport struct {
	Categories  []string                `json:"categories"`
	IncomeItems []string                `json:"incomeItems"`
	Mappings    map[string]mappingValue `json:"mappings"`
}

// EncodeMappings serializes the state's classification configuration.
func EncodeMappings(s *core.State) ([]byte, error) {
	out := mappingsExport{
		Categories:  append([]string{}, s.Categories...),
		IncomeItems: append([]string{}, s.IncomeItems...),
		Mappings:    make(map[string]mappingValue, s.Mappings.Len()),
	}
	for _, m := range s.Mappings.Entries() {
		include := m.IncludeInMonthlyExpenses
		out.Mappings[m.Item] = mappingValue{Category: m.Category, IncludeInMonthlyExpenses: &include}
	}
	return json.MarshalIndent(out, "", "  ")
}

// DecodeMappings parses a mappings export. Mapping keys come back sorted so
// an import lands in a deterministic table order; legacy bare-string values
// are accepted the same way the main document codec accepts them.
func DecodeMappings(data []byte) (core.Defaults, error) {
	var raw struct {
		Categories  []string                   `json:"categories"`
		IncomeItems []string                   `json:"incomeItems"`
		Mappings    map[string]json.RawMessage `json:"mappings"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return core.Defaults{}, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	defs := core.Defaults{
		Categories:  raw.Categories,
		IncomeItems: raw.IncomeItems,
	}
	keys := make([]string, 0, len(raw.Mappings))
	for k := range raw.Mappings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var v mappingValue
		if err := json.Unmarshal(raw.Mappings[k], &v); err != nil {
			var category string
			if err := json.Unmarshal(raw.Mappings[k], &category); err != nil {
				return core.Defaults{}, fmt.Errorf("%w: mapping value for %q", ErrCorruptDocument, k)
			}
			v = mappingValue{Category: category}
		}
		include := true
		if v.IncludeInMonthlyExpenses != nil {
			include = *v.IncludeInMonthlyExpenses
		}
		defs.Mappings = append(defs.Mappings, core.Mapping{
			Item:                     k,
			Category:                 v.Category,
			IncludeInMonthlyExpenses: include,
		})
	}
	return defs, nil
}
