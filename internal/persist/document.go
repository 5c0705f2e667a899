// Package persist owns the serialized document format and the load-time
// migrations that bring older documents up to the current schema.
//
// The wire shape is fixed by previously saved documents: pair-array maps,
// "YYYY-M" period keys and camelCase field names. Anything that looks odd
// here is compatibility, not preference.
package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"budgetbook/internal/core"
)

// ErrCorruptDocument marks payloads that cannot be parsed at all. Callers
// are expected to log it and continue from an empty state.
var ErrCorruptDocument = errors.New("corrupt document")

// flexInt decodes a JSON number or a quoted number; old documents stored
// months as strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("numeric string expected: %q", s)
		}
		*f = flexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

type wireTransaction struct {
	ID            string             `json:"id"`
	Month         flexInt            `json:"month"`
	Year          flexInt            `json:"year,omitempty"`
	Item          string             `json:"item"`
	Amount        float64            `json:"amount"`
	Type          string             `json:"type"`
	Category      string             `json:"category"`
	Note          string             `json:"note,omitempty"`
	PaymentMethod string             `json:"paymentMethod,omitempty"`
	CheckDetails  *core.CheckDetails `json:"checkDetails,omitempty"`
	Color         string             `json:"color,omitempty"`
}

type wireCheckItem struct {
	ID          string  `json:"id"`
	Item        string  `json:"item"`
	Amount      float64 `json:"amount"`
	Month       flexInt `json:"month"`
	Year        flexInt `json:"year,omitempty"`
	Note        string  `json:"note,omitempty"`
	CheckNumber string  `json:"checkNumber,omitempty"`
	PayeeName   string  `json:"payeeName,omitempty"`
	Color       string  `json:"color,omitempty"`
}

// mappingValue is the object form of a mapping entry. A nil include flag
// means the document predates the flag and defaults to true.
type mappingValue struct {
	Category                 string `json:"category"`
	IncludeInMonthlyExpenses *bool  `json:"includeInMonthlyExpenses,omitempty"`
}

// mappingPair is one ["item", value] element. The value side is either the
// object form or, in version 1 documents, a bare category string.
type mappingPair struct {
	Item  string
	Value mappingValue
}

func (p *mappingPair) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("mapping pair must have 2 elements, has %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Item); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &p.Value); err == nil {
		return nil
	}
	// Legacy shape: the value is the category string itself.
	var category string
	if err := json.Unmarshal(raw[1], &category); err != nil {
		return fmt.Errorf("mapping value for %q: unsupported shape", p.Item)
	}
	p.Value = mappingValue{Category: category}
	return nil
}

func (p mappingPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Item, p.Value})
}

// balancePair is one ["YYYY-M", amount] element.
type balancePair struct {
	Key   string
	Value float64
}

func (p *balancePair) UnmarshalJSON(b []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &p.Key); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &p.Value)
}

func (p balancePair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Key, p.Value})
}

// notePair is one ["YYYY-M", note] element.
type notePair struct {
	Key   string
	Value string
}

func (p *notePair) UnmarshalJSON(b []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &p.Key); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &p.Value)
}

func (p notePair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Key, p.Value})
}

type document struct {
	Transactions          []wireTransaction `json:"transactions"`
	ImportedCheckItems    []wireCheckItem   `json:"importedCheckItems"`
	Mappings              []mappingPair     `json:"mappings"`
	IncomeItems           []string          `json:"incomeItems"`
	Categories            []string          `json:"categories"`
	OpeningBalances       []balancePair     `json:"openingBalances"`
	ManualOpeningBalances []string          `json:"manualOpeningBalances"`
	MonthlyNotes          []notePair        `json:"monthlyNotes"`
	LastSelectedMonth     flexInt           `json:"lastSelectedMonth,omitempty"`
	LastSelectedYear      flexInt           `json:"lastSelectedYear,omitempty"`
	LastSelectedColor     string            `json:"lastSelectedColor,omitempty"`
	ExportDate            string            `json:"exportDate,omitempty"`
	Version               int               `json:"version"`
}

// Encode serializes the state in the persisted document shape. Pair arrays
// are ordered: mappings by table insertion order, period-keyed maps by
// period, so identical states produce identical bytes.
func Encode(s *core.State, now time.Time) ([]byte, error) {
	doc := document{
		Transactions:          make([]wireTransaction, 0, len(s.Transactions)),
		ImportedCheckItems:    make([]wireCheckItem, 0, len(s.CheckItems)),
		Mappings:              make([]mappingPair, 0, s.Mappings.Len()),
		IncomeItems:           append([]string{}, s.IncomeItems...),
		Categories:            append([]string{}, s.Categories...),
		OpeningBalances:       make([]balancePair, 0, len(s.OpeningBalances)),
		ManualOpeningBalances: make([]string, 0, len(s.ManualOpening)),
		MonthlyNotes:          make([]notePair, 0, len(s.MonthlyNotes)),
		LastSelectedMonth:     flexInt(s.LastSelectedMonth),
		LastSelectedYear:      flexInt(s.LastSelectedYear),
		LastSelectedColor:     s.LastSelectedColor,
		ExportDate:            now.UTC().Format(time.RFC3339),
		Version:               s.Version,
	}
	for _, tx := range s.Transactions {
		doc.Transactions = append(doc.Transactions, wireTransaction{
			ID: tx.ID, Month: flexInt(tx.Month), Year: flexInt(tx.Year),
			Item: tx.Item, Amount: tx.Amount, Type: string(tx.Type),
			Category: tx.Category, Note: tx.Note,
			PaymentMethod: string(tx.PaymentMethod), CheckDetails: tx.CheckDetails,
			Color: tx.Color,
		})
	}
	for _, c := range s.CheckItems {
		doc.ImportedCheckItems = append(doc.ImportedCheckItems, wireCheckItem{
			ID: c.ID, Item: c.Item, Amount: c.Amount,
			Month: flexInt(c.Month), Year: flexInt(c.Year),
			Note: c.Note, CheckNumber: c.CheckNumber, PayeeName: c.PayeeName,
			Color: c.Color,
		})
	}
	for _, m := range s.Mappings.Entries() {
		include := m.IncludeInMonthlyExpenses
		doc.Mappings = append(doc.Mappings, mappingPair{
			Item:  m.Item,
			Value: mappingValue{Category: m.Category, IncludeInMonthlyExpenses: &include},
		})
	}
	for _, p := range sortedPeriods(s.OpeningBalances) {
		doc.OpeningBalances = append(doc.OpeningBalances, balancePair{Key: p.Key(), Value: s.OpeningBalances[p]})
	}
	manual := make([]core.Period, 0, len(s.ManualOpening))
	for p := range s.ManualOpening {
		manual = append(manual, p)
	}
	sortPeriods(manual)
	for _, p := range manual {
		doc.ManualOpeningBalances = append(doc.ManualOpeningBalances, p.Key())
	}
	for _, p := range sortedPeriods(s.MonthlyNotes) {
		doc.MonthlyNotes = append(doc.MonthlyNotes, notePair{Key: p.Key(), Value: s.MonthlyNotes[p]})
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Decode parses a persisted document into an in-memory state. It tolerates
// the legacy shapes (string months, bare-string mapping values, missing
// years); unparsable period keys inside pair arrays are dropped rather than
// failing the whole document. A payload that is not a JSON object at all
// returns ErrCorruptDocument.
func Decode(data []byte) (*core.State, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	s := core.NewState()
	s.Version = doc.Version
	if s.Version == 0 {
		s.Version = 1
	}
	for _, w := range doc.Transactions {
		s.Transactions = append(s.Transactions, core.Transaction{
			ID: w.ID, Month: int(w.Month), Year: int(w.Year),
			Item: w.Item, Amount: w.Amount, Type: core.TransactionType(w.Type),
			Category: w.Category, Note: w.Note,
			PaymentMethod: core.PaymentMethod(w.PaymentMethod),
			CheckDetails:  w.CheckDetails, Color: w.Color,
		})
	}
	for _, w := range doc.ImportedCheckItems {
		s.CheckItems = append(s.CheckItems, core.CheckItem{
			ID: w.ID, Item: w.Item, Amount: w.Amount,
			Month: int(w.Month), Year: int(w.Year),
			Note: w.Note, CheckNumber: w.CheckNumber, PayeeName: w.PayeeName,
			Color: w.Color,
		})
	}
	for _, p := range doc.Mappings {
		include := true
		if p.Value.IncludeInMonthlyExpenses != nil {
			include = *p.Value.IncludeInMonthlyExpenses
		}
		s.Mappings.Set(core.Mapping{
			Item:                     p.Item,
			Category:                 p.Value.Category,
			IncludeInMonthlyExpenses: include,
		})
	}
	s.IncomeItems = append(s.IncomeItems, doc.IncomeItems...)
	s.Categories = append(s.Categories, doc.Categories...)
	for _, p := range doc.OpeningBalances {
		period, err := core.ParsePeriodKey(p.Key)
		if err != nil {
			continue
		}
		s.OpeningBalances[period] = p.Value
	}
	for _, key := range doc.ManualOpeningBalances {
		period, err := core.ParsePeriodKey(key)
		if err != nil {
			continue
		}
		s.ManualOpening[period] = true
	}
	for _, p := range doc.MonthlyNotes {
		period, err := core.ParsePeriodKey(p.Key)
		if err != nil {
			continue
		}
		s.MonthlyNotes[period] = p.Value
	}
	s.LastSelectedMonth = int(doc.LastSelectedMonth)
	s.LastSelectedYear = int(doc.LastSelectedYear)
	s.LastSelectedColor = doc.LastSelectedColor
	return s, nil
}

func sortedPeriods[V any](m map[core.Period]V) []core.Period {
	out := make([]core.Period, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sortPeriods(out)
	return out
}

func sortPeriods(ps []core.Period) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Year != ps[j].Year {
			return ps[i].Year < ps[j].Year
		}
		return ps[i].Month < ps[j].Month
	})
}
