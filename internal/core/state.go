package core

// DocumentVersion is the schema version written into saved documents.
// Version 1 stored mappings as bare category strings and months as strings;
// version 2 introduced the mapping object shape; version 3 made years
// explicit on every transaction.
const DocumentVersion = 3

// MappingTable is the item-to-category lookup. It preserves insertion order
// because the substring fallback resolves ties by first match in that order;
// a plain map would randomize the tie-break between runs.
type MappingTable struct {
	entries []Mapping
	index   map[string]int
}

func NewMappingTable() *MappingTable {
	return &MappingTable{index: make(map[string]int)}
}

func (t *MappingTable) Len() int {
	return len(t.entries)
}

// Get looks up the entry for an exact (case-sensitive) item key.
func (t *MappingTable) Get(item string) (Mapping, bool) {
	i, ok := t.index[item]
	if !ok {
		return Mapping{}, false
	}
	return t.entries[i], true
}

// Set updates the entry for m.Item in place, or appends it when the item is
// new. Appending keeps the table's first-match order stable for old keys.
func (t *MappingTable) Set(m Mapping) {
	if i, ok := t.index[m.Item]; ok {
		t.entries[i] = m
		return
	}
	t.index[m.Item] = len(t.entries)
	t.entries = append(t.entries, m)
}

// Delete removes the entry for item and reports whether it existed.
func (t *MappingTable) Delete(item string) bool {
	i, ok := t.index[item]
	if !ok {
		return false
	}
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	delete(t.index, item)
	for j := i; j < len(t.entries); j++ {
		t.index[t.entries[j].Item] = j
	}
	return true
}

// Entries returns the mappings in insertion order. The slice is a copy.
func (t *MappingTable) Entries() []Mapping {
	out := make([]Mapping, len(t.entries))
	copy(out, t.entries)
	return out
}

// Range calls f for each mapping in insertion order until f returns false.
func (t *MappingTable) Range(f func(Mapping) bool) {
	for _, m := range t.entries {
		if !f(m) {
			return
		}
	}
}

func (t *MappingTable) Clone() *MappingTable {
	c := &MappingTable{
		entries: make([]Mapping, len(t.entries)),
		index:   make(map[string]int, len(t.index)),
	}
	copy(c.entries, t.entries)
	for k, v := range t.index {
		c.index[k] = v
	}
	return c
}

// State is the aggregate the whole tracker operates on. It is owned by the
// ledger, persisted as one document, and replaced wholesale when a newer
// remote copy wins a sync cycle.
type State struct {
	Transactions []Transaction
	CheckItems   []CheckItem
	Mappings     *MappingTable
	IncomeItems  []string
	Categories   []string

	OpeningBalances map[Period]float64
	ManualOpening   map[Period]bool
	MonthlyNotes    map[Period]string

	LastSelectedMonth int
	LastSelectedYear  int
	LastSelectedColor string

	Version int
}

func NewState() *State {
	return &State{
		Mappings:        NewMappingTable(),
		OpeningBalances: make(map[Period]float64),
		ManualOpening:   make(map[Period]bool),
		MonthlyNotes:    make(map[Period]string),
		Version:         DocumentVersion,
	}
}

// Clone returns a deep copy, used for read-side snapshots so projections can
// run without holding the ledger lock.
func (s *State) Clone() *State {
	c := &State{
		Transactions:      make([]Transaction, len(s.Transactions)),
		CheckItems:        make([]CheckItem, len(s.CheckItems)),
		Mappings:          s.Mappings.Clone(),
		IncomeItems:       append([]string(nil), s.IncomeItems...),
		Categories:        append([]string(nil), s.Categories...),
		OpeningBalances:   make(map[Period]float64, len(s.OpeningBalances)),
		ManualOpening:     make(map[Period]bool, len(s.ManualOpening)),
		MonthlyNotes:      make(map[Period]string, len(s.MonthlyNotes)),
		LastSelectedMonth: s.LastSelectedMonth,
		LastSelectedYear:  s.LastSelectedYear,
		LastSelectedColor: s.LastSelectedColor,
		Version:           s.Version,
	}
	copy(c.Transactions, s.Transactions)
	for i, tx := range c.Transactions {
		if tx.CheckDetails != nil {
			cd := *tx.CheckDetails
			c.Transactions[i].CheckDetails = &cd
		}
	}
	copy(c.CheckItems, s.CheckItems)
	for k, v := range s.OpeningBalances {
		c.OpeningBalances[k] = v
	}
	for k := range s.ManualOpening {
		c.ManualOpening[k] = true
	}
	for k, v := range s.MonthlyNotes {
		c.MonthlyNotes[k] = v
	}
	return c
}

// HasCategory reports whether name is already in the category set.
func (s *State) HasCategory(name string) bool {
	return containsString(s.Categories, name)
}

// AddCategory appends name if absent and reports whether it was added.
func (s *State) AddCategory(name string) bool {
	if name == "" || s.HasCategory(name) {
		return false
	}
	s.Categories = append(s.Categories, name)
	return true
}

func (s *State) HasIncomeItem(name string) bool {
	return containsString(s.IncomeItems, name)
}

func (s *State) AddIncomeItem(name string) bool {
	if name == "" || s.HasIncomeItem(name) {
		return false
	}
	s.IncomeItems = append(s.IncomeItems, name)
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
