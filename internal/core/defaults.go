package core

// Defaults is the seed configuration merged additively into every loaded
// document: starter categories, canonical income items and a small mapping
// table. User entries are never removed or overwritten by the merge.
type Defaults struct {
	Categories  []string
	IncomeItems []string
	Mappings    []Mapping
}
