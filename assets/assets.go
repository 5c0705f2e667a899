package assets

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"budgetbook/internal/core"
)

//go:embed defaults.yaml
var defaultsFS embed.FS

// seedFile mirrors the defaults.yaml layout. The monthly flag is a pointer
// so an omitted value defaults to true, matching how legacy mapping entries
// are upgraded at load time.
type seedFile struct {
	Categories  []string `yaml:"categories"`
	IncomeItems []string `yaml:"income_items"`
	Mappings    []struct {
		Item     string `yaml:"item"`
		Category string `yaml:"category"`
		Monthly  *bool  `yaml:"monthly"`
	} `yaml:"mappings"`
}

// Defaults parses the embedded seed document.
func Defaults() (core.Defaults, error) {
	raw, err := defaultsFS.ReadFile("defaults.yaml")
	if err != nil {
		return core.Defaults{}, fmt.Errorf("read embedded defaults: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return core.Defaults{}, fmt.Errorf("parse defaults.yaml: %w", err)
	}

	defs := core.Defaults{
		Categories:  seed.Categories,
		IncomeItems: seed.IncomeItems,
	}
	for _, m := range seed.Mappings {
		include := true
		if m.Monthly != nil {
			include = *m.Monthly
		}
		defs.Mappings = append(defs.Mappings, core.Mapping{
			Item:                     m.Item,
			Category:                 m.Category,
			IncludeInMonthlyExpenses: include,
		})
	}
	return defs, nil
}
