// Package report builds read-only projections over a state snapshot and
// renders them as terminal tables or JSON. Projections never mutate the live
// ledger; callers hand in a snapshot and keep the result.
package report

import (
	"math"
	"sort"

	"budgetbook/internal/balance"
	"budgetbook/internal/classify"
	"budgetbook/internal/core"
)

// MonthlySummary is the headline view of one period.
type MonthlySummary struct {
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	MonthName     string  `json:"month_name"`
	Opening       float64 `json:"opening"`
	ManualOpening bool    `json:"manual_opening"`
	Income        float64 `json:"income"`
	Expense       float64 `json:"expense"`
	Transfer      float64 `json:"transfer"`
	Closing       float64 `json:"closing"`
	Transactions  int     `json:"transactions"`
	Note          string  `json:"note,omitempty"`
}

// Monthly summarizes period p. Deriving the opening may cache intermediate
// balances on the snapshot, which is why projections take their own copy.
func Monthly(s *core.State, p core.Period, currentYear int) MonthlySummary {
	sum := balance.Totals(s.Transactions, p, currentYear)
	return MonthlySummary{
		Year:          p.Year,
		Month:         p.Month,
		MonthName:     core.MonthName(p.Month),
		Opening:       balance.Opening(s, p, currentYear),
		ManualOpening: balance.IsManual(s, p),
		Income:        sum.Income,
		Expense:       sum.Expense,
		Transfer:      sum.Transfer,
		Closing:       balance.Closing(s, p, currentYear),
		Transactions:  sum.Count,
		Note:          s.MonthlyNotes[p],
	}
}

// CategoryTotal is one category's movement within a period. InMonthly is the
// portion of the absolute expense that counts toward the monthly expense
// total; items mapped with includeInMonthlyExpenses=false contribute to
// Amount but not here.
type CategoryTotal struct {
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
	InMonthly float64 `json:"in_monthly"`
	Count     int     `json:"count"`
}

// CategoryBreakdown is the per-period category view.
type CategoryBreakdown struct {
	Year            int             `json:"year"`
	Month           int             `json:"month"`
	Totals          []CategoryTotal `json:"totals"`
	MonthlyExpenses float64         `json:"monthly_expenses"`
	OtherExpenses   float64         `json:"other_expenses"`
}

// Categories aggregates period p by category, largest movement first. The
// include flag is re-resolved through classification so the breakdown always
// reflects the current mapping table, not the flag at entry time.
func Categories(s *core.State, p core.Period, currentYear int) CategoryBreakdown {
	byName := map[string]*CategoryTotal{}
	b := CategoryBreakdown{Year: p.Year, Month: p.Month}
	for _, tx := range s.Transactions {
		year := tx.Year
		if year == 0 {
			year = currentYear
		}
		if year != p.Year || tx.Month != p.Month {
			continue
		}
		name := tx.Category
		if name == "" {
			name = core.CategoryUncategorized
		}
		ct := byName[name]
		if ct == nil {
			ct = &CategoryTotal{Category: name}
			byName[name] = ct
		}
		ct.Amount += tx.Amount
		ct.Count++
		if tx.Type != core.Expense {
			continue
		}
		abs := math.Abs(tx.Amount)
		if classify.Classify(tx.Item, s.Mappings, s.IncomeItems).IncludeInMonthly {
			ct.InMonthly += abs
			b.MonthlyExpenses += abs
		} else {
			b.OtherExpenses += abs
		}
	}

	b.Totals = make([]CategoryTotal, 0, len(byName))
	for _, ct := range byName {
		b.Totals = append(b.Totals, *ct)
	}
	sort.Slice(b.Totals, func(i, j int) bool {
		ai, aj := math.Abs(b.Totals[i].Amount), math.Abs(b.Totals[j].Amount)
		if ai != aj {
			return ai > aj
		}
		return b.Totals[i].Category < b.Totals[j].Category
	})
	return b
}

// MonthCell is one month's column in the annual grid.
type MonthCell struct {
	Month    int     `json:"month"`
	Opening  float64 `json:"opening"`
	Income   float64 `json:"income"`
	Expense  float64 `json:"expense"`
	Transfer float64 `json:"transfer"`
	Closing  float64 `json:"closing"`
	Count    int     `json:"count"`
}

// AnnualGrid is the twelve-month balance overview for one year.
type AnnualGrid struct {
	Year          int           `json:"year"`
	Months        [12]MonthCell `json:"months"`
	TotalIncome   float64       `json:"total_income"`
	TotalExpense  float64       `json:"total_expense"`
	TotalTransfer float64       `json:"total_transfer"`
}

// Annual builds the year grid. Months are computed in order so each derived
// opening is cached on the snapshot before the next month reads it.
func Annual(s *core.State, year, currentYear int) AnnualGrid {
	g := AnnualGrid{Year: year}
	for m := 1; m <= 12; m++ {
		p := core.NewPeriod(year, m)
		sum := balance.Totals(s.Transactions, p, currentYear)
		g.Months[m-1] = MonthCell{
			Month:    m,
			Opening:  balance.Opening(s, p, currentYear),
			Income:   sum.Income,
			Expense:  sum.Expense,
			Transfer: sum.Transfer,
			Closing:  balance.Closing(s, p, currentYear),
			Count:    sum.Count,
		}
		g.TotalIncome += sum.Income
		g.TotalExpense += sum.Expense
		g.TotalTransfer += sum.Transfer
	}
	return g
}

// ColorSum is the movement carried by one visual tag within a period.
type ColorSum struct {
	Color  string  `json:"color"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// ColorSums groups the period's colored transactions and check items by tag,
// in palette order. Untagged entries are ignored.
func ColorSums(s *core.State, p core.Period, currentYear int) []ColorSum {
	byColor := map[string]*ColorSum{}
	add := func(color string, amount float64, year, month int) {
		if color == "" {
			return
		}
		if year == 0 {
			year = currentYear
		}
		if year != p.Year || month != p.Month {
			return
		}
		cs := byColor[color]
		if cs == nil {
			cs = &ColorSum{Color: color}
			byColor[color] = cs
		}
		cs.Amount += amount
		cs.Count++
	}
	for _, tx := range s.Transactions {
		add(tx.Color, tx.Amount, tx.Year, tx.Month)
	}
	for _, c := range s.CheckItems {
		add(c.Color, c.Amount, c.Year, c.Month)
	}

	out := make([]ColorSum, 0, len(byColor))
	for _, color := range core.Colors {
		if cs, ok := byColor[color]; ok {
			out = append(out, *cs)
		}
	}
	return out
}

// MappingRow is one mapping table entry with its transaction usage count.
type MappingRow struct {
	Item      string `json:"item"`
	Category  string `json:"category"`
	InMonthly bool   `json:"in_monthly"`
	Uses      int    `json:"uses"`
}

// Mappings lists the mapping table in insertion order with usage counts.
func Mappings(s *core.State) []MappingRow {
	uses := make(map[string]int, len(s.Transactions))
	for _, tx := range s.Transactions {
		uses[tx.Item]++
	}

	out := make([]MappingRow, 0, s.Mappings.Len())
	for _, m := range s.Mappings.Entries() {
		out = append(out, MappingRow{
			Item:      m.Item,
			Category:  m.Category,
			InMonthly: m.IncludeInMonthlyExpenses,
			Uses:      uses[m.Item],
		})
	}
	return out
}
