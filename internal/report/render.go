package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
	"budgetbook/internal/reconcile"
)

// WriteJSON renders any projection as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// money colors a signed amount: red below zero, green above, plain at zero.
func money(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	switch {
	case v < 0:
		return text.FgRed.Sprint(s)
	case v > 0:
		return text.FgGreen.Sprint(s)
	default:
		return s
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

// RenderMonthly prints the one-period headline table.
func RenderMonthly(w io.Writer, m MonthlySummary) {
	fmt.Fprintf(w, "%s %d (%d transactions)\n", m.MonthName, m.Year, m.Transactions)

	t := newTable(w)
	t.AppendHeader(table.Row{"", "Amount"})
	opening := "Opening"
	if m.ManualOpening {
		opening = "Opening (manual)"
	}
	t.AppendRow(table.Row{opening, money(m.Opening)})
	t.AppendRow(table.Row{"Income", money(m.Income)})
	t.AppendRow(table.Row{"Expenses", money(-m.Expense)})
	t.AppendRow(table.Row{"Transfers", money(m.Transfer)})
	t.AppendSeparator()
	t.AppendRow(table.Row{text.Bold.Sprint("Closing"), text.Bold.Sprint(money(m.Closing))})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.Render()

	if m.Note != "" {
		fmt.Fprintf(w, "Note: %s\n", m.Note)
	}
}

// RenderCategories prints the per-category breakdown for one period.
func RenderCategories(w io.Writer, b CategoryBreakdown) {
	fmt.Fprintf(w, "%s %d by category\n", core.MonthName(b.Month), b.Year)

	t := newTable(w)
	t.AppendHeader(table.Row{"Category", "Amount", "In Monthly", "Rows"})
	for _, ct := range b.Totals {
		inMonthly := text.FgHiBlack.Sprint("-")
		if ct.InMonthly != 0 {
			inMonthly = strconv.FormatFloat(ct.InMonthly, 'f', 2, 64)
		}
		t.AppendRow(table.Row{ct.Category, money(ct.Amount), inMonthly, ct.Count})
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{
		text.Bold.Sprint("Monthly expenses"),
		"",
		text.Bold.Sprint(strconv.FormatFloat(b.MonthlyExpenses, 'f', 2, 64)),
		"",
	})
	if b.OtherExpenses != 0 {
		t.AppendFooter(table.Row{
			"Excluded from monthly",
			"",
			strconv.FormatFloat(b.OtherExpenses, 'f', 2, 64),
			"",
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
}

// RenderAnnual prints the twelve-month grid, one row per month.
func RenderAnnual(w io.Writer, g AnnualGrid) {
	fmt.Fprintf(w, "Year %d\n", g.Year)

	t := newTable(w)
	t.AppendHeader(table.Row{"Month", "Opening", "Income", "Expenses", "Transfers", "Closing", "Rows"})
	for _, c := range g.Months {
		t.AppendRow(table.Row{
			core.MonthName(c.Month),
			money(c.Opening),
			money(c.Income),
			money(-c.Expense),
			money(c.Transfer),
			money(c.Closing),
			c.Count,
		})
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{
		text.Bold.Sprint("Total"),
		"",
		text.Bold.Sprint(money(g.TotalIncome)),
		text.Bold.Sprint(money(-g.TotalExpense)),
		text.Bold.Sprint(money(g.TotalTransfer)),
		"",
		"",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	t.Render()
}

// RenderColorSums prints the color-tag totals for one period.
func RenderColorSums(w io.Writer, p core.Period, sums []ColorSum) {
	if len(sums) == 0 {
		fmt.Fprintf(w, "No colored entries in %s %d\n", core.MonthName(p.Month), p.Year)
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Color", "Amount", "Rows"})
	for _, cs := range sums {
		t.AppendRow(table.Row{cs.Color, money(cs.Amount), cs.Count})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()
}

// RenderMappings prints the mapping table with usage counts.
func RenderMappings(w io.Writer, rows []MappingRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No mappings defined")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Item", "Category", "In Monthly", "Uses"})
	for _, r := range rows {
		inMonthly := "yes"
		if !r.InMonthly {
			inMonthly = text.FgHiBlack.Sprint("no")
		}
		t.AppendRow(table.Row{r.Item, r.Category, inMonthly, r.Uses})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, Align: text.AlignRight}})
	t.Render()
}

// RenderImport prints the outcome of a reconciled batch and its merge. A nil
// merge report renders the dry-run view of what would be written.
func RenderImport(w io.Writer, res *reconcile.Result, merge *ledger.MergeReport) {
	fmt.Fprintf(w, "Batch %s for %s %d\n", res.BatchID, core.MonthName(res.Period.Month), res.Period.Year)

	t := newTable(w)
	t.AppendHeader(table.Row{"", "Rows"})
	t.AppendRow(table.Row{"Transactions parsed", len(res.Transactions)})
	t.AppendRow(table.Row{"Check items parsed", len(res.CheckItems)})
	t.AppendRow(table.Row{"Rows skipped", res.Skipped})
	if merge != nil {
		t.AppendSeparator()
		t.AppendRow(table.Row{"Transactions added", merge.Added})
		t.AppendRow(table.Row{"Duplicate transactions", merge.DuplicateTransactions})
		t.AppendRow(table.Row{"Check items added", merge.AddedChecks})
		t.AppendRow(table.Row{"Duplicate check items", merge.DuplicateChecks})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.Render()

	if merge == nil {
		fmt.Fprintln(w, "Dry run: nothing written")
	}
}

// RenderIngest prints what Excel ingestion kept and dropped.
func RenderIngest(w io.Writer, rep reconcile.IngestReport) {
	fmt.Fprintf(w, "Sheet rows: %d, kept %d for %s %d\n",
		rep.SourceRows, rep.Kept, core.MonthName(rep.Month), rep.Year)
	if rep.DroppedOther > 0 {
		fmt.Fprintf(w, "Dropped %d rows from other months\n", rep.DroppedOther)
	}
	if rep.DroppedInvalid > 0 {
		fmt.Fprintf(w, "Dropped %d rows with unreadable dates\n", rep.DroppedInvalid)
	}
}
