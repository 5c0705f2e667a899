// Package reconcile validates bulk-import batches and turns them into
// transactions and check items ready for the ledger's merge.
//
// The pipeline fails closed: a structural violation aborts the whole batch
// with a descriptive error and nothing is applied. Only two row conditions
// pass silently, a row with both or neither amount side filled and a row
// whose single amount is zero; those are counted and reported.
package reconcile

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"budgetbook/internal/classify"
	"budgetbook/internal/core"
)

var (
	ErrNoTarget       = errors.New("no target period selected")
	ErrBadHeader      = errors.New("unexpected header")
	ErrUnknownMonth   = errors.New("unresolvable month name")
	ErrBadYear        = errors.New("non-numeric year")
	ErrMixedPeriods   = errors.New("batch spans multiple periods")
	ErrTargetMismatch = errors.New("batch period does not match selected target")
	ErrBadAmount      = errors.New("non-numeric amount")
	ErrEmptyBatch     = errors.New("batch has no usable rows")
)

// Row is one pre-flattened import row: the CSV columns as text, or an Excel
// row after date conversion. Line is the 1-based source row number used in
// error messages.
type Row struct {
	Year   string
	Month  string
	Item   string
	Debit  string
	Credit string
	Line   int
}

// Result is a reconciled batch.
type Result struct {
	BatchID      string
	Period       core.Period
	Transactions []core.Transaction
	CheckItems   []core.CheckItem
	// Skipped counts rows dropped silently: both or neither amount side
	// filled, or a zero amount.
	Skipped int
}

// Reconcile validates a homogeneous batch of rows against the pre-selected
// target period and builds the entries it contains.
//
// Validation order: a concrete target must be selected; every row's month
// name must resolve and its year must parse; all rows must share exactly one
// period; that period must equal the target; every kept row's amount must
// parse. The first violation aborts the batch.
//
// A row whose item is the bracketed check placeholder is diverted into the
// check-item output under a synthesized label carrying the month name, with
// the fixed check color. Ordinary rows take their type from the filled side,
// credit as income and debit as expense, and their category from the mapping
// table.
func Reconcile(rows []Row, target core.Period, table *core.MappingTable, incomeItems []string) (*Result, error) {
	if !target.Valid() {
		return nil, ErrNoTarget
	}

	type resolved struct {
		row    Row
		period core.Period
	}
	var batch []resolved
	periods := map[core.Period]bool{}
	for _, row := range rows {
		month, ok := core.ResolveMonth(row.Month)
		if !ok {
			return nil, fmt.Errorf("%w: %q (row %d)", ErrUnknownMonth, row.Month, row.Line)
		}
		year, err := strconv.Atoi(strings.TrimSpace(row.Year))
		if err != nil || year < 1 {
			return nil, fmt.Errorf("%w: %q (row %d)", ErrBadYear, row.Year, row.Line)
		}
		p := core.NewPeriod(year, month)
		periods[p] = true
		batch = append(batch, resolved{row: row, period: p})
	}
	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(periods) > 1 {
		return nil, fmt.Errorf("%w: found %s", ErrMixedPeriods, periodList(periods))
	}
	period := batch[0].period
	if period != target {
		return nil, fmt.Errorf("%w: batch is %s %d, target is %s %d",
			ErrTargetMismatch,
			core.MonthName(period.Month), period.Year,
			core.MonthName(target.Month), target.Year)
	}

	res := &Result{
		BatchID: uuid.NewString(),
		Period:  period,
	}
	for _, r := range batch {
		debit := strings.TrimSpace(r.row.Debit)
		credit := strings.TrimSpace(r.row.Credit)
		hasDebit := debit != ""
		hasCredit := credit != ""
		if hasDebit == hasCredit {
			res.Skipped++
			continue
		}

		side, txType := debit, core.Expense
		if hasCredit {
			side, txType = credit, core.Income
		}
		amount, err := parseAmount(side)
		if err != nil {
			return nil, fmt.Errorf("%w: %q (row %d)", ErrBadAmount, side, r.row.Line)
		}
		if amount == 0 {
			res.Skipped++
			continue
		}

		if classify.IsCheckRowMarker(r.row.Item) {
			res.CheckItems = append(res.CheckItems, core.CheckItem{
				ID:     core.NewID(),
				Item:   fmt.Sprintf("checks (%s)", core.MonthName(r.period.Month)),
				Amount: -amount,
				Month:  r.period.Month,
				Year:   r.period.Year,
				Color:  core.CheckColor,
			})
			continue
		}

		cls := classify.Classify(r.row.Item, table, incomeItems)
		tx := core.Transaction{
			ID:            core.NewID(),
			Month:         r.period.Month,
			Year:          r.period.Year,
			Item:          cls.Item,
			Amount:        core.NormalizeSign(amount, txType),
			Type:          txType,
			Category:      cls.Category,
			PaymentMethod: core.PayCash,
		}
		if classify.IsCheckPayment(cls.Item) {
			tx.PaymentMethod = core.PayCheck
			tx.CheckDetails = &core.CheckDetails{}
		}
		res.Transactions = append(res.Transactions, tx)
	}
	return res, nil
}

// parseAmount accepts plain decimals plus the thousands separators and
// currency glyphs bank exports sprinkle in, and returns the magnitude.
func parseAmount(s string) (float64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	clean = strings.TrimPrefix(clean, "₪")
	clean = strings.TrimPrefix(clean, "$")
	clean = strings.TrimSpace(clean)
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, err
	}
	return math.Abs(v), nil
}

func periodList(periods map[core.Period]bool) string {
	out := make([]core.Period, 0, len(periods))
	for p := range periods {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	parts := make([]string, len(out))
	for i, p := range out {
		parts[i] = fmt.Sprintf("%s %d", core.MonthName(p.Month), p.Year)
	}
	return strings.Join(parts, ", ")
}
