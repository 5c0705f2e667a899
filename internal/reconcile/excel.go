package reconcile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"budgetbook/internal/core"
)

// Header cell tokens, lowercase, English and Hebrew. The header row is the
// first row containing both a date and a debit token; the remaining columns
// are then mapped by name rather than position.
var (
	dateTokens   = []string{"date", "תאריך"}
	itemTokens   = []string{"item", "description", "details", "פרטים", "תיאור"}
	debitTokens  = []string{"debit", "חובה"}
	creditTokens = []string{"credit", "זכות"}
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2/1/2006",
	"2/1/06",
	"2.1.2006",
}

// IngestReport describes what Excel ingestion kept and dropped before the
// reconciliation pipeline ran.
type IngestReport struct {
	SourceRows     int
	Kept           int
	DroppedOther   int // rows dated outside the majority month
	DroppedInvalid int // rows whose date did not parse
	Month          int
	Year           int
}

// IngestExcel flattens the first sheet of a workbook into import rows. Dates
// may be ISO strings, day-first slash or dot formats, or raw spreadsheet
// serial numbers. Rows are assumed to belong to a single statement month, so
// only rows dated in the most frequent (year, month) are kept and the rest
// are reported as dropped. Ties go to the earlier period.
func IngestExcel(path string) ([]Row, IngestReport, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, IngestReport{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, IngestReport{}, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, IngestReport{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	cols, dataStart, err := locateHeader(rows)
	if err != nil {
		return nil, IngestReport{}, err
	}

	type candidate struct {
		row    Row
		period core.Period
	}
	var candidates []candidate
	var report IngestReport
	for i := dataStart; i < len(rows); i++ {
		r := rows[i]
		dateStr := strings.TrimSpace(cellAt(r, cols.date))
		item := strings.TrimSpace(cellAt(r, cols.item))
		if dateStr == "" && item == "" {
			continue
		}
		report.SourceRows++
		t, ok := parseCellDate(dateStr)
		if !ok {
			report.DroppedInvalid++
			continue
		}
		p := core.NewPeriod(t.Year(), int(t.Month()))
		candidates = append(candidates, candidate{
			row: Row{
				Year:   strconv.Itoa(p.Year),
				Month:  core.MonthName(p.Month),
				Item:   item,
				Debit:  strings.TrimSpace(cellAt(r, cols.debit)),
				Credit: strings.TrimSpace(cellAt(r, cols.credit)),
				Line:   i + 1,
			},
			period: p,
		})
	}
	if len(candidates) == 0 {
		return nil, report, ErrEmptyBatch
	}

	counts := map[core.Period]int{}
	for _, c := range candidates {
		counts[c.period]++
	}
	var majority core.Period
	best := 0
	for p, n := range counts {
		if n > best || (n == best && earlierPeriod(p, majority)) {
			majority, best = p, n
		}
	}

	out := make([]Row, 0, best)
	for _, c := range candidates {
		if c.period != majority {
			report.DroppedOther++
			continue
		}
		out = append(out, c.row)
	}
	report.Kept = len(out)
	report.Month = majority.Month
	report.Year = majority.Year
	return out, report, nil
}

type headerColumns struct {
	date   int
	item   int
	debit  int
	credit int
}

func locateHeader(rows [][]string) (headerColumns, int, error) {
	for i, row := range rows {
		cols := headerColumns{date: -1, item: -1, debit: -1, credit: -1}
		for j, cell := range row {
			switch name := strings.ToLower(strings.TrimSpace(cell)); {
			case matchesToken(name, dateTokens):
				cols.date = j
			case matchesToken(name, itemTokens):
				cols.item = j
			case matchesToken(name, debitTokens):
				cols.debit = j
			case matchesToken(name, creditTokens):
				cols.credit = j
			}
		}
		if cols.date < 0 || cols.debit < 0 {
			continue
		}
		if cols.item < 0 || cols.credit < 0 {
			return headerColumns{}, 0, fmt.Errorf("%w: header row %d is missing an item or credit column", ErrBadHeader, i+1)
		}
		return cols, i + 1, nil
	}
	return headerColumns{}, 0, fmt.Errorf("%w: no row contains both a date and a debit column", ErrBadHeader)
}

func matchesToken(name string, tokens []string) bool {
	for _, t := range tokens {
		if name == t {
			return true
		}
	}
	return false
}

// cellAt indexes a sheet row safely: GetRows trims trailing empty cells, so
// a missing cell reads as empty rather than out of range.
func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseCellDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func earlierPeriod(a, b core.Period) bool {
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	return a.Month < b.Month
}
