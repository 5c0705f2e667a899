package reconcile

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"

	"budgetbook/internal/core"
)

// expectedHeader is the exact column signature of the import format.
var expectedHeader = []string{"year", "month", "item", "debit", "credit"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV reads the import format: UTF-8, comma separated, doubled-quote
// escaping, header row exactly year,month,item,debit,credit. A leading byte
// order mark is tolerated. Fully blank records are dropped; any other shape
// problem is fatal.
func ParseCSV(data []byte) ([]Row, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrBadHeader)
	}

	header := records[0]
	if len(header) != len(expectedHeader) {
		return nil, fmt.Errorf("%w: got %d columns, want %s",
			ErrBadHeader, len(header), strings.Join(expectedHeader, ","))
	}
	for i, want := range expectedHeader {
		if strings.ToLower(strings.TrimSpace(header[i])) != want {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrBadHeader, i+1, header[i], want)
		}
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		rows = append(rows, Row{
			Year:   rec[0],
			Month:  rec[1],
			Item:   rec[2],
			Debit:  rec[3],
			Credit: rec[4],
			Line:   i + 2,
		})
	}
	return rows, nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// ExportCSV renders transactions in the exact import format, English month
// names included. Income and transfers land in the credit column, expenses
// in the debit column, always as positive magnitudes.
func ExportCSV(txs []core.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(expectedHeader); err != nil {
		return nil, err
	}
	for _, tx := range txs {
		amount := strconv.FormatFloat(math.Abs(tx.Amount), 'f', -1, 64)
		debit, credit := "", ""
		if tx.Type == core.Expense {
			debit = amount
		} else {
			credit = amount
		}
		rec := []string{strconv.Itoa(tx.Year), core.MonthName(tx.Month), tx.Item, debit, credit}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
