package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Period identifies the (year, month) bucket a transaction or balance belongs
// to. It is used directly as a map key in memory; the "YYYY-M" string form
// exists only at the serialization boundary for compatibility with previously
// saved documents.
type Period struct {
	Year  int
	Month int
}

var ErrBadPeriodKey = errors.New("malformed period key")

func NewPeriod(year, month int) Period {
	return Period{Year: year, Month: month}
}

func (p Period) Valid() bool {
	return p.Year >= 1 && p.Month >= 1 && p.Month <= 12
}

// Key renders the period in the persisted "YYYY-M" form (month not padded).
func (p Period) Key() string {
	return strconv.Itoa(p.Year) + "-" + strconv.Itoa(p.Month)
}

func (p Period) String() string {
	return p.Key()
}

// Prev returns the previous month within the same year. January has no
// previous period: balance chaining never crosses a year boundary.
func (p Period) Prev() (Period, bool) {
	if p.Month <= 1 {
		return Period{}, false
	}
	return Period{Year: p.Year, Month: p.Month - 1}, true
}

// ParsePeriodKey parses a "YYYY-M" key as found in saved documents.
func ParsePeriodKey(s string) (Period, error) {
	left, right, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Period{}, fmt.Errorf("%w: %q", ErrBadPeriodKey, s)
	}
	year, err := strconv.Atoi(left)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrBadPeriodKey, s)
	}
	month, err := strconv.Atoi(right)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrBadPeriodKey, s)
	}
	p := Period{Year: year, Month: month}
	if !p.Valid() {
		return Period{}, fmt.Errorf("%w: %q", ErrBadPeriodKey, s)
	}
	return p, nil
}
