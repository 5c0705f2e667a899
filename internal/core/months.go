package core

import "strings"

// monthNames holds the canonical month labels used when rendering periods and
// when exporting CSV. The import side accepts these, their three-letter
// abbreviations, and the Hebrew month names.
var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var hebrewMonthNames = [12]string{
	"ינואר", "פברואר", "מרץ", "אפריל", "מאי", "יוני",
	"יולי", "אוגוסט", "ספטמבר", "אוקטובר", "נובמבר", "דצמבר",
}

var monthLookup = buildMonthLookup()

func buildMonthLookup() map[string]int {
	m := make(map[string]int, 12*3)
	for i, name := range monthNames {
		lower := strings.ToLower(name)
		m[lower] = i + 1
		m[lower[:3]] = i + 1
	}
	for i, name := range hebrewMonthNames {
		m[name] = i + 1
	}
	// Common alternate spelling for March in older Hebrew exports.
	m["מארס"] = 3
	return m
}

// MonthName returns the canonical English name for month m, or "" when m is
// out of range.
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthNames[m-1]
}

// ResolveMonth maps a localized month name to its 1-based number. Matching is
// case-insensitive and tolerant of surrounding whitespace.
func ResolveMonth(name string) (int, bool) {
	n, ok := monthLookup[strings.ToLower(strings.TrimSpace(name))]
	return n, ok
}
