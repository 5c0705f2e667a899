package classify

import "strings"

// Marker vocabularies. Items flow in from bank exports written in either
// English or Hebrew, so every marker carries both spellings. Matching happens
// on the lowercased normalized item.
var (
	depositMarkers    = []string{"deposit", "פיקדון", "פקדון"}
	withdrawalMarkers = []string{"withdrawal", "redemption", "interest", "משיכה", "פדיון", "ריבית"}
	placementMarkers  = []string{"placement", "הפקדה"}

	// National-insurance items match by equality or prefix, not substring.
	nationalInsuranceTokens = []string{"national insurance", "ביטוח לאומי"}

	// An item containing any of these is paid by check. The Hebrew geresh in
	// צ׳ק is stripped during normalization, hence the bare צק form.
	checkSubstrings = []string{"check", "שיק", "צק"}

	// Exact item values that divert an imported row into the check-items list.
	checkRowMarkers = []string{"(check)", "(שיק)", "(צק)"}
)

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func hasPrefixAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.HasPrefix(s, t) {
			return true
		}
	}
	return false
}
