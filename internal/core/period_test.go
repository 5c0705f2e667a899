package core

import (
	"errors"
	"testing"
)

func TestPeriodKeyRoundTrip(t *testing.T) {
	cases := []struct {
		p   Period
		key string
	}{
		{Period{2025, 3}, "2025-3"},
		{Period{2025, 12}, "2025-12"},
		{Period{1999, 1}, "1999-1"},
	}
	for _, tc := range cases {
		if got := tc.p.Key(); got != tc.key {
			t.Fatalf("key for %v: expected %q, got %q", tc.p, tc.key, got)
		}
		back, err := ParsePeriodKey(tc.key)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.key, err)
		}
		if back != tc.p {
			t.Fatalf("round trip %q: expected %v, got %v", tc.key, tc.p, back)
		}
	}
}

func TestParsePeriodKeyRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "2025", "2025-", "-3", "2025-13", "2025-0", "march-2025", "2025-3-1"} {
		if _, err := ParsePeriodKey(s); !errors.Is(err, ErrBadPeriodKey) {
			t.Fatalf("expected ErrBadPeriodKey for %q, got %v", s, err)
		}
	}
}

func TestPeriodPrev(t *testing.T) {
	if prev, ok := (Period{2025, 3}).Prev(); !ok || prev != (Period{2025, 2}) {
		t.Fatalf("expected 2025-2, got %v ok=%v", prev, ok)
	}
	// January never chains into the previous year.
	if _, ok := (Period{2025, 1}).Prev(); ok {
		t.Fatalf("expected no previous period for January")
	}
}
