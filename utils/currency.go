package utils

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Display-only currency helpers. Computation always stays in decimal.Decimal;
// these exist for dashboard cards (0 decimals) and ledger tables (2 decimals).

const rupeeSign = "₹"

// FormatINRCard renders an amount for dashboard cards: ₹1,23,456
func FormatINRCard(amount decimal.Decimal) string {
	return rupeeSign + groupIndian(amount.Round(0).StringFixed(0))
}

// FormatINRLedger renders an amount for ledger tables: ₹1,23,456.78
func FormatINRLedger(amount decimal.Decimal) string {
	s := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")
	return rupeeSign + groupIndian(whole) + "." + frac
}

// groupIndian applies Indian digit grouping (last three digits, then twos).
func groupIndian(whole string) string {
	neg := strings.HasPrefix(whole, "-")
	if neg {
		whole = whole[1:]
	}
	if len(whole) > 3 {
		head := whole[:len(whole)-3]
		tail := whole[len(whole)-3:]
		var parts []string
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		if head != "" {
			parts = append([]string{head}, parts...)
		}
		whole = strings.Join(append(parts, tail), ",")
	}
	if neg {
		return "-" + whole
	}
	return whole
}

/* Date-only comparisons. Due-date arithmetic ignores time of day. */

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// BeforeDay reports whether a falls on an earlier calendar day than b.
func BeforeDay(a, b time.Time) bool {
	return DateOnly(a).Before(DateOnly(b))
}

// ParseDate accepts the date shapes the API boundary produces.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
