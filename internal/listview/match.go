package listview

import (
	"strings"

	"golang.org/x/text/cases"
)

// ContainsFold reports whether substr occurs in s under Unicode case folding.
// An empty substr matches everything.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	// Casers carry state and are not shared between goroutines.
	fold := cases.Fold()
	return strings.Contains(fold.String(s), fold.String(substr))
}

// LessFold orders a before b under Unicode case folding. Names equal under
// folding fall back to byte order so the ordering stays total.
func LessFold(a, b string) bool {
	fold := cases.Fold()
	fa, fb := fold.String(a), fold.String(b)
	if fa != fb {
		return fa < fb
	}
	return a < b
}

// MatchStatus reports whether a boolean "active" state satisfies a status filter.
func MatchStatus(filter string, active bool) bool {
	switch filter {
	case StatusActive:
		return active
	case StatusInactive:
		return !active
	default:
		return true
	}
}

// MatchPayment reports whether a paid flag satisfies a payment filter.
func MatchPayment(filter string, paid bool) bool {
	switch filter {
	case PaymentPaid:
		return paid
	case PaymentUnpaid:
		return !paid
	default:
		return true
	}
}

// StatusFlag maps a status filter to an optional wire flag: nil for "all".
func StatusFlag(filter string) *bool {
	switch filter {
	case StatusActive:
		return boolPtr(true)
	case StatusInactive:
		return boolPtr(false)
	default:
		return nil
	}
}

// PaymentFlag maps a payment filter to an optional isPaid wire flag.
func PaymentFlag(filter string) *bool {
	switch filter {
	case PaymentPaid:
		return boolPtr(true)
	case PaymentUnpaid:
		return boolPtr(false)
	default:
		return nil
	}
}

func boolPtr(v bool) *bool { return &v }
