package listing

import (
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// noValueMarkers are compared case-insensitively after trimming.
var noValueMarkers = []string{"협의", "x", "-", "n/a"}

// ParseAmount coerces a decorated numeric cell such as "3,000만원" into an integer by
// keeping only its digits. It reports false for blank cells, the "negotiable" markers,
// and any value without a single digit.
func ParseAmount(raw string) (int64, bool) {
	value := strings.TrimSpace(raw)
	if value == "" || slices.Contains(noValueMarkers, strings.ToLower(value)) {
		return 0, false
	}

	digits := strings.Map(asciiDigit, value)
	if digits == "" {
		return 0, false
	}

	parsed, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}

	return parsed, true
}

// asciiDigit keeps every Unicode decimal digit, folded to its ASCII form, and drops everything else.
func asciiDigit(r rune) rune {
	switch {
	case r >= '0' && r <= '9':
		return r
	case unicode.IsDigit(r):
		return '0' + digitValue(r)
	default:
		return -1
	}
}

// digitValue returns the numeric value of a decimal digit. Unicode allocates decimal digits in
// contiguous runs of ten starting at zero, so the offset inside its range gives the value.
func digitValue(r rune) rune {
	for _, rng := range unicode.Digit.R16 {
		if lo, hi := rune(rng.Lo), rune(rng.Hi); r >= lo && r <= hi {
			return (r - lo) % 10
		}
	}
	for _, rng := range unicode.Digit.R32 {
		if lo, hi := rune(rng.Lo), rune(rng.Hi); r >= lo && r <= hi {
			return (r - lo) % 10
		}
	}

	return 0
}

func amountPtr(raw string) *int64 {
	value, ok := ParseAmount(raw)
	if !ok {
		return nil
	}
	return &value
}
