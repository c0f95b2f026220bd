package compile

import (
	"fmt"
	"strconv"
	"time"
)

// DefaultMaxLookback is the default ceiling on how far back a time
// shift may reach.
const DefaultMaxLookback = 90 * 24 * time.Hour

// shiftUnits maps a shift unit suffix to its duration. Months are
// approximated at thirty days; the store resolves calendar arithmetic
// itself and only the ceiling check needs a concrete value here.
var shiftUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
	'M': 30 * 24 * time.Hour,
}

// ParseShift parses a time-shift expression of the form "<n><unit>"
// with units s, m, h, d, w and M, such as "1d" or "12h".
func ParseShift(text string) (time.Duration, error) {
	if len(text) < 2 {
		return 0, fmt.Errorf("invalid time shift %q: expected a number followed by a unit", text)
	}

	unit, ok := shiftUnits[text[len(text)-1]]
	if !ok {
		return 0, fmt.Errorf("invalid time shift %q: unknown unit %q", text, string(text[len(text)-1]))
	}

	amount, err := strconv.Atoi(text[:len(text)-1])
	if err != nil || amount <= 0 {
		return 0, fmt.Errorf("invalid time shift %q: expected a positive whole number before the unit", text)
	}

	return time.Duration(amount) * unit, nil
}

// shiftRangeBound offsets one bound of a date-math time range by the
// shift expression. Relative bounds ("now-24h") extend in place;
// absolute bounds get a date-math anchor.
func shiftRangeBound(bound, shift string) string {
	if bound == "" {
		return bound
	}
	if len(bound) >= 3 && bound[:3] == "now" {
		return bound + "-" + shift
	}
	return bound + "||-" + shift
}
