package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tableflip.dev/chronos/pkg/journal"
)

// DefaultWindow is the listing window used when none is given.
const DefaultWindow = "1w"

const day = 24 * time.Hour

var (
	windowPattern = regexp.MustCompile(`^\s*(\d+)\s*([a-z]+)`)
	dayUnits      = map[string]int{
		"d":      1,
		"day":    1,
		"days":   1,
		"w":      7,
		"wk":     7,
		"wks":    7,
		"week":   7,
		"weeks":  7,
		"mo":     30,
		"month":  30,
		"months": 30,
		"y":      365,
		"yr":     365,
		"year":   365,
		"years":  365,
	}
)

// ParseWindow parses a day-granular window such as "3d", "2w" or "1mo1w"
// and returns its length in days with a canonical label.
func ParseWindow(input string) (int, string, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		s = DefaultWindow
	}

	days := 0
	for rest := s; rest != ""; {
		m := windowPattern.FindStringSubmatch(rest)
		if len(m) != 3 {
			return 0, "", fmt.Errorf("invalid window segment %q", strings.TrimSpace(rest))
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, "", fmt.Errorf("invalid window value %q: %w", m[1], err)
		}
		per, ok := dayUnits[m[2]]
		if !ok {
			return 0, "", fmt.Errorf("unsupported window unit %q", m[2])
		}
		days += n * per
		rest = rest[len(m[0]):]
	}
	if days <= 0 {
		return 0, "", fmt.Errorf("window must be at least one day")
	}
	return days, FormatWindow(days), nil
}

// FormatWindow renders days as weeks and days, e.g. "2w3d".
func FormatWindow(days int) string {
	if days <= 0 {
		return "0d"
	}
	var b strings.Builder
	if w := days / 7; w > 0 {
		fmt.Fprintf(&b, "%dw", w)
	}
	if d := days % 7; d > 0 {
		fmt.Fprintf(&b, "%dd", d)
	}
	return b.String()
}

// WindowRange returns the first and last date keys of the days-long window
// ending on now's day.
func WindowRange(now time.Time, days int) (from, to string) {
	if days < 1 {
		days = 1
	}
	return journal.DateKey(now.Add(-time.Duration(days-1) * day)), journal.DateKey(now)
}
