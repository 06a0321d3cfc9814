package timeutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"tableflip.dev/chronos/pkg/journal"
)

var parser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseDate resolves input to an entry date key relative to now. It accepts
// YYYY-MM-DD, "today", "yesterday", "tomorrow" and natural language such
// as "last friday" or "3 days ago". Empty input means today.
func ParseDate(input string, now time.Time) (string, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	switch s {
	case "", "today":
		return journal.DateKey(now), nil
	case "yesterday":
		return journal.DateKey(now.AddDate(0, 0, -1)), nil
	case "tomorrow":
		return journal.DateKey(now.AddDate(0, 0, 1)), nil
	}
	if journal.ValidDateKey(s) {
		return s, nil
	}

	r, err := parser.Parse(s, now)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", input, err)
	}
	if r == nil {
		return "", fmt.Errorf("unrecognized date %q", input)
	}
	return journal.DateKey(r.Time), nil
}
