package printers

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/chronos/pkg/journal"
)

// Calendar prints the month containing on, bolding days that have a record.
func (pp *PrettyPrint) Calendar(on time.Time, entries map[string]journal.DailyEntry) {
	then := time.Date(on.Year(), on.Month(), 1, 1, 0, 0, 0, time.UTC)
	pp.PrintMonth(then, entries)
}

func (pp *PrettyPrint) CalendarYear(year int, entries map[string]journal.DailyEntry) {
	now := time.Date(year, 1, 1, 1, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		pp.PrintMonth(now, entries)
		now = NextMonth(now)
	}
}

const width = len("11 12 13 14 15 16 17") // an example week

// MonthCount counts records per day of the month holding then.
func MonthCount(then time.Time, entries map[string]journal.DailyEntry) []int {
	count := make([]int, DaysIn(then))
	prefix := then.Format("2006-01-")
	for k := range entries {
		if !strings.HasPrefix(k, prefix) || !journal.ValidDateKey(k) {
			continue
		}
		t, err := time.Parse("2006-01-02", k)
		if err != nil {
			continue
		}
		count[t.Day()-1]++
	}
	return count
}

func (pp *PrettyPrint) PrintMonth(then time.Time, entries map[string]journal.DailyEntry) {
	pp.PrintMonthCount(then, MonthCount(then, entries))
}

func (pp *PrettyPrint) PrintMonthCount(then time.Time, count []int) {
	w := pp.out()
	d := StartDay(then)

	tf := color.New(color.FgWhite, color.Italic)

	m := then.Month().String()
	mid := (width - len(m)) / 2
	_, _ = tf.Fprintf(w, "%s%s%s\n", strings.Repeat(" ", mid), m, strings.Repeat(" ", width-mid-len(m)))

	// Pad out the start of the month.
	for i := time.Sunday; i < d; i++ {
		_, _ = fmt.Fprint(w, "   ")
	}

	l1 := color.New(color.Faint, color.FgWhite)
	l2 := color.New(color.Bold, color.FgHiWhite)

	for i := 0; i < DaysIn(then); i++ {
		if i < len(count) && count[i] > 0 {
			_, _ = l2.Fprintf(w, "%2d ", i+1)
		} else {
			_, _ = l1.Fprintf(w, "%2d ", i+1)
		}

		d++
		if d > time.Saturday {
			d = time.Sunday
			_, _ = fmt.Fprint(w, "\n")
		}
	}
	_, _ = fmt.Fprint(w, "\n\n")
}

func NextMonth(then time.Time) time.Time {
	return time.Date(then.Year(), then.Month()+1, 1, 1, 0, 0, 0, then.Location())
}

func DaysIn(then time.Time) int {
	return time.Date(then.UTC().Year(), then.UTC().Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func StartDay(then time.Time) time.Weekday {
	return time.Date(then.UTC().Year(), then.UTC().Month(), 1, 1, 0, 0, 0, time.UTC).Weekday()
}
