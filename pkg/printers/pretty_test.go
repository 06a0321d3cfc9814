package printers

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/chronos/pkg/app"
	"tableflip.dev/chronos/pkg/journal"
)

func printer(t *testing.T) (*PrettyPrint, *bytes.Buffer) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
	buf := &bytes.Buffer{}
	return &PrettyPrint{Out: buf}, buf
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 31, DaysIn(time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 28, DaysIn(time.Date(2026, time.February, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 29, DaysIn(time.Date(2024, time.February, 5, 0, 0, 0, 0, time.UTC)))
}

func TestStartDayAndNextMonth(t *testing.T) {
	then := time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Thursday, StartDay(then))

	next := NextMonth(time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.February, next.Month())
	assert.Equal(t, 1, next.Day())
}

func TestMonthCount(t *testing.T) {
	entries := map[string]journal.DailyEntry{
		"2026-01-01": {ID: "2026-01-01"},
		"2026-01-15": {ID: "2026-01-15"},
		"2026-02-01": {ID: "2026-02-01"},
		"garbage":    {ID: "garbage"},
	}
	count := MonthCount(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), entries)
	require.Len(t, count, 31)
	assert.Equal(t, 1, count[0])
	assert.Equal(t, 1, count[14])
	assert.Equal(t, 0, count[1])
}

func TestPrintMonth(t *testing.T) {
	pp, buf := printer(t)
	pp.Calendar(time.Date(2026, time.January, 9, 0, 0, 0, 0, time.UTC), nil)

	out := buf.String()
	assert.Contains(t, out, "January")
	assert.Contains(t, out, " 1 ")
	assert.Contains(t, out, "31 ")
	// Thursday start pads four blank columns.
	lines := strings.Split(out, "\n")
	require.True(t, len(lines) > 1)
	assert.True(t, strings.HasPrefix(lines[1], strings.Repeat(" ", 12)+" 1"))
}

func TestEntry(t *testing.T) {
	pp, buf := printer(t)
	e := journal.EmptyEntry("2026-01-02")
	e.Achievements.DailyWins = "shipped the thing"
	e.Checklist = map[string]bool{"water": true}
	items := []journal.ChecklistItemConfig{
		{ID: "water", Label: "Drink water", Enabled: true},
		{ID: "walk", Label: "Walk", Enabled: false},
	}

	pp.Entry(e, items)

	out := buf.String()
	assert.Contains(t, out, "Friday, January 2, 2026")
	assert.Contains(t, out, "shipped the thing")
	assert.Contains(t, out, "[x]")
	assert.Contains(t, out, "Drink water")
	assert.NotContains(t, out, "Walk")
}

func TestChecklist(t *testing.T) {
	pp, buf := printer(t)
	pp.Checklist([]journal.ChecklistItemConfig{
		{ID: "water", Label: "Drink water", Enabled: true},
		{ID: "walk", Label: "Walk", Enabled: false},
	})
	out := buf.String()
	assert.Contains(t, out, "Checklist - 2 entries")
	assert.Contains(t, out, "off")
	assert.Contains(t, out, "Walk")
}

func TestChecklistEmpty(t *testing.T) {
	pp, buf := printer(t)
	pp.Checklist(nil)
	assert.Contains(t, buf.String(), "none")
}

func TestEntriesNewestFirst(t *testing.T) {
	pp, buf := printer(t)
	pp.Entries("Records", map[string]journal.DailyEntry{
		"2026-01-01": {ID: "2026-01-01"},
		"2026-01-03": {ID: "2026-01-03"},
	})
	out := buf.String()
	assert.Less(t, strings.Index(out, "2026-01-03"), strings.Index(out, "2026-01-01"))
}

func TestStatusAndStats(t *testing.T) {
	pp, buf := printer(t)
	pp.Status(map[string]journal.SyncState{"checklist": journal.StateSaved, "entry/2026-01-02": journal.StateLocal})
	pp.Stats(app.Stats{Entries: 2, FirstEntry: "2026-01-01", LastEntry: "2026-01-02", ChecklistItems: 3, EnabledChecklist: 1})

	out := buf.String()
	assert.Contains(t, out, "saved")
	assert.Contains(t, out, "local")
	assert.Contains(t, out, "3 (1 enabled)")
	assert.Contains(t, out, "offline")
}
