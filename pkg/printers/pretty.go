package printers

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/chronos/pkg/app"
	"tableflip.dev/chronos/pkg/journal"
)

type PrettyPrint struct {
	ShowID bool
	Out    io.Writer
}

var (
	spacing = strings.Repeat(" ", len("2006-01-02  "))
)

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out(), "")
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)

	if pp.ShowID {
		_, _ = t.Fprint(pp.out(), spacing)
	}
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	if pp.ShowID {
		_, _ = t.Fprint(pp.out(), spacing)
	}
	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintf(pp.out(), " - %d", count)

	switch count {
	case 1:
		_, _ = c.Fprintln(pp.out(), " entry")
	default:
		_, _ = c.Fprintln(pp.out(), " entries")
	}
}

func (pp *PrettyPrint) none() {
	f := color.New(color.Faint, color.Italic)
	if pp.ShowID {
		_, _ = f.Fprint(pp.out(), spacing)
	}
	_, _ = f.Fprint(pp.out(), " none\n\n")
}

// Entry renders one daily record section by section.
func (pp *PrettyPrint) Entry(e journal.DailyEntry, items []journal.ChecklistItemConfig) {
	title := e.ID
	if t, err := time.Parse("2006-01-02", e.ID); err == nil {
		title = t.Format("Monday, January 2, 2006")
	}
	pp.Title(title)

	h := color.New(color.FgHiCyan, color.Bold)
	w := pp.out()

	_, _ = h.Fprintln(w, "State")
	tbl := uitable.New()
	tbl.Separator = " "
	tbl.AddRow("  mood", e.State.Mood, "stress", e.State.Stress, "anxiety", e.State.Anxiety)
	tbl.AddRow("  clarity", e.State.MentalClarity, "discomfort", e.State.PhysicalDiscomfort, "", "")
	tbl.AddRow("  cried", e.State.TimesCried, "laughed", e.State.TimesLaughed, "", "")
	_, _ = fmt.Fprintln(w, tbl)
	if len(e.State.Descriptors) > 0 {
		_, _ = fmt.Fprintf(w, "  %s\n", strings.Join(e.State.Descriptors, ", "))
	}

	_, _ = h.Fprintln(w, "Effort")
	tbl = uitable.New()
	tbl.Separator = " "
	tbl.AddRow("  work", fmt.Sprintf("%gh", e.Effort.WorkHours), "creative", fmt.Sprintf("%gh", e.Effort.CreativeHours))
	tbl.AddRow("  sleep", fmt.Sprintf("%gh", e.Effort.SleepDuration), "quality", e.Effort.SleepQuality)
	tbl.AddRow("  focus", e.Effort.FocusQuality, "", "")
	_, _ = fmt.Fprintln(w, tbl)

	pp.section("Achievements", e.Achievements.DailyWins, e.Achievements.Breakthroughs)
	pp.section("Reflections", e.Reflections.LongForm, e.Reflections.ChangedMind)
	pp.section("Memory", e.Memory.PeopleMet, e.Memory.Conversations, e.Memory.HappyMoments)
	pp.section("Future", e.Future.Gratitude, e.Future.LookingForward)

	if len(items) > 0 {
		_, _ = h.Fprintln(w, "Checklist")
		pp.checks(e.Checklist, items)
	}
	pp.NewLine()
}

func (pp *PrettyPrint) section(name string, texts ...string) {
	h := color.New(color.FgHiCyan, color.Bold)
	f := color.New(color.Faint, color.Italic)
	w := pp.out()

	_, _ = h.Fprintln(w, name)
	empty := true
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		empty = false
		_, _ = fmt.Fprintf(w, "  %s\n", t)
	}
	if empty {
		_, _ = f.Fprintln(w, "  -")
	}
}

func (pp *PrettyPrint) checks(done map[string]bool, items []journal.ChecklistItemConfig) {
	g := color.New(color.FgGreen)
	tbl := uitable.New()
	tbl.Separator = " "
	for _, it := range items {
		if !it.Enabled {
			continue
		}
		mark := "[ ]"
		if done[it.ID] {
			mark = g.Sprint("[x]")
		}
		tbl.AddRow(" ", mark, it.Label)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

// Checklist renders the checklist configuration.
func (pp *PrettyPrint) Checklist(items []journal.ChecklistItemConfig) {
	pp.TitleWithCount("Checklist", len(items))
	if len(items) == 0 {
		pp.none()
		return
	}

	f := color.New(color.Faint)
	tbl := uitable.New()
	tbl.Separator = " "
	for _, it := range items {
		state := "on"
		if !it.Enabled {
			state = f.Sprint("off")
		}
		if pp.ShowID {
			tbl.AddRow(it.ID, state, it.Label)
		} else {
			tbl.AddRow(state, it.Label)
		}
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// Entries lists record dates, newest first, with their mood.
func (pp *PrettyPrint) Entries(title string, entries map[string]journal.DailyEntry) {
	pp.TitleWithCount(title, len(entries))
	if len(entries) == 0 {
		pp.none()
		return
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	tbl := uitable.New()
	tbl.Separator = " "
	for _, k := range keys {
		e := entries[k]
		wins := e.Achievements.DailyWins
		if i := strings.IndexByte(wins, '\n'); i >= 0 {
			wins = wins[:i]
		}
		tbl.AddRow(k, y.Sprintf("mood %d", e.State.Mood), wins)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// Status prints the save status of each slot.
func (pp *PrettyPrint) Status(states map[string]journal.SyncState) {
	pp.Title("Status")
	if len(states) == 0 {
		pp.none()
		return
	}
	keys := make([]string, 0, len(states))
	for k := range states {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tbl := uitable.New()
	tbl.Separator = " "
	for _, k := range keys {
		tbl.AddRow(k, stateColor(states[k]).Sprint(states[k]))
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

func stateColor(s journal.SyncState) *color.Color {
	switch s {
	case journal.StateSaved:
		return color.New(color.FgGreen)
	case journal.StateLocal:
		return color.New(color.FgYellow)
	case journal.StateError:
		return color.New(color.FgRed, color.Bold)
	case journal.StateSaving, journal.StateLoading:
		return color.New(color.FgCyan)
	default:
		return color.New(color.Faint)
	}
}

func (pp *PrettyPrint) Stats(st app.Stats) {
	pp.Title("Vault")
	cloud := color.New(color.FgGreen).Sprint("available")
	if !st.CloudAvailable {
		cloud = color.New(color.FgRed).Sprint("offline")
	}
	tbl := uitable.New()
	tbl.Separator = " "
	tbl.AddRow("entries", st.Entries)
	if st.Entries > 0 {
		tbl.AddRow("first", st.FirstEntry)
		tbl.AddRow("last", st.LastEntry)
	}
	tbl.AddRow("checklist", fmt.Sprintf("%d (%d enabled)", st.ChecklistItems, st.EnabledChecklist))
	tbl.AddRow("cloud", cloud)
	_, _ = fmt.Fprintln(pp.out(), tbl)
}
