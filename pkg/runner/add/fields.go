package add

import (
	"fmt"
	"strconv"
	"strings"

	"tableflip.dev/chronos/pkg/journal"
)

// Field is one settable part of a daily entry.
type Field struct {
	Name    string
	Section string
	Usage   string
	apply   func(e *journal.DailyEntry, v string) error
}

// Apply parses v and stores it on e.
func (f Field) Apply(e *journal.DailyEntry, v string) error {
	if err := f.apply(e, v); err != nil {
		return fmt.Errorf("--%s: %w", f.Name, err)
	}
	return nil
}

func score(dst *int) func(*journal.DailyEntry, string) error {
	return func(_ *journal.DailyEntry, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("not a number: %q", v)
		}
		if n < 0 || n > 10 {
			return fmt.Errorf("%d is outside 0-10", n)
		}
		*dst = n
		return nil
	}
}

func count(dst *int) func(*journal.DailyEntry, string) error {
	return func(_ *journal.DailyEntry, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return fmt.Errorf("not a count: %q", v)
		}
		*dst = n
		return nil
	}
}

func hours(dst *float64) func(*journal.DailyEntry, string) error {
	return func(_ *journal.DailyEntry, v string) error {
		h, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || h < 0 || h > 24 {
			return fmt.Errorf("not an hour count: %q", v)
		}
		*dst = h
		return nil
	}
}

func text(dst *string) func(*journal.DailyEntry, string) error {
	return func(_ *journal.DailyEntry, v string) error {
		*dst = v
		return nil
	}
}

// Fields lists the settable fields of e in display order. The setters write
// into e.
func Fields(e *journal.DailyEntry) []Field {
	return []Field{
		{Name: "mood", Section: "state", Usage: "Mood, 0-10.", apply: score(&e.State.Mood)},
		{Name: "stress", Section: "state", Usage: "Stress, 0-10.", apply: score(&e.State.Stress)},
		{Name: "anxiety", Section: "state", Usage: "Anxiety, 0-10.", apply: score(&e.State.Anxiety)},
		{Name: "clarity", Section: "state", Usage: "Mental clarity, 0-10.", apply: score(&e.State.MentalClarity)},
		{Name: "discomfort", Section: "state", Usage: "Physical discomfort, 0-10.", apply: score(&e.State.PhysicalDiscomfort)},
		{Name: "feel", Section: "state", Usage: "Comma separated descriptors, example: --feel=calm,focused.", apply: func(e *journal.DailyEntry, v string) error {
			e.State.Descriptors = []string{}
			for _, d := range strings.Split(v, ",") {
				if d = strings.TrimSpace(d); d != "" {
					e.State.Descriptors = append(e.State.Descriptors, d)
				}
			}
			return nil
		}},
		{Name: "cried", Section: "state", Usage: "Times cried.", apply: count(&e.State.TimesCried)},
		{Name: "laughed", Section: "state", Usage: "Times laughed.", apply: count(&e.State.TimesLaughed)},
		{Name: "work", Section: "effort", Usage: "Work hours.", apply: hours(&e.Effort.WorkHours)},
		{Name: "creative", Section: "effort", Usage: "Creative hours.", apply: hours(&e.Effort.CreativeHours)},
		{Name: "sleep", Section: "effort", Usage: "Hours slept.", apply: hours(&e.Effort.SleepDuration)},
		{Name: "sleep-quality", Section: "effort", Usage: "Sleep quality, 0-10.", apply: score(&e.Effort.SleepQuality)},
		{Name: "focus", Section: "effort", Usage: "Focus quality, 0-10.", apply: score(&e.Effort.FocusQuality)},
		{Name: "win", Section: "achievements", Usage: "Daily wins.", apply: text(&e.Achievements.DailyWins)},
		{Name: "breakthrough", Section: "achievements", Usage: "Breakthroughs.", apply: text(&e.Achievements.Breakthroughs)},
		{Name: "note", Section: "reflections", Usage: "Long form reflection.", apply: text(&e.Reflections.LongForm)},
		{Name: "changed-mind", Section: "reflections", Usage: "What changed your mind.", apply: text(&e.Reflections.ChangedMind)},
		{Name: "people", Section: "memory", Usage: "People met.", apply: text(&e.Memory.PeopleMet)},
		{Name: "conversations", Section: "memory", Usage: "Conversations worth keeping.", apply: text(&e.Memory.Conversations)},
		{Name: "happy", Section: "memory", Usage: "Happy moments.", apply: text(&e.Memory.HappyMoments)},
		{Name: "gratitude", Section: "future", Usage: "Gratitude.", apply: text(&e.Future.Gratitude)},
		{Name: "looking-forward", Section: "future", Usage: "Looking forward to.", apply: text(&e.Future.LookingForward)},
	}
}
