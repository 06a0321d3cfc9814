package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"tableflip.dev/chronos/pkg/journal"
)

// Stats summarizes the local cache for the accounts view.
type Stats struct {
	Entries          int    `json:"entries"`
	FirstEntry       string `json:"firstEntry,omitempty"`
	LastEntry        string `json:"lastEntry,omitempty"`
	ChecklistItems   int    `json:"checklistItems"`
	EnabledChecklist int    `json:"enabledChecklist"`
	CloudAvailable   bool   `json:"cloudAvailable"`
}

// Stats returns summary counts over the local cache.
func (s *Service) Stats() Stats {
	data := s.LoadLocal()
	st := Stats{
		Entries:        len(data.Entries),
		ChecklistItems: len(data.ChecklistConfig),
		CloudAvailable: s.IsCloudAvailable(),
	}
	keys := make([]string, 0, len(data.Entries))
	for k := range data.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		st.FirstEntry = keys[0]
		st.LastEntry = keys[len(keys)-1]
	}
	for _, item := range data.ChecklistConfig {
		if item.Enabled {
			st.EnabledChecklist++
		}
	}
	return st
}

// ExportName is the file name Export uses for day t.
func ExportName(t time.Time) string {
	return "chronos_vault_" + journal.DateKey(t) + ".json"
}

// Export writes the whole local cache to w as indented JSON.
func (s *Service) Export(w io.Writer) error {
	raw, err := json.MarshalIndent(s.LoadLocal(), "", "  ")
	if err != nil {
		return fmt.Errorf("app: encode export: %w", err)
	}
	raw = append(raw, '\n')
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("app: write export: %w", err)
	}
	return nil
}

// ExportFile writes the export into dir and returns the file's path.
func (s *Service) ExportFile(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("app: create export dir: %w", err)
	}
	path := filepath.Join(dir, ExportName(s.now()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("app: create export: %w", err)
	}
	if err := s.Export(f); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("app: close export: %w", err)
	}
	return path, nil
}

// Share renders the entry for date as a plain-text record suitable for
// pasting into another journal.
func (s *Service) Share(ctx context.Context, date, uid string) (string, error) {
	e, err := s.GetEntry(ctx, date, uid)
	if err != nil {
		return "", err
	}
	return ShareText(e), nil
}

// ShareText renders e as a plain-text record.
func ShareText(e journal.DailyEntry) string {
	heading := e.ID
	if t, err := time.Parse(journal.DateLayout, e.ID); err == nil {
		heading = t.Format("Monday, January 2, 2006")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Node Record: %s\n\n", heading)

	b.WriteString("[BIOMETRICS]\n")
	fmt.Fprintf(&b, "Mood: %s\n", orNA(e.State.Mood))
	fmt.Fprintf(&b, "Stress: %s\n", orNA(e.State.Stress))
	fmt.Fprintf(&b, "Clarity: %s\n", orNA(e.State.MentalClarity))
	fmt.Fprintf(&b, "Feelings: %s\n\n", joinOrNA(e.State.Descriptors))

	b.WriteString("[OUTPUT]\n")
	fmt.Fprintf(&b, "Deep Work: %sh\n", hours(e.Effort.WorkHours))
	fmt.Fprintf(&b, "Creative: %sh\n", hours(e.Effort.CreativeHours))
	fmt.Fprintf(&b, "Rest: %sh (%s)\n\n", hours(e.Effort.SleepDuration), orNA(e.Effort.SleepQuality))

	b.WriteString("[ACHIEVEMENTS]\n")
	fmt.Fprintf(&b, "Win of Day: %s\n", textOrNA(e.Achievements.DailyWins))
	fmt.Fprintf(&b, "Breakthroughs: %s\n\n", textOrNA(e.Achievements.Breakthroughs))

	b.WriteString("[REFLECTION]\n")
	if strings.TrimSpace(e.Reflections.LongForm) == "" {
		b.WriteString("No journal recorded.\n\n")
	} else {
		b.WriteString(e.Reflections.LongForm + "\n\n")
	}

	b.WriteString("[GRATITUDE]\n")
	b.WriteString(textOrNA(e.Future.Gratitude))
	return b.String()
}

func orNA(v int) string {
	if v == 0 {
		return "N/A"
	}
	return strconv.Itoa(v)
}

func hours(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func textOrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func joinOrNA(list []string) string {
	if len(list) == 0 {
		return "N/A"
	}
	return strings.Join(list, ", ")
}
