package journal

import (
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// DefaultChecklist returns the seed rituals used when nothing is configured.
func DefaultChecklist() []ChecklistItemConfig {
	return []ChecklistItemConfig{
		{ID: "journal", Label: "Write in Journal", Enabled: true},
		{ID: "move", Label: "Physical Movement", Enabled: true},
		{ID: "read", Label: "Read (15m)", Enabled: true},
	}
}

// NewChecklistItem returns a freshly created ritual with a unique id.
func NewChecklistItem(label string) ChecklistItemConfig {
	if label == "" {
		label = "New Ritual"
	}
	return ChecklistItemConfig{
		ID:         uuid.NewString(),
		Label:      label,
		Enabled:    true,
		NotifyTime: "08:00",
	}
}

// EmptyEntry returns the default template for date.
func EmptyEntry(date string) DailyEntry {
	return DailyEntry{
		ID:     date,
		Schema: CurrentSchema,
		State: State{
			Mood:          5,
			MentalClarity: 5,
			Descriptors:   []string{},
		},
		Effort: Effort{
			SleepDuration: 7,
		},
		Checklist: map[string]bool{},
	}
}

// DefaultAppData returns the record set of an empty cache.
func DefaultAppData() AppData {
	return AppData{
		Entries:         map[string]DailyEntry{},
		Principles:      []json.RawMessage{},
		Essays:          []json.RawMessage{},
		ChecklistConfig: DefaultChecklist(),
	}
}
