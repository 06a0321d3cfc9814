// Package journal holds the data model for daily entries and the checklist
// configuration, along with the default templates every read is merged over.
package journal

import (
	"time"

	"github.com/goccy/go-json"
)

// DateLayout is the layout of an entry date key.
const DateLayout = "2006-01-02"

// AppData is the whole locally persisted record set.
type AppData struct {
	Entries         map[string]DailyEntry `json:"entries"`
	Principles      []json.RawMessage     `json:"principles"`
	Essays          []json.RawMessage     `json:"essays"`
	ChecklistConfig []ChecklistItemConfig `json:"checklistConfig"`
}

// DailyEntry is one calendar day's record. ID always equals its date key.
type DailyEntry struct {
	ID           string          `json:"id"`
	Schema       int             `json:"schema,omitempty"`
	State        State           `json:"state"`
	Effort       Effort          `json:"effort"`
	Achievements Achievements    `json:"achievements"`
	Reflections  Reflections     `json:"reflections"`
	Memory       Memory          `json:"memory"`
	Future       Future          `json:"future"`
	Checklist    map[string]bool `json:"checklist"`
}

type State struct {
	Mood               int      `json:"mood"`
	Stress             int      `json:"stress"`
	Anxiety            int      `json:"anxiety"`
	MentalClarity      int      `json:"mentalClarity"`
	PhysicalDiscomfort int      `json:"physicalDiscomfort"`
	Descriptors        []string `json:"descriptors"`
	TimesCried         int      `json:"timesCried"`
	TimesLaughed       int      `json:"timesLaughed"`
}

type Effort struct {
	WorkHours     float64 `json:"workHours"`
	CreativeHours float64 `json:"creativeHours"`
	SleepDuration float64 `json:"sleepDuration"`
	SleepQuality  int     `json:"sleepQuality"`
	FocusQuality  int     `json:"focusQuality"`
}

type Achievements struct {
	DailyWins     string `json:"dailyWins"`
	Breakthroughs string `json:"breakthroughs"`
}

type Reflections struct {
	LongForm    string `json:"longForm"`
	ChangedMind string `json:"changedMind"`
}

type Memory struct {
	PeopleMet     string `json:"peopleMet"`
	Conversations string `json:"conversations"`
	HappyMoments  string `json:"happyMoments"`
}

type Future struct {
	Gratitude      string `json:"gratitude"`
	LookingForward string `json:"lookingForward"`
}

// ChecklistItemConfig describes one daily ritual. The order of the configured
// sequence is display order.
type ChecklistItemConfig struct {
	ID                   string `json:"id"`
	Label                string `json:"label"`
	Enabled              bool   `json:"enabled"`
	NotificationsEnabled bool   `json:"notificationsEnabled,omitempty"`
	NotifyTime           string `json:"notifyTime,omitempty"`
}

// SyncState is the save status shown next to an entity being edited.
type SyncState string

const (
	StateIdle    SyncState = "idle"
	StateLoading SyncState = "loading"
	StateSaving  SyncState = "saving"
	StateSaved   SyncState = "saved"
	StateLocal   SyncState = "local"
	StateError   SyncState = "error"
)

// DateKey formats t as an entry date key in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ValidDateKey reports whether key is a well formed entry date key.
func ValidDateKey(key string) bool {
	t, err := time.Parse(DateLayout, key)
	return err == nil && t.Format(DateLayout) == key
}

// Clone returns a deep copy of e.
func (e DailyEntry) Clone() DailyEntry {
	c := e
	if e.State.Descriptors != nil {
		c.State.Descriptors = append([]string{}, e.State.Descriptors...)
	}
	if e.Checklist != nil {
		c.Checklist = make(map[string]bool, len(e.Checklist))
		for k, v := range e.Checklist {
			c.Checklist[k] = v
		}
	}
	return c
}

// CloneChecklist returns a copy of items.
func CloneChecklist(items []ChecklistItemConfig) []ChecklistItemConfig {
	if items == nil {
		return nil
	}
	return append([]ChecklistItemConfig{}, items...)
}
