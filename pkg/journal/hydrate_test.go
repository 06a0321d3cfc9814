package journal

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHydrateEntryEmptyYieldsTemplate(t *testing.T) {
	for _, raw := range []string{"", "null", "  "} {
		e, err := HydrateEntry("2026-01-01", []byte(raw))
		require.NoError(t, err)
		assert.Equal(t, EmptyEntry("2026-01-01"), e, "raw %q", raw)
	}
}

func TestHydrateEntryMergesOverTemplate(t *testing.T) {
	raw := `{"id":"wrong","state":{"mood":9},"checklist":{"journal":true},"userId":"u1","updatedAt":17}`

	e, err := HydrateEntry("2026-01-01", []byte(raw))
	require.NoError(t, err)

	want := EmptyEntry("2026-01-01")
	want.State.Mood = 9
	want.Checklist["journal"] = true
	assert.Equal(t, want, e)
}

func TestHydrateEntryKeepsNestedDefaults(t *testing.T) {
	e, err := HydrateEntry("2026-02-03", []byte(`{"effort":{"workHours":3.5}}`))
	require.NoError(t, err)

	assert.Equal(t, 3.5, e.Effort.WorkHours)
	assert.Equal(t, float64(7), e.Effort.SleepDuration, "sibling fields keep template values")
	assert.Equal(t, 5, e.State.Mood)
	assert.NotNil(t, e.State.Descriptors)
}

func TestHydrateEntryNullCollections(t *testing.T) {
	e, err := HydrateEntry("2026-02-03", []byte(`{"state":{"descriptors":null},"checklist":null}`))
	require.NoError(t, err)
	assert.Equal(t, []string{}, e.State.Descriptors)
	assert.Equal(t, map[string]bool{}, e.Checklist)
}

func TestHydrateEntryLegacyDescriptors(t *testing.T) {
	e, err := HydrateEntry("2025-12-31", []byte(`{"state":{"descriptors":"calm, focused ,,tired"}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"calm", "focused", "tired"}, e.State.Descriptors)
	assert.Equal(t, CurrentSchema, e.Schema)
}

func TestHydrateEntryCurrentSchemaSkipsMigration(t *testing.T) {
	e, err := HydrateEntry("2025-12-31", []byte(`{"schema":2,"state":{"descriptors":["a"]}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, e.State.Descriptors)
}

func TestHydrateEntryCorrupt(t *testing.T) {
	tests := map[string]string{
		"not json":   `{"state":`,
		"wrong type": `{"state":{"mood":"high"}}`,
		"bad schema": `{"schema":"two"}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			e, err := HydrateEntry("2026-01-01", []byte(raw))
			assert.Error(t, err)
			assert.Equal(t, EmptyEntry("2026-01-01"), e)
		})
	}
}

func TestHydrateEntryRoundTrip(t *testing.T) {
	e := EmptyEntry("2026-03-04")
	e.State.Mood = 2
	e.State.Descriptors = []string{"tired"}
	e.Effort.CreativeHours = 1.25
	e.Reflections.LongForm = "long day"
	e.Checklist["move"] = true

	raw, err := json.Marshal(e)
	require.NoError(t, err)
	got, err := HydrateEntry("2026-03-04", raw)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestHydrateChecklist(t *testing.T) {
	assert.Equal(t, DefaultChecklist(), HydrateChecklist(nil))
	assert.Empty(t, HydrateChecklist([]ChecklistItemConfig{}))
	custom := []ChecklistItemConfig{{ID: "x", Label: "X"}}
	assert.Equal(t, custom, HydrateChecklist(custom))
}

func TestHydrateAppData(t *testing.T) {
	d := HydrateAppData(AppData{
		Entries: map[string]DailyEntry{"2026-01-01": {ID: "stale"}},
	})
	assert.Equal(t, "2026-01-01", d.Entries["2026-01-01"].ID)
	assert.NotNil(t, d.Principles)
	assert.NotNil(t, d.Essays)
	assert.Len(t, d.ChecklistConfig, 3)
}

func TestDefaultChecklistSeeds(t *testing.T) {
	ids := []string{}
	for _, item := range DefaultChecklist() {
		ids = append(ids, item.ID)
		assert.True(t, item.Enabled)
	}
	assert.Equal(t, []string{"journal", "move", "read"}, ids)
}

func TestNewChecklistItem(t *testing.T) {
	a := NewChecklistItem("")
	b := NewChecklistItem("Stretch")
	assert.Equal(t, "New Ritual", a.Label)
	assert.Equal(t, "Stretch", b.Label)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "08:00", a.NotifyTime)
	assert.False(t, a.NotificationsEnabled)
}

func TestValidDateKey(t *testing.T) {
	assert.True(t, ValidDateKey("2026-01-01"))
	assert.False(t, ValidDateKey("2026-1-1"))
	assert.False(t, ValidDateKey("2026-02-30"))
	assert.False(t, ValidDateKey("checklist"))
}

func TestCloneIsDeep(t *testing.T) {
	e := EmptyEntry("2026-01-01")
	e.State.Descriptors = []string{"a"}
	e.Checklist["x"] = true
	c := e.Clone()
	c.State.Descriptors[0] = "b"
	c.Checklist["x"] = false
	assert.Equal(t, "a", e.State.Descriptors[0])
	assert.True(t, e.Checklist["x"])
}
