package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/chronos/pkg/journal"
)

type testConfig struct {
	path string
}

func (t testConfig) BasePath() string {
	return t.path
}

func openVault(t *testing.T) *Vault {
	t.Helper()
	v, err := Open(testConfig{path: t.TempDir()}, nil)
	require.NoError(t, err)
	return v
}

func TestVaultLoadEmptyReturnsDefaults(t *testing.T) {
	v := openVault(t)

	data := v.Load()
	assert.Empty(t, data.Entries)
	assert.NotNil(t, data.Entries)
	assert.NotNil(t, data.Principles)
	assert.NotNil(t, data.Essays)
	assert.Equal(t, journal.DefaultChecklist(), data.ChecklistConfig)
}

func TestVaultSaveLoadRoundTrip(t *testing.T) {
	v := openVault(t)

	data := journal.DefaultAppData()
	e := journal.EmptyEntry("2024-03-01")
	e.State.Mood = 8
	e.State.Descriptors = []string{"calm", "tired"}
	e.Memory.PeopleMet = "Ana"
	e.Checklist["journal"] = true
	data.Entries[e.ID] = e
	data.ChecklistConfig = append(data.ChecklistConfig, journal.NewChecklistItem("Stretch"))

	v.Save(data)
	assert.Equal(t, data, v.Load())
}

func TestVaultLoadCorruptBlob(t *testing.T) {
	v := openVault(t)
	require.NoError(t, os.WriteFile(filepath.Join(v.BasePath(), DataKey), []byte("{not json"), 0o600))

	assert.Equal(t, journal.DefaultAppData(), v.Load())
}

func TestVaultLoadDropsCorruptEntry(t *testing.T) {
	v := openVault(t)
	raw := `{"entries":{"2024-03-01":{"state":{"mood":"high"}},"2024-03-02":{"state":{"mood":3}}},"checklistConfig":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(v.BasePath(), DataKey), []byte(raw), 0o600))

	data := v.Load()
	require.Len(t, data.Entries, 1)
	got := data.Entries["2024-03-02"]
	assert.Equal(t, "2024-03-02", got.ID)
	assert.Equal(t, 3, got.State.Mood)
	assert.Equal(t, 5, got.State.MentalClarity)
	assert.Empty(t, data.ChecklistConfig, "an explicitly empty checklist stays empty")
}

func TestVaultLoadMergesPartialEntryOverTemplate(t *testing.T) {
	v := openVault(t)
	raw := `{"entries":{"2024-03-01":{"id":"2024-03-01","future":{"gratitude":"tea"}}}}`
	require.NoError(t, os.WriteFile(filepath.Join(v.BasePath(), DataKey), []byte(raw), 0o600))

	got := v.Load().Entries["2024-03-01"]
	assert.Equal(t, "tea", got.Future.Gratitude)
	assert.Equal(t, 5, got.State.Mood)
	assert.Equal(t, float64(7), got.Effort.SleepDuration)
}

func TestVaultClear(t *testing.T) {
	v := openVault(t)
	data := journal.DefaultAppData()
	data.Entries["2024-03-01"] = journal.EmptyEntry("2024-03-01")
	v.Save(data)
	require.NoError(t, v.SetCurrentUser("u1"))

	v.Clear()

	assert.Empty(t, v.Load().Entries)
	assert.Equal(t, "", v.CurrentUser())
	// Clearing twice is harmless.
	v.Clear()
}

func TestVaultCurrentUser(t *testing.T) {
	v := openVault(t)
	assert.Equal(t, "", v.CurrentUser())

	require.NoError(t, v.SetCurrentUser("u1"))
	assert.Equal(t, "u1", v.CurrentUser())

	require.NoError(t, v.SetCurrentUser(""))
	assert.Equal(t, "", v.CurrentUser())
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(testConfig{}, nil)
	assert.Error(t, err)
}
