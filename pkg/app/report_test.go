package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/chronos/pkg/journal"
)

func TestStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	for _, d := range []string{"2026-01-03", "2025-12-30", "2026-01-01"} {
		_, err := f.svc.SaveEntry(ctx, journal.EmptyEntry(d), "")
		require.NoError(t, err)
	}
	items := journal.DefaultChecklist()
	items[1].Enabled = false
	_, err := f.svc.SaveChecklistConfig(ctx, items, "")
	require.NoError(t, err)

	assert.Equal(t, Stats{
		Entries:          3,
		FirstEntry:       "2025-12-30",
		LastEntry:        "2026-01-03",
		ChecklistItems:   3,
		EnabledChecklist: 2,
		CloudAvailable:   true,
	}, f.svc.Stats())
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	_, err := f.svc.SaveEntry(ctx, sampleEntry("2026-01-01"), "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.Export(&buf))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{\n  \""), out)
	assert.Contains(t, out, `"2026-01-01"`)
	assert.Contains(t, out, `"checklistConfig"`)

	path, err := f.svc.ExportFile(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	assert.Equal(t, "chronos_vault_2026-01-02.json", filepath.Base(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out, string(raw))
}

func TestShareText(t *testing.T) {
	text := ShareText(sampleEntry("2026-01-01"))

	assert.True(t, strings.HasPrefix(text, "Node Record: Thursday, January 1, 2026\n\n"), text)
	assert.Contains(t, text, "Mood: 8\nStress: 3\nClarity: 5\nFeelings: focused, calm\n")
	assert.Contains(t, text, "Deep Work: 4.5h\nCreative: 0h\nRest: 7h (N/A)\n")
	assert.Contains(t, text, "Win of Day: shipped\nBreakthroughs: N/A\n")
	assert.Contains(t, text, "[REFLECTION]\na good day\n")
	assert.True(t, strings.HasSuffix(text, "[GRATITUDE]\ncoffee"))

	empty := ShareText(journal.EmptyEntry("2026-01-01"))
	assert.Contains(t, empty, "No journal recorded.")
	assert.Contains(t, empty, "Feelings: N/A")
}

func TestShare(t *testing.T) {
	f := newFixture(t, false)
	text, err := f.svc.Share(context.Background(), "2026-01-01", "")
	require.NoError(t, err)
	assert.Contains(t, text, "Mood: 5")

	_, err = f.svc.Share(context.Background(), "bad", "")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
