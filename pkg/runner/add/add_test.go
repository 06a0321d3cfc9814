package add

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/chronos/pkg/journal"
	"tableflip.dev/chronos/pkg/remote"
	"tableflip.dev/chronos/pkg/runner/env"
	"tableflip.dev/chronos/pkg/store"
)

func loadEnv(t *testing.T, kind string) *env.Env {
	t.Helper()
	e, err := env.Load(env.Options{
		Settings: &store.Settings{
			Path:   t.TempDir(),
			Remote: store.RemoteSettings{Kind: kind},
			Log:    store.LogSettings{Level: "error"},
		},
		Console: io.Discard,
	})
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

type jsonOut struct{}

func (jsonOut) Structured() bool { return true }

func (jsonOut) Write(w io.Writer, v interface{}) error {
	r := v.(Result)
	_, err := io.WriteString(w, string(r.Status))
	return err
}

func TestFieldsApply(t *testing.T) {
	tests := map[string]struct {
		field   string
		value   string
		check   func(t *testing.T, e journal.DailyEntry)
		wantErr bool
	}{
		"mood": {
			field: "mood", value: "7",
			check: func(t *testing.T, e journal.DailyEntry) { assert.Equal(t, 7, e.State.Mood) },
		},
		"mood out of range": {field: "mood", value: "11", wantErr: true},
		"mood not a number": {field: "mood", value: "great", wantErr: true},
		"feel": {
			field: "feel", value: "calm, focused,,",
			check: func(t *testing.T, e journal.DailyEntry) {
				assert.Equal(t, []string{"calm", "focused"}, e.State.Descriptors)
			},
		},
		"sleep": {
			field: "sleep", value: "7.5",
			check: func(t *testing.T, e journal.DailyEntry) { assert.Equal(t, 7.5, e.Effort.SleepDuration) },
		},
		"sleep negative": {field: "sleep", value: "-1", wantErr: true},
		"laughed": {
			field: "laughed", value: "3",
			check: func(t *testing.T, e journal.DailyEntry) { assert.Equal(t, 3, e.State.TimesLaughed) },
		},
		"gratitude": {
			field: "gratitude", value: "tea",
			check: func(t *testing.T, e journal.DailyEntry) { assert.Equal(t, "tea", e.Future.Gratitude) },
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			e := journal.EmptyEntry("2026-01-02")
			var field *Field
			for _, f := range Fields(&e) {
				if f.Name == tc.field {
					f := f
					field = &f
				}
			}
			require.NotNil(t, field)
			err := field.Apply(&e, tc.value)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tc.check(t, e)
		})
	}
}

func TestFieldNamesUnique(t *testing.T) {
	var e journal.DailyEntry
	seen := map[string]bool{}
	for _, f := range Fields(&e) {
		assert.False(t, seen[f.Name], f.Name)
		seen[f.Name] = true
	}
}

func TestAddSavesAndSyncs(t *testing.T) {
	e := loadEnv(t, store.RemoteMemory)
	ctx := context.Background()
	_, err := e.Session.SignIn(ctx, "u1")
	require.NoError(t, err)

	var buf bytes.Buffer
	a := &Add{
		Env:    e,
		Date:   "2026-01-02",
		Values: map[string]string{"mood": "9", "win": "shipped"},
		Output: jsonOut{},
		Out:    &buf,
	}
	require.NoError(t, a.Do(ctx))
	assert.Equal(t, "saved", buf.String())

	got := e.Service.LoadLocal().Entries["2026-01-02"]
	assert.Equal(t, 9, got.State.Mood)
	assert.Equal(t, "shipped", got.Achievements.DailyWins)

	doc, ok := e.Remote.(*remote.Memory).Peek(remote.UserDocument("u1", "entries", "2026-01-02"))
	require.True(t, ok)
	assert.Equal(t, "u1", doc["userId"])
}

func TestAddLocalOnly(t *testing.T) {
	e := loadEnv(t, store.RemoteNone)

	var buf bytes.Buffer
	a := &Add{Env: e, Date: "2026-01-02", Values: map[string]string{"stress": "2"}, Output: jsonOut{}, Out: &buf}
	require.NoError(t, a.Do(context.Background()))
	assert.Equal(t, "local", buf.String())
}

func TestAddRejects(t *testing.T) {
	e := loadEnv(t, store.RemoteNone)
	ctx := context.Background()

	assert.Error(t, (&Add{Env: e, Date: "2026-01-02"}).Do(ctx))
	assert.Error(t, (&Add{Env: e, Date: "2026-01-02", Values: map[string]string{"vibes": "1"}, Out: io.Discard}).Do(ctx))
	assert.Error(t, (&Add{Env: e, Date: "tomorrowish", Values: map[string]string{"mood": "1"}, Out: io.Discard}).Do(ctx))
	assert.Empty(t, e.Service.LoadLocal().Entries)
}
