package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindowDefault(t *testing.T) {
	days, label, err := ParseWindow("")
	require.NoError(t, err)
	assert.Equal(t, 7, days)
	assert.Equal(t, "1w", label)
}

func TestParseWindowComposite(t *testing.T) {
	tests := []struct {
		in    string
		days  int
		label string
	}{
		{in: "1w2d", days: 9, label: "1w2d"},
		{in: "10d", days: 10, label: "1w3d"},
		{in: "1mo", days: 30, label: "4w2d"},
		{in: " 2 weeks ", days: 14, label: "2w"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			days, label, err := ParseWindow(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.days, days)
			assert.Equal(t, tt.label, label)
		})
	}
}

func TestParseWindowInvalid(t *testing.T) {
	for _, in := range []string{"noop", "3h", "0d", "1w!"} {
		_, _, err := ParseWindow(in)
		assert.Error(t, err, in)
	}
}

func TestWindowRange(t *testing.T) {
	now := time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC)
	from, to := WindowRange(now, 3)
	assert.Equal(t, "2026-02-28", from)
	assert.Equal(t, "2026-03-02", to)

	from, to = WindowRange(now, 0)
	assert.Equal(t, to, from)
}
