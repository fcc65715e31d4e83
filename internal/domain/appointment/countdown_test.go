package appointment

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountdown(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		at      time.Time
		status  string
		display string
	}{
		{"past", now.Add(-time.Minute), StatusCompleted, "Passed"},
		{"now", now, StatusCompleted, "Passed"},
		{"thirty minutes", now.Add(30 * time.Minute), StatusImminent, "30 minutes"},
		{"under a minute", now.Add(20 * time.Second), StatusImminent, "0 minutes"},
		{"two hours", now.Add(2*time.Hour + 5*time.Minute), StatusSoon, "2 hours, 5 minutes"},
		{"exactly one hour", now.Add(time.Hour), StatusSoon, "1 hours, 0 minutes"},
		{"two days", now.Add(50 * time.Hour), StatusUpcoming, "2 days, 2 hours"},
		{"exactly one day", now.Add(24 * time.Hour), StatusUpcoming, "1 days, 0 hours"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Countdown(tt.at, now)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.display, got.Display)
		})
	}
}

func TestCountdown_ImminentEndsInMinutes(t *testing.T) {
	now := time.Now()
	got := Countdown(now.Add(30*time.Minute), now)
	assert.True(t, strings.HasSuffix(got.Display, "minutes"))
}

func TestWallClock(t *testing.T) {
	stored := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	local := wallClock(stored)
	assert.Equal(t, time.Local, local.Location())
	assert.Equal(t, 9, local.Hour())
	assert.Equal(t, 30, local.Minute())
}
