package view

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeframeToDateRange(t *testing.T) {
	now := time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		tf        Timeframe
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "this month",
			tf:        TimeframeThisMonth,
			wantStart: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   now,
		},
		{
			name:      "last month",
			tf:        TimeframeLastMonth,
			wantStart: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "this year",
			tf:        TimeframeThisYear,
			wantStart: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   now,
		},
		{
			name:      "last year",
			tf:        TimeframeLastYear,
			wantStart: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "last hawl",
			tf:        TimeframeLastHawl,
			wantStart: now.AddDate(0, 0, -354),
			wantEnd:   now,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := timeframeToDateRange(tt.tf, now, 354)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestNormalizeDateRange(t *testing.T) {
	start, end := normalizeDateRange(
		time.Date(2026, time.March, 1, 13, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC),
	)

	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond), end)
}

func TestTimeframePicker_SelectAll(t *testing.T) {
	p := NewTimeframePicker(TimeframeAll, 354)

	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg, ok := cmd().(TimeframeSelectedMsg)
	require.True(t, ok)
	assert.True(t, msg.All)
	assert.True(t, p.IsSelecting())
}

func TestTimeframePicker_CustomFormOpensAndCloses(t *testing.T) {
	p := NewTimeframePicker(TimeframeCustom, 354)

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, p.IsSelecting())
	assert.Contains(t, p.View(), "Custom range")

	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.True(t, p.IsSelecting())
}

func TestTimeframePicker_PresetUsesClock(t *testing.T) {
	p := NewTimeframePicker(TimeframeThisMonth, 354)
	p.now = func() time.Time { return time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC) }

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyDown})
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg, ok := cmd().(TimeframeSelectedMsg)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), msg.Start)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond), msg.End)
}

func TestParseCustomRange(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr string
	}{
		{name: "valid", from: "2026-03-01", to: " 2026-03-10 "},
		{name: "single day", from: "2026-03-01", to: "2026-03-01"},
		{name: "reversed", from: "2026-03-10", to: "2026-03-01", wantErr: "before start"},
		{name: "bad start", from: "03/01/2026", to: "2026-03-10", wantErr: "start date"},
		{name: "bad end", from: "2026-03-01", to: "", wantErr: "end date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := parseCustomRange(tt.from, tt.to)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), start)
			assert.Equal(t, 23, end.Hour())
		})
	}
}

func TestTimeframe_String(t *testing.T) {
	assert.Equal(t, "Last Hawl", TimeframeLastHawl.String())
	assert.Equal(t, "Custom Range", TimeframeCustom.String())
	assert.Equal(t, "Unknown", Timeframe(42).String())
}
