package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Timeframe is a period the ledger views can be narrowed to.
type Timeframe int

const (
	TimeframeThisMonth Timeframe = iota
	TimeframeLastMonth
	TimeframeThisYear
	TimeframeLastYear
	TimeframeLastHawl
	TimeframeAll
	TimeframeCustom
)

type periodFunc func(now time.Time, hawlDays int) (time.Time, time.Time)

func monthStart(t time.Time, offset int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(offset), 1, 0, 0, 0, 0, t.Location())
}

func yearStart(t time.Time, offset int) time.Time {
	return time.Date(t.Year()+offset, time.January, 1, 0, 0, 0, 0, t.Location())
}

var timeframes = []struct {
	label  string
	period periodFunc
}{
	TimeframeThisMonth: {"This Month", func(now time.Time, _ int) (time.Time, time.Time) {
		return monthStart(now, 0), now
	}},
	TimeframeLastMonth: {"Last Month", func(now time.Time, _ int) (time.Time, time.Time) {
		return monthStart(now, -1), monthStart(now, 0).AddDate(0, 0, -1)
	}},
	TimeframeThisYear: {"This Year", func(now time.Time, _ int) (time.Time, time.Time) {
		return yearStart(now, 0), now
	}},
	TimeframeLastYear: {"Last Year", func(now time.Time, _ int) (time.Time, time.Time) {
		return yearStart(now, -1), yearStart(now, 0).AddDate(0, 0, -1)
	}},
	TimeframeLastHawl: {"Last Hawl", func(now time.Time, hawlDays int) (time.Time, time.Time) {
		return now.AddDate(0, 0, -hawlDays), now
	}},
	TimeframeAll:    {label: "All Time"},
	TimeframeCustom: {label: "Custom Range"},
}

func (t Timeframe) String() string {
	if t < 0 || int(t) >= len(timeframes) {
		return "Unknown"
	}

	return timeframes[t].label
}

// timeframeToDateRange resolves a preset relative to now. All and Custom have
// no preset and resolve to zero times.
func timeframeToDateRange(tf Timeframe, now time.Time, hawlDays int) (time.Time, time.Time) {
	if tf < 0 || int(tf) >= len(timeframes) || timeframes[tf].period == nil {
		return time.Time{}, time.Time{}
	}

	return timeframes[tf].period(now, hawlDays)
}

// normalizeDateRange widens the range to whole UTC days.
func normalizeDateRange(start, end time.Time) (time.Time, time.Time) {
	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}

	return day(start), day(end).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func parseDay(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.New("use YYYY-MM-DD")
	}

	return t, nil
}

func parseCustomRange(from, to string) (time.Time, time.Time, error) {
	start, err := parseDay(from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start date: %w", err)
	}

	end, err := parseDay(to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end date: %w", err)
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end date is before start date")
	}

	start, end = normalizeDateRange(start, end)

	return start, end, nil
}

// TimeframeSelectedMsg is emitted when the user has picked a period.
// Start and End are zero when All is set.
type TimeframeSelectedMsg struct {
	Start time.Time
	End   time.Time
	All   bool
}

type customRange struct {
	start, end string
}

// TimeframePicker lists the presets from a first entry onwards and opens a
// date form for Custom.
type TimeframePicker struct {
	first    Timeframe
	cursor   Timeframe
	hawlDays int
	now      func() time.Time

	custom *customRange
	form   *huh.Form
	err    error
}

func NewTimeframePicker(first Timeframe, hawlDays int) TimeframePicker {
	return TimeframePicker{
		first:    first,
		cursor:   first,
		hawlDays: hawlDays,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m TimeframePicker) Init() tea.Cmd {
	return nil
}

func (m TimeframePicker) Update(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	if m.form != nil {
		return m.updateCustom(msg)
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > m.first {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < TimeframeCustom {
			m.cursor++
		}
	case "enter":
		return m.choose()
	}

	return m, nil
}

func emit(msg TimeframeSelectedMsg) tea.Cmd {
	return func() tea.Msg { return msg }
}

func (m TimeframePicker) choose() (TimeframePicker, tea.Cmd) {
	switch m.cursor {
	case TimeframeAll:
		return m, emit(TimeframeSelectedMsg{All: true})
	case TimeframeCustom:
		return m.openCustom(&customRange{})
	}

	start, end := normalizeDateRange(timeframeToDateRange(m.cursor, m.now(), m.hawlDays))

	return m, emit(TimeframeSelectedMsg{Start: start, End: end})
}

func (m TimeframePicker) openCustom(r *customRange) (TimeframePicker, tea.Cmd) {
	validate := func(s string) error {
		_, err := parseDay(s)
		return err
	}

	m.custom = r
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Start date").Placeholder("YYYY-MM-DD").CharLimit(10).Value(&r.start).Validate(validate),
			huh.NewInput().Title("End date").Placeholder("YYYY-MM-DD").CharLimit(10).Value(&r.end).Validate(validate),
		),
	).WithWidth(40).WithShowHelp(false)

	return m, m.form.Init()
}

func (m TimeframePicker) updateCustom(msg tea.Msg) (TimeframePicker, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
		m.form, m.custom, m.err = nil, nil, nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m.submitCustom()
}

func (m TimeframePicker) submitCustom() (TimeframePicker, tea.Cmd) {
	start, end, err := parseCustomRange(m.custom.start, m.custom.end)
	if err != nil {
		m.err = err
		return m.openCustom(&customRange{start: m.custom.start, end: m.custom.end})
	}

	m.form, m.custom, m.err = nil, nil, nil

	return m, emit(TimeframeSelectedMsg{Start: start, End: end})
}

var pickerCursor = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)

func (m TimeframePicker) View() string {
	var b strings.Builder

	if m.form != nil {
		b.WriteString("Custom range\n\n")
		b.WriteString(m.form.View())
		b.WriteString("\n(Enter to confirm, Esc to go back)")
	} else {
		b.WriteString("Select timeframe\n\n")

		for tf := m.first; tf <= TimeframeCustom; tf++ {
			if tf == m.cursor {
				b.WriteString(pickerCursor.Render("> " + tf.String()))
			} else {
				b.WriteString("  " + tf.String())
			}

			b.WriteByte('\n')
		}

		b.WriteString("\n(↑/↓ to move, Enter to select, Esc to go back)")
	}

	if m.err != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("\n\n" + m.err.Error()))
	}

	return b.String()
}

// IsSelecting reports whether the preset list is showing, as opposed to the custom form.
func (m TimeframePicker) IsSelecting() bool {
	return m.form == nil
}

// Reset returns the picker to the preset list.
func (m *TimeframePicker) Reset() {
	m.cursor = m.first
	m.form, m.custom, m.err = nil, nil, nil
}
