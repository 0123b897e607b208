package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
	"github.com/MrJamesThe3rd/zakati/internal/notify"
	"github.com/MrJamesThe3rd/zakati/internal/zakat"
)

type reportState int

const (
	reportStateTimeframe reportState = iota
	reportStateLoading
	reportStateResult
)

// ReportModel totals additions, withdrawals and zakat payments over a period.
type ReportModel struct {
	CommonModel
	zakatService *zakat.Service
	localizer    *notify.Localizer

	state           reportState
	err             error
	timeframePicker TimeframePicker
	spinner         spinner.Model
	report          *zakat.Report
}

func NewReportModel(caller ledger.Caller, zakatSvc *zakat.Service, loc *notify.Localizer) ReportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ReportModel{
		CommonModel:     CommonModel{Caller: caller},
		zakatService:    zakatSvc,
		localizer:       loc,
		state:           reportStateTimeframe,
		timeframePicker: NewTimeframePicker(TimeframeThisMonth, zakatSvc.Params().HawlDays),
		spinner:         s,
	}
}

func (m ReportModel) Title() string { return "Report" }

func (m ReportModel) ShortHelp() string {
	if m.state == reportStateResult {
		return "Esc: choose another period"
	}

	return "Esc: back | Enter: confirm"
}

func (m ReportModel) Init() tea.Cmd {
	return nil
}

func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if tfMsg, ok := msg.(TimeframeSelectedMsg); ok {
		var rng zakat.Range
		if !tfMsg.All {
			rng = zakat.Range{Start: &tfMsg.Start, End: &tfMsg.End}
		}

		m.state = reportStateLoading
		m.err = nil

		return m, tea.Batch(m.spinner.Tick, m.runReportCmd(rng))
	}

	switch m.state {
	case reportStateTimeframe:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			if keyMsg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
				return m, Back
			}
		}

		var cmd tea.Cmd
		m.timeframePicker, cmd = m.timeframePicker.Update(msg)

		return m, cmd

	case reportStateLoading:
		if result, ok := msg.(reportResultMsg); ok {
			m.state = reportStateResult
			m.err = result.err
			m.report = result.report

			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case reportStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			m.state = reportStateTimeframe
			m.timeframePicker.Reset()
		}
	}

	return m, nil
}

func (m ReportModel) View() string {
	switch m.state {
	case reportStateTimeframe:
		return lipgloss.NewStyle().Padding(1).Render(m.timeframePicker.View())

	case reportStateLoading:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Building report...", m.spinner.View()),
		)

	case reportStateResult:
		if m.err != nil {
			return lipgloss.NewStyle().Padding(1).Render(
				lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(fmt.Sprintf("Error: %v", m.err)),
			)
		}

		return lipgloss.NewStyle().Padding(1).Render(reportSummary(m.report, m.localizer))
	}

	return ""
}

// reportSummary renders one block per transfer type with a line per class.
func reportSummary(r *zakat.Report, loc *notify.Localizer) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Period: %s\n", periodLabel(r.Range))
	fmt.Fprintf(&b, "%s\n", r.FXLine)

	sections := []struct {
		title  string
		bucket zakat.Bucket
	}{
		{"Added", r.Added},
		{"Withdrawn", r.Withdrawn},
		{"Zakat paid", r.ZakatOut},
	}

	for _, s := range sections {
		fmt.Fprintf(&b, "\n%s\n", lipgloss.NewStyle().Bold(true).Render(s.title))

		for _, c := range ledger.Classes {
			a := bucketAmount(s.bucket, c)

			line := FormatValue(a.ValueDisplay, r.DisplayCode)
			if a.QuantityGrams != nil {
				line = fmt.Sprintf("%s g  (%s)", a.QuantityGrams.StringFixed(3), line)
			}

			fmt.Fprintf(&b, "  %-8s %s\n", loc.Class(c), line)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func bucketAmount(b zakat.Bucket, c ledger.Class) zakat.Amount {
	switch c {
	case ledger.ClassGold:
		return b.Gold
	case ledger.ClassSilver:
		return b.Silver
	}

	return b.Money
}

func periodLabel(rng zakat.Range) string {
	if !rng.Enabled() {
		return "all time"
	}

	date := func(t *time.Time) string {
		if t == nil {
			return "..."
		}

		return FormatDate(*t)
	}

	return fmt.Sprintf("%s to %s", date(rng.Start), date(rng.End))
}

type reportResultMsg struct {
	report *zakat.Report
	err    error
}

func (m ReportModel) runReportCmd(rng zakat.Range) tea.Cmd {
	svc := m.zakatService
	caller := m.Caller

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		report, err := svc.Report(ctx, caller, caller.UserID, rng)

		return reportResultMsg{report: report, err: err}
	}
}
