package view

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/zakati/internal/export"
	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

const exportTimeout = 2 * time.Minute

type exportStep int

const (
	exportPickPeriod exportStep = iota
	exportConfigure
	exportRunning
	exportDone
)

// exportOptions is bound to the options form.
type exportOptions struct {
	typ ledger.TransferType
	dir string
	zip bool
}

type exportOutcome struct {
	items   []export.Item
	summary string
	archive string
	err     error
}

// ExportModel collects the receipts of a period into a local directory,
// optionally packed into a zip next to it.
type ExportModel struct {
	CommonModel
	svc *export.Service

	step    exportStep
	picker  TimeframePicker
	period  TimeframeSelectedMsg
	opts    *exportOptions
	form    *huh.Form
	spinner spinner.Model
	outcome exportOutcome
}

func NewExportModel(caller ledger.Caller, svc *export.Service, hawlDays int) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ExportModel{
		CommonModel: CommonModel{Caller: caller},
		svc:         svc,
		picker:      NewTimeframePicker(TimeframeThisYear, hawlDays),
		opts:        &exportOptions{typ: ledger.TypeZakatOut, dir: "./receipts"},
		spinner:     s,
	}
}

func (m ExportModel) Title() string { return "Export Receipts" }

func (m ExportModel) ShortHelp() string {
	switch m.step {
	case exportRunning:
		return "Downloading..."
	case exportDone:
		return "Esc: back to menu"
	}

	return "Esc: back | Enter: confirm"
}

func (m ExportModel) Init() tea.Cmd {
	return nil
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.period = msg
		m.form = newExportForm(m.opts)
		m.step = exportConfigure

		return m, m.form.Init()

	case exportOutcome:
		m.outcome = msg
		m.step = exportDone

		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			switch m.step {
			case exportPickPeriod:
				if m.picker.IsSelecting() {
					return m, Back
				}
			case exportConfigure:
				m.step = exportPickPeriod
				m.picker.Reset()

				return m, nil
			case exportDone:
				return m, Back
			}
		}
	}

	var cmd tea.Cmd

	switch m.step {
	case exportPickPeriod:
		m.picker, cmd = m.picker.Update(msg)
	case exportConfigure:
		return m.updateForm(msg)
	case exportRunning:
		m.spinner, cmd = m.spinner.Update(msg)
	}

	return m, cmd
}

func (m ExportModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.step = exportRunning

	return m, tea.Batch(m.spinner.Tick, m.run())
}

func newExportForm(o *exportOptions) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[ledger.TransferType]().
				Title("Transfers").
				Options(
					huh.NewOption("Zakat paid", ledger.TypeZakatOut),
					huh.NewOption("Added", ledger.TypeAdd),
					huh.NewOption("Withdrawn", ledger.TypeWithdraw),
					huh.NewOption("Every type", ledger.TransferType("")),
				).
				Value(&o.typ),
			huh.NewInput().
				Title("Directory").
				Description("Created if missing").
				Placeholder("./receipts").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("directory is required")
					}

					return nil
				}).
				Value(&o.dir),
			huh.NewConfirm().
				Title("Also pack a zip archive?").
				Value(&o.zip),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ExportModel) run() tea.Cmd {
	svc, caller, opts := m.svc, m.Caller, *m.opts

	q := export.Query{Filter: ledger.TransferFilter{UserID: caller.UserID}, Type: opts.typ}
	if !m.period.All {
		start, end := m.period.Start, m.period.End
		q.Filter.Start, q.Filter.End = &start, &end
	}

	dir := strings.TrimSpace(opts.dir)

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		items, err := svc.Export(ctx, caller, q, dir)
		if err != nil {
			return exportOutcome{err: err}
		}

		if err := svc.WriteSummary(items, dir); err != nil {
			return exportOutcome{err: err}
		}

		out := exportOutcome{items: items, summary: svc.Summary(items)}
		if opts.zip {
			out.archive, out.err = writeArchive(dir)
		}

		return out
	}
}

// writeArchive zips dir into a sibling "<dir>.zip".
func writeArchive(dir string) (string, error) {
	path := filepath.Clean(dir) + ".zip"

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()

	if err := export.WriteZip(f, dir); err != nil {
		return "", fmt.Errorf("writing archive: %w", err)
	}

	return path, f.Close()
}

func (m ExportModel) View() string {
	pad := lipgloss.NewStyle().Padding(1)

	switch m.step {
	case exportPickPeriod:
		return pad.Render(m.picker.View())
	case exportConfigure:
		return pad.Render(fmt.Sprintf("Period: %s\n\n%s", selectionLabel(m.period), m.form.View()))
	case exportRunning:
		return pad.Render(m.spinner.View() + " Downloading receipts...")
	case exportDone:
		return pad.Render(outcomeView(m.outcome, m.opts.dir))
	}

	return ""
}

func selectionLabel(sel TimeframeSelectedMsg) string {
	if sel.All {
		return "all time"
	}

	return fmt.Sprintf("%s to %s", FormatDate(sel.Start), FormatDate(sel.End))
}

func outcomeView(o exportOutcome, dir string) string {
	if o.err != nil {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("Error: " + o.err.Error())
	}

	receipts := 0

	for _, it := range o.items {
		if it.FilePath != "" {
			receipts++
		}
	}

	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")).
			Render(fmt.Sprintf("%d transfers, %d receipts saved to %s", len(o.items), receipts, dir)),
	}

	if o.archive != "" {
		lines = append(lines, "Archive: "+o.archive)
	}

	if o.summary != "" {
		lines = append(lines, "", o.summary)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
