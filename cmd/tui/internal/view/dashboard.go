package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
	"github.com/MrJamesThe3rd/zakati/internal/notify"
	"github.com/MrJamesThe3rd/zakati/internal/zakat"
)

// DashboardModel shows the caller's current holdings, hawl windows and dues.
type DashboardModel struct {
	CommonModel
	zakatService *zakat.Service
	localizer    *notify.Localizer

	table   table.Model
	snap    *zakat.Snapshot
	loading bool
	err     error
}

func NewDashboardModel(caller ledger.Caller, zakatSvc *zakat.Service, loc *notify.Localizer) DashboardModel {
	columns := []table.Column{
		{Title: "Class", Width: 8},
		{Title: "Asset", Width: 10},
		{Title: "Kind", Width: 18},
		{Title: "Quantity", Width: 18},
		{Title: "Value", Width: 18},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return DashboardModel{
		CommonModel:  CommonModel{Caller: caller},
		zakatService: zakatSvc,
		localizer:    loc,
		table:        t,
		loading:      true,
	}
}

func (m DashboardModel) Title() string     { return "Dashboard" }
func (m DashboardModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m DashboardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.loading = false
		m.err = msg.err

		if msg.err == nil {
			m.snap = msg.snap
			m.refreshTable()
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-20, 5))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *DashboardModel) refreshTable() {
	var rows []table.Row

	for _, cs := range m.snap.Classes() {
		for _, it := range cs.Items {
			rows = append(rows, table.Row{
				m.localizer.Class(cs.Class),
				it.Asset.Code,
				it.Asset.Kind,
				FormatQuantity(it.Quantity, it.Asset),
				FormatValue(it.ValueDisplay, m.snap.DisplayCode),
			})
		}
	}

	m.table.SetRows(rows)
}

func (m DashboardModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Computing snapshot...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	snap := m.snap

	header := fmt.Sprintf("Total: %s  |  Zakat due: %s  |  Rate: %s",
		activeStyle(FormatValue(snap.TotalDisplay, snap.DisplayCode)),
		activeStyle(FormatValue(snap.Money.ZakatDueDisplay, snap.DisplayCode)),
		snap.Rate.String(),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
		m.windowsView(),
	)

	if notes := m.notificationsView(); notes != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content, notes)
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m DashboardModel) windowsView() string {
	var b strings.Builder

	for _, cs := range append(m.snap.Classes(), m.snap.Combined) {
		name := string(cs.Class)
		if cs.Class != zakat.ClassCombined {
			name = m.localizer.Class(cs.Class)
		}

		fmt.Fprintf(&b, "%-10s %s\n", name, windowLine(cs))
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(0, 1).
		Render(strings.TrimRight(b.String(), "\n"))
}

func windowLine(cs zakat.ClassSnapshot) string {
	w := cs.Window
	if !w.AboveNow || w.StartedAt == nil {
		return lipgloss.NewStyle().Faint(true).Render("below nisab")
	}

	line := fmt.Sprintf("hawl since %s", FormatDate(*w.StartedAt))

	if w.NextDueAt != nil {
		line += fmt.Sprintf(", due %s", FormatDate(*w.NextDueAt))
	}

	if w.DaysLeft != nil && !w.Completed {
		line += fmt.Sprintf(" (%d days left)", *w.DaysLeft)
	}

	if n := len(cs.Allocation.Cycles); n > 0 {
		line += fmt.Sprintf(", %d cycle(s), paid %s", n, cs.Allocation.Paid.StringFixed(2))
	}

	return line
}

func (m DashboardModel) notificationsView() string {
	if len(m.snap.Notifications) == 0 {
		return ""
	}

	lines := make([]string, 0, len(m.snap.Notifications))
	for _, n := range m.snap.Notifications {
		lines = append(lines, "! "+m.localizer.Reminder(n))
	}

	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		PaddingTop(1).
		Render(strings.Join(lines, "\n"))
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

type snapshotMsg struct {
	snap *zakat.Snapshot
	err  error
}

func (m DashboardModel) loadCmd() tea.Cmd {
	svc := m.zakatService
	userID := m.Caller.UserID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		snap, err := svc.Snapshot(ctx, userID, 0)

		return snapshotMsg{snap: snap, err: err}
	}
}
