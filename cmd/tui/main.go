package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/zakati/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/zakati/internal/alias"
	aliasStore "github.com/MrJamesThe3rd/zakati/internal/alias/store"
	"github.com/MrJamesThe3rd/zakati/internal/config"
	"github.com/MrJamesThe3rd/zakati/internal/database"
	"github.com/MrJamesThe3rd/zakati/internal/export"
	"github.com/MrJamesThe3rd/zakati/internal/importer"
	"github.com/MrJamesThe3rd/zakati/internal/ledger"
	ledgerStore "github.com/MrJamesThe3rd/zakati/internal/ledger/store"
	"github.com/MrJamesThe3rd/zakati/internal/logging"
	"github.com/MrJamesThe3rd/zakati/internal/notify"
	"github.com/MrJamesThe3rd/zakati/internal/zakat"
)

type model struct {
	caller        ledger.Caller
	ledgerService *ledger.Service
	zakatService  *zakat.Service
	importService *importer.Service
	aliasService  *alias.Service
	exportService *export.Service
	localizer     *notify.Localizer
	width, height int

	currentView View

	dashboardView view.DashboardModel
	transfersView view.TransfersModel
	reportView    view.ReportModel
	importView    view.ImportModel
	exportView    view.ExportModel
}

type View int

const (
	ViewMenu      View = 0
	ViewDashboard View = 1
	ViewTransfers View = 2
	ViewReport    View = 3
	ViewImport    View = 4
	ViewExport    View = 5
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// The terminal belongs to bubbletea; keep logs on stderr at warn and above.
	cfg.Log.Level = "warn"
	slog.SetDefault(logging.New(cfg.Log))

	params, err := cfg.ZakatParams()
	if err != nil {
		slog.Error("failed to load zakat params", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	receipts, err := cfg.ReceiptStore()
	if err != nil {
		slog.Error("invalid receipt store", "error", err)
		os.Exit(1)
	}

	store := ledgerStore.New(db)
	ledgerSvc := ledger.NewService(store, receipts)
	aliasSvc := alias.NewService(aliasStore.New(db), store)

	return model{
		caller:        ledger.Caller{UserID: cfg.TUI.UserID, Staff: cfg.TUI.Staff},
		ledgerService: ledgerSvc,
		zakatService:  zakat.NewService(store, params),
		importService: importer.NewService(aliasSvc, time.UTC),
		aliasService:  aliasSvc,
		exportService: export.NewService(ledgerSvc, &http.Client{Timeout: cfg.Export.Timeout}, receipts, cfg.Export.ReceiptToken),
		localizer:     notify.NewLocalizer(cfg.TUI.Language),
		currentView:   ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

// open switches to a freshly built view and replays the last window size to it.
func (m model) open(v View) (tea.Model, tea.Cmd) {
	m.currentView = v

	var cmd tea.Cmd

	switch v {
	case ViewDashboard:
		m.dashboardView = view.NewDashboardModel(m.caller, m.zakatService, m.localizer)
		cmd = m.dashboardView.Init()
	case ViewTransfers:
		m.transfersView = view.NewTransfersModel(m.caller, m.ledgerService, m.zakatService.Params().HawlDays)
		cmd = m.transfersView.Init()
	case ViewReport:
		m.reportView = view.NewReportModel(m.caller, m.zakatService, m.localizer)
		cmd = m.reportView.Init()
	case ViewImport:
		m.importView = view.NewImportModel(m.caller, m.ledgerService, m.importService, m.aliasService)
		cmd = m.importView.Init()
	case ViewExport:
		m.exportView = view.NewExportModel(m.caller, m.exportService, m.zakatService.Params().HawlDays)
		cmd = m.exportView.Init()
	}

	if m.width == 0 {
		return m, cmd
	}

	size := tea.WindowSizeMsg{Width: m.width, Height: m.height}

	return m, tea.Batch(cmd, func() tea.Msg { return size })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				return m.open(ViewDashboard)
			case "2":
				return m.open(ViewTransfers)
			case "3":
				return m.open(ViewReport)
			case "4":
				return m.open(ViewImport)
			case "5":
				return m.open(ViewExport)
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewDashboard:
		var newModel tea.Model
		newModel, cmd = m.dashboardView.Update(msg)
		m.dashboardView = newModel.(view.DashboardModel)
	case ViewTransfers:
		var newModel tea.Model
		newModel, cmd = m.transfersView.Update(msg)
		m.transfersView = newModel.(view.TransfersModel)
	case ViewReport:
		var newModel tea.Model
		newModel, cmd = m.reportView.Update(msg)
		m.reportView = newModel.(view.ReportModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) current() view.View {
	switch m.currentView {
	case ViewDashboard:
		return m.dashboardView
	case ViewTransfers:
		return m.transfersView
	case ViewReport:
		return m.reportView
	case ViewImport:
		return m.importView
	case ViewExport:
		return m.exportView
	}

	return nil
}

func (m model) View() string {
	v := m.current()
	if v == nil {
		staff := ""
		if m.caller.Staff {
			staff = " (staff)"
		}

		return lipgloss.NewStyle().Padding(2).Render(
			"Zakati\n" +
				lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("user #%d%s", m.caller.UserID, staff)) + "\n\n" +
				"1. Dashboard\n" +
				"2. Transfers\n" +
				"3. Report\n" +
				"4. Import Transfers\n" +
				"5. Export Receipts\n\n" +
				"q. Quit",
		)
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).PaddingLeft(1).Render(v.Title())
	help := lipgloss.NewStyle().Faint(true).PaddingLeft(1).Render(v.ShortHelp())

	return lipgloss.JoinVertical(lipgloss.Left, title, v.View(), help)
}

func main() {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
