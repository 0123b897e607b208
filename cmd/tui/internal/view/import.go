package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/zakati/internal/alias"
	"github.com/MrJamesThe3rd/zakati/internal/importer"
	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateOptions importState = iota
	importStateFilePick
	importStateImporting
	importStateAliases
	importStateConflicts
	importStateResult
)

var charsetOptions = []string{"", "utf-8", "windows-1256", "iso-8859-6", "windows-1252"}

// importOptions is bound to the option form; an empty charset means detect.
type importOptions struct {
	format  importer.Format
	charset string
}

type ImportModel struct {
	CommonModel
	ledgerService *ledger.Service
	importService *importer.Service
	aliasService  *alias.Service

	state      importState
	optionForm *huh.Form
	options    *importOptions
	filePicker filepicker.Model
	path       string

	assets     []*ledger.Asset
	unresolved []string
	aliasCodes []string
	aliasForm  *huh.Form

	newParams    []ledger.CreateParams
	conflicts    []ledger.Conflict
	conflictList list.Model
	selected     map[int]bool

	status string
	err    error
}

func NewImportModel(caller ledger.Caller, ledgerSvc *ledger.Service, impSvc *importer.Service, aliasSvc *alias.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	m := ImportModel{
		CommonModel:   CommonModel{Caller: caller},
		ledgerService: ledgerSvc,
		importService: impSvc,
		aliasService:  aliasSvc,
		filePicker:    fp,
		options:       &importOptions{format: importer.FormatLedgerCSV},
		selected:      make(map[int]bool),
	}
	m.optionForm = m.buildOptionForm()

	return m
}

func (m ImportModel) Title() string { return "Import Transfers" }

func (m ImportModel) ShortHelp() string {
	switch m.state {
	case importStateConflicts:
		return "Space: toggle | a: all | n: none | Enter: confirm | Esc: cancel"
	case importStateAliases:
		return "Enter: learn aliases and retry | Esc: cancel"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return tea.Batch(m.optionForm.Init(), m.loadAssetsCmd())
}

func (m ImportModel) buildOptionForm() *huh.Form {
	charsets := make([]huh.Option[string], 0, len(charsetOptions))
	for _, c := range charsetOptions {
		label := c
		if c == "" {
			label = "detect automatically"
		}

		charsets = append(charsets, huh.NewOption(label, c))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[importer.Format]().
				Key("format").
				Title("Format").
				Options(huh.NewOption("Ledger CSV (English or Arabic headers)", importer.FormatLedgerCSV)).
				Value(&m.options.format),
			huh.NewSelect[string]().
				Key("charset").
				Title("Encoding").
				Options(charsets...).
				Value(&m.options.charset),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		if m.state == importStateConflicts {
			return m.updateConflicts(msg)
		}

	case loadAssetsMsg:
		if msg.err == nil {
			m.assets = msg.assets
		}

		return m, nil

	case importResultMsg:
		return m.handleImportResult(msg)

	case aliasesLearnedMsg:
		if msg.err != nil {
			m.state = importStateResult
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.state = importStateImporting
		m.status = fmt.Sprintf("Learned %d aliases, importing %s again...", msg.count, m.path)

		return m, m.importCmd(m.path)

	case confirmResultMsg:
		m.state = importStateResult
		if msg.err != nil {
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.status = fmt.Sprintf("Imported %d transfers.", msg.count)

		return m, nil
	}

	switch m.state {
	case importStateOptions:
		return m.updateOptions(msg)
	case importStateAliases:
		return m.updateAliases(msg)
	case importStateFilePick:
		return m.updateFilePick(msg)
	}

	return m, nil
}

func (m ImportModel) updateFilePick(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.path = path
		m.state = importStateImporting
		m.status = fmt.Sprintf("Importing from %s...", path)

		return m, m.importCmd(path)
	}

	return m, cmd
}

func (m ImportModel) handleImportResult(msg importResultMsg) (tea.Model, tea.Cmd) {
	var unresolved *importer.UnresolvedError
	if errors.As(msg.err, &unresolved) && m.aliasService != nil && m.Caller.Staff {
		return m.startAliases(unresolved.Labels)
	}

	if msg.err != nil {
		m.state = importStateResult
		m.err = msg.err
		m.status = fmt.Sprintf("Error: %v", msg.err)

		return m, nil
	}

	if len(msg.result.Conflicts) == 0 {
		m.state = importStateResult
		m.status = fmt.Sprintf("Imported %d transfers.", len(msg.result.Imported))

		return m, nil
	}

	m.newParams = msg.result.New
	m.conflicts = msg.result.Conflicts
	m.selected = make(map[int]bool)
	m.state = importStateConflicts

	items := make([]list.Item, len(m.conflicts))
	for i, c := range m.conflicts {
		items[i] = conflictItem{conflict: c, index: i}
	}

	delegate := conflictDelegate{selected: &m.selected, assets: assetIndex(m.assets)}
	m.conflictList = list.New(items, delegate, 80, 20)
	m.conflictList.Title = "Possible Duplicates"
	m.conflictList.SetShowStatusBar(false)
	m.conflictList.SetFilteringEnabled(false)
	m.conflictList.SetShowHelp(false)

	return m, nil
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStateFilePick:
		m.state = importStateOptions
		m.optionForm = m.buildOptionForm()

		return m, m.optionForm.Init()
	case importStateResult, importStateConflicts, importStateAliases:
		m.state = importStateOptions
		m.err = nil
		m.status = ""
		m.conflicts = nil
		m.newParams = nil
		m.unresolved = nil
		m.selected = make(map[int]bool)
		m.optionForm = m.buildOptionForm()

		return m, m.optionForm.Init()
	}

	return m, Back
}

func (m ImportModel) updateOptions(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.optionForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.optionForm = f
	}

	if m.optionForm.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = importStateFilePick

	return m, m.filePicker.Init()
}

// startAliases asks for an asset code for every label the import could not resolve.
func (m ImportModel) startAliases(labels []string) (tea.Model, tea.Cmd) {
	if len(m.assets) == 0 {
		m.state = importStateResult
		m.err = fmt.Errorf("unknown asset labels: %s", strings.Join(labels, ", "))
		m.status = fmt.Sprintf("Error: %v", m.err)

		return m, nil
	}

	options := make([]huh.Option[string], 0, len(m.assets))
	for _, a := range m.assets {
		options = append(options, huh.NewOption(fmt.Sprintf("%s  %s", a.Code, a.Kind), a.Code))
	}

	m.unresolved = labels
	m.aliasCodes = make([]string, len(labels))

	fields := make([]huh.Field, 0, len(labels))
	for i, label := range labels {
		m.aliasCodes[i] = m.assets[0].Code
		fields = append(fields, huh.NewSelect[string]().
			Title(fmt.Sprintf("%q is", label)).
			Options(options...).
			Height(6).
			Value(&m.aliasCodes[i]))
	}

	m.aliasForm = huh.NewForm(huh.NewGroup(fields...)).WithWidth(60).WithShowHelp(false)
	m.state = importStateAliases

	return m, m.aliasForm.Init()
}

func (m ImportModel) updateAliases(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.aliasForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.aliasForm = f
	}

	if m.aliasForm.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.learnAliasesCmd()
}

func (m ImportModel) updateConflicts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		idx := m.conflictList.Index()
		m.selected[idx] = !m.selected[idx]

		return m, nil
	case "a":
		for i := range m.conflicts {
			m.selected[i] = true
		}

		return m, nil
	case "n":
		for i := range m.conflicts {
			m.selected[i] = false
		}

		return m, nil
	case "enter":
		return m, m.confirmCmd()
	}

	var cmd tea.Cmd
	m.conflictList, cmd = m.conflictList.Update(msg)

	return m, cmd
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateOptions:
		return lipgloss.NewStyle().Padding(1).Render(m.optionForm.View())
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select file to import (%s):\n\n%s", m.options.format, m.filePicker.View()),
		)
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateAliases:
		return lipgloss.NewStyle().Padding(1).Render(
			"Some asset labels are unknown. Choose the asset each one refers to:\n\n" + m.aliasForm.View(),
		)
	case importStateConflicts:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%d new transfers will be imported. Select duplicates to import anyway:\n\n%s",
				len(m.newParams), m.conflictList.View()),
		)
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewResult() string {
	color := lipgloss.Color("46")
	if m.err != nil {
		color = lipgloss.Color("196")
	}

	return lipgloss.NewStyle().Padding(2).Render(
		lipgloss.NewStyle().Foreground(color).Render(m.status) +
			"\n\n(Esc to go back)",
	)
}

// Messages

type importResultMsg struct {
	result *ledger.ImportResult
	err    error
}

type aliasesLearnedMsg struct {
	count int
	err   error
}

type confirmResultMsg struct {
	count int
	err   error
}

func (m ImportModel) loadAssetsCmd() tea.Cmd {
	svc := m.ledgerService

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		assets, err := svc.Assets(ctx)

		return loadAssetsMsg{assets: assets, err: err}
	}
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	caller := m.Caller
	opts := *m.options

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		result, err := importFile(ctx, m.importService, m.ledgerService, caller, opts.format, opts.charset, f)

		return importResultMsg{result: result, err: err}
	}
}

func importFile(ctx context.Context, imp *importer.Service, svc *ledger.Service, caller ledger.Caller, format importer.Format, charset string, r io.Reader) (*ledger.ImportResult, error) {
	params, err := imp.Import(ctx, format, r, importer.Options{UserID: caller.UserID, Charset: charset})
	if err != nil {
		return nil, err
	}

	return svc.ImportBatch(ctx, caller, params)
}

func (m ImportModel) learnAliasesCmd() tea.Cmd {
	svc := m.aliasService
	labels := m.unresolved
	codes := append([]string(nil), m.aliasCodes...)

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		for i, label := range labels {
			if err := svc.Learn(ctx, label, codes[i]); err != nil {
				return aliasesLearnedMsg{err: fmt.Errorf("learn %q: %w", label, err)}
			}
		}

		return aliasesLearnedMsg{count: len(labels)}
	}
}

func (m ImportModel) confirmCmd() tea.Cmd {
	svc := m.ledgerService
	caller := m.Caller
	newParams := m.newParams
	conflicts := m.conflicts
	selected := m.selected

	return func() tea.Msg {
		allParams := append([]ledger.CreateParams(nil), newParams...)

		for i, c := range conflicts {
			if !selected[i] {
				continue
			}

			allParams = append(allParams, c.Incoming)
		}

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		txs, err := svc.CreateBatch(ctx, caller, allParams)
		if err != nil {
			return confirmResultMsg{err: err}
		}

		return confirmResultMsg{count: len(txs)}
	}
}

func assetIndex(assets []*ledger.Asset) map[int64]*ledger.Asset {
	idx := make(map[int64]*ledger.Asset, len(assets))
	for _, a := range assets {
		idx[a.ID] = a
	}

	return idx
}

// Conflict list item

type conflictItem struct {
	conflict ledger.Conflict
	index    int
}

func (i conflictItem) Title() string       { return "" }
func (i conflictItem) Description() string { return "" }
func (i conflictItem) FilterValue() string { return "" }

// Conflict list delegate

type conflictDelegate struct {
	selected *map[int]bool
	assets   map[int64]*ledger.Asset
}

func (d conflictDelegate) Height() int                             { return 3 }
func (d conflictDelegate) Spacing() int                            { return 0 }
func (d conflictDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d conflictDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(conflictItem)
	if !ok {
		return
	}

	checkbox := "[ ]"
	if (*d.selected)[item.index] {
		checkbox = "[x]"
	}

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}

	incoming := item.conflict.Incoming
	existing := item.conflict.Existing

	line1 := fmt.Sprintf("%s%s %s  %s  %s  %s",
		cursor, checkbox,
		FormatDate(incoming.OccurredAt),
		incoming.Type,
		FormatQuantity(incoming.Quantity, d.assets[incoming.AssetID]),
		incoming.Note,
	)

	line2 := fmt.Sprintf("      Existing: %s  %s  %s  %s (#%d)",
		FormatDate(existing.OccurredAt),
		existing.Type,
		FormatQuantity(existing.Quantity, existing.Asset),
		existing.Note,
		existing.ID,
	)

	fmt.Fprintf(w, "%s\n%s\n", line1, line2)
}
