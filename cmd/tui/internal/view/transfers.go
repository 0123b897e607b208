package view

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

type txState int

const (
	txStateTimeframe txState = iota
	txStateList
	txStateEditing
	txStateCreating
)

// txItem wraps a transfer to implement list.Item.
type txItem struct {
	tx *ledger.Transfer
}

func (i txItem) Title() string {
	typ := lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("[%s]", i.tx.Type))

	code := ""
	if i.tx.Asset != nil {
		code = i.tx.Asset.Code
	}

	return fmt.Sprintf("%s  %-8s %s  %s  %s", FormatDate(i.tx.OccurredAt), code, FormatQuantity(i.tx.Quantity, i.tx.Asset), typ, i.tx.Note)
}

func (i txItem) Description() string {
	if i.tx.Attachment != nil && i.tx.Attachment.URL != "" {
		return fmt.Sprintf("Attachment: %s", i.tx.Attachment.URL)
	}

	return ""
}

func (i txItem) FilterValue() string {
	if i.tx.Asset != nil {
		return i.tx.Asset.Code + " " + i.tx.Note
	}

	return i.tx.Note
}

// transferForm holds the huh field bindings shared by the edit and create forms.
type transferForm struct {
	assetID    int64
	typ        ledger.TransferType
	quantity   string
	occurredAt string
	note       string
	url        string
}

type TransfersModel struct {
	CommonModel
	ledgerService *ledger.Service

	state           txState
	timeframePicker TimeframePicker
	list            list.Model
	form            *huh.Form
	fields          *transferForm
	txs             []*ledger.Transfer
	assets          []*ledger.Asset
	selectedTx      *ledger.Transfer

	startDate time.Time
	endDate   time.Time
	allTime   bool
	loading   bool
	status    string
}

func NewTransfersModel(caller ledger.Caller, ledgerSvc *ledger.Service, hawlDays int) TransfersModel {
	l := list.New([]list.Item{}, txItemDelegate{}, 0, 0)
	l.Title = "Transfers"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(true)

	return TransfersModel{
		CommonModel:     CommonModel{Caller: caller},
		ledgerService:   ledgerSvc,
		timeframePicker: NewTimeframePicker(TimeframeThisMonth, hawlDays),
		list:            l,
		fields:          &transferForm{},
	}
}

func (m TransfersModel) Title() string { return "Manage Transfers" }

func (m TransfersModel) ShortHelp() string {
	switch m.state {
	case txStateTimeframe:
		return "Esc: back | Enter: select"
	case txStateList:
		return "Esc: back | Enter: edit | n: new | /: filter"
	case txStateEditing, txStateCreating:
		return "Esc: cancel | Enter/Tab: navigate form"
	}

	return ""
}

func (m TransfersModel) Init() tea.Cmd {
	return m.loadAssetsCmd()
}

func (m TransfersModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.startDate = msg.Start
		m.endDate = msg.End
		m.allTime = msg.All
		m.loading = true
		m.state = txStateList

		return m, m.loadTxsCmd()

	case loadAssetsMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading assets: %v", msg.err)
			return m, nil
		}

		m.assets = msg.assets

		return m, nil

	case loadTxsMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.txs = msg.txs
		m.refreshListItems()

		m.status = ""
		if len(msg.txs) == 0 {
			m.status = "No transfers found."
		}

		return m, nil

	case saveTxResultMsg:
		m.state = txStateList
		m.form = nil

		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
			return m, nil
		}

		m.status = "Saved."

		return m, m.loadTxsCmd()

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil
	}

	switch m.state {
	case txStateTimeframe:
		return m.updateTimeframe(msg)
	case txStateList:
		return m.updateList(msg)
	case txStateEditing, txStateCreating:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m TransfersModel) updateTimeframe(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
			return m, Back
		}
	}

	var cmd tea.Cmd
	m.timeframePicker, cmd = m.timeframePicker.Update(msg)

	return m, cmd
}

func (m TransfersModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch keyMsg.String() {
		case "esc":
			m.state = txStateTimeframe
			m.timeframePicker.Reset()

			return m, nil
		case "enter":
			return m.startEditing()
		case "n":
			return m.startCreating()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m TransfersModel) typeSelect() *huh.Select[ledger.TransferType] {
	return huh.NewSelect[ledger.TransferType]().
		Key("type").
		Title("Type").
		Options(
			huh.NewOption("Add", ledger.TypeAdd),
			huh.NewOption("Withdraw", ledger.TypeWithdraw),
			huh.NewOption("Zakat paid", ledger.TypeZakatOut),
		).
		Value(&m.fields.typ)
}

func (m TransfersModel) quantityInput() *huh.Input {
	return huh.NewInput().
		Key("quantity").
		Title("Quantity").
		Value(&m.fields.quantity).
		Validate(func(s string) error {
			_, err := parseFormQuantity(s)
			return err
		})
}

func (m TransfersModel) noteInput() *huh.Input {
	return huh.NewInput().
		Key("note").
		Title("Note (optional)").
		CharLimit(240).
		Value(&m.fields.note)
}

func (m TransfersModel) urlInput() *huh.Input {
	return huh.NewInput().
		Key("attachment_url").
		Title("Attachment URL (optional)").
		Placeholder("https://...").
		Value(&m.fields.url)
}

func (m TransfersModel) startEditing() (tea.Model, tea.Cmd) {
	selected, ok := m.list.SelectedItem().(txItem)
	if !ok {
		return m, nil
	}

	tx := selected.tx
	m.selectedTx = tx

	*m.fields = transferForm{
		typ:      tx.Type,
		quantity: tx.Quantity.String(),
		note:     tx.Note,
	}

	if tx.Attachment != nil {
		m.fields.url = tx.Attachment.URL
	}

	m.form = huh.NewForm(
		huh.NewGroup(m.typeSelect(), m.quantityInput(), m.noteInput(), m.urlInput()),
	).WithWidth(50).WithShowHelp(false)

	m.state = txStateEditing

	return m, m.form.Init()
}

func (m TransfersModel) startCreating() (tea.Model, tea.Cmd) {
	if len(m.assets) == 0 {
		m.status = "No active assets to record a transfer against."
		return m, nil
	}

	*m.fields = transferForm{
		assetID:    m.assets[0].ID,
		typ:        ledger.TypeAdd,
		occurredAt: FormatDate(time.Now()),
	}

	options := make([]huh.Option[int64], 0, len(m.assets))
	for _, a := range m.assets {
		options = append(options, huh.NewOption(fmt.Sprintf("%s  %s", a.Code, a.Kind), a.ID))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int64]().
				Key("asset").
				Title("Asset").
				Options(options...).
				Height(8).
				Value(&m.fields.assetID),
			m.typeSelect(),
			m.quantityInput(),
			huh.NewInput().
				Key("occurred_at").
				Title("Date").
				Placeholder("YYYY-MM-DD").
				Value(&m.fields.occurredAt).
				Validate(func(s string) error {
					_, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
					return err
				}),
			m.noteInput(),
			m.urlInput(),
		),
	).WithWidth(50).WithShowHelp(false)

	m.selectedTx = nil
	m.state = txStateCreating

	return m, m.form.Init()
}

func (m TransfersModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = txStateList
			m.form = nil

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.state == txStateCreating {
		return m, m.createTxCmd()
	}

	return m, m.saveTxCmd()
}

func (m TransfersModel) View() string {
	switch m.state {
	case txStateTimeframe:
		return lipgloss.NewStyle().Padding(1).Render(m.timeframePicker.View())

	case txStateList:
		if m.loading {
			return lipgloss.NewStyle().Padding(2).Render("Loading transfers...")
		}

		statusLine := ""
		if m.status != "" {
			statusLine = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n"
		}

		return lipgloss.NewStyle().Padding(1).Render(statusLine + m.list.View())

	case txStateEditing, txStateCreating:
		if m.form == nil {
			return ""
		}

		return lipgloss.NewStyle().Padding(1).Render(
			m.txInfoView() + "\n" + m.form.View(),
		)
	}

	return ""
}

func (m TransfersModel) txInfoView() string {
	title := "New transfer"

	if m.selectedTx != nil {
		code := ""
		if m.selectedTx.Asset != nil {
			code = m.selectedTx.Asset.Code
		}

		title = fmt.Sprintf("Date: %s  |  Asset: %s  |  Recorded: %s",
			FormatDate(m.selectedTx.OccurredAt), code, FormatDate(m.selectedTx.CreatedAt))
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Render(title)
}

func (m *TransfersModel) refreshListItems() {
	items := make([]list.Item, len(m.txs))
	for i, tx := range m.txs {
		items[i] = txItem{tx: tx}
	}

	m.list.SetItems(items)
}

var errQuantity = errors.New("quantity must be a positive number")

func parseFormQuantity(s string) (decimal.Decimal, error) {
	q, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !q.IsPositive() {
		return decimal.Zero, errQuantity
	}

	return q, nil
}

// Messages

type loadTxsMsg struct {
	txs []*ledger.Transfer
	err error
}

type loadAssetsMsg struct {
	assets []*ledger.Asset
	err    error
}

func (m TransfersModel) loadAssetsCmd() tea.Cmd {
	svc := m.ledgerService

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		assets, err := svc.Assets(ctx)

		return loadAssetsMsg{assets: assets, err: err}
	}
}

func (m TransfersModel) loadTxsCmd() tea.Cmd {
	svc := m.ledgerService
	caller := m.Caller

	filter := ledger.TransferFilter{UserID: caller.UserID, Desc: true}
	if !m.allTime {
		start, end := m.startDate, m.endDate
		filter.Start = &start
		filter.End = &end
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := svc.List(ctx, caller, filter)

		return loadTxsMsg{txs: txs, err: err}
	}
}

type saveTxResultMsg struct {
	err error
}

func (m TransfersModel) saveTxCmd() tea.Cmd {
	svc := m.ledgerService
	caller := m.Caller
	id := m.selectedTx.ID
	f := *m.fields
	hadAttachment := m.selectedTx.Attachment != nil

	return func() tea.Msg {
		qty, err := parseFormQuantity(f.quantity)
		if err != nil {
			return saveTxResultMsg{err: err}
		}

		patch := ledger.Patch{
			Type:     &f.typ,
			Quantity: &qty,
			Note:     &f.note,
		}

		url := strings.TrimSpace(f.url)

		switch {
		case url != "":
			patch.AttachmentURL = &url
		case hadAttachment:
			patch.ClearAttachment = true
		}

		ctx, cancel := DbCtx()
		defer cancel()

		_, err = svc.Update(ctx, caller, id, patch)

		return saveTxResultMsg{err: err}
	}
}

func (m TransfersModel) createTxCmd() tea.Cmd {
	svc := m.ledgerService
	caller := m.Caller
	f := *m.fields

	return func() tea.Msg {
		qty, err := parseFormQuantity(f.quantity)
		if err != nil {
			return saveTxResultMsg{err: err}
		}

		occurredAt, err := time.Parse(time.DateOnly, strings.TrimSpace(f.occurredAt))
		if err != nil {
			return saveTxResultMsg{err: err}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		_, err = svc.Create(ctx, caller, ledger.CreateParams{
			UserID:        caller.UserID,
			AssetID:       f.assetID,
			Type:          f.typ,
			Quantity:      qty,
			OccurredAt:    occurredAt,
			Note:          strings.TrimSpace(f.note),
			AttachmentURL: strings.TrimSpace(f.url),
		})

		return saveTxResultMsg{err: err}
	}
}

// txItemDelegate renders items in the list.
type txItemDelegate struct{}

func (d txItemDelegate) Height() int                             { return 2 }
func (d txItemDelegate) Spacing() int                            { return 0 }
func (d txItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d txItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(txItem)
	if !ok {
		return
	}

	title := i.Title()
	desc := i.Description()

	if index == m.Index() {
		title = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render("> " + title)
	}

	fmt.Fprintf(w, "  %s\n", title)

	if desc == "" {
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "    %s\n", lipgloss.NewStyle().Faint(true).Render(desc))
}
