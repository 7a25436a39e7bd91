// Package screen is the records browser: a table of the records matching
// the applied filters, a detail view of one record and the filter dialog.
package screen

import (
	"context"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"chanfilter"
	"chanfilter/detail"
	nt "chanfilter/entity"
	"chanfilter/filter"
	"chanfilter/guard"
	"chanfilter/message"
	"chanfilter/table"
)

const (
	footerHeight = 2
)

// Model is the bubbletea model for the records browser.
type Model struct {
	store   chanfilter.Store
	counter guard.Estimator
	session *chanfilter.Session
	sorts   []nt.Sort
	name    string

	logger      nt.Logger
	ctx         context.Context
	errorString string

	current Screen
	under   Screen // Screen beneath the filter dialog

	tablePanel  table.TablePanel
	detailPanel detail.DetailPanel
	filterPanel filter.FilterPanel

	width  int
	height int
}

// New creates a browser over store showing records matching the session's
// applied filters, ordered by sorts. Counts go through counter, typically a
// guard.Shared around store. name is shown in the footer.
func New(ctx context.Context, sn *chanfilter.Session, store chanfilter.Store, counter guard.Estimator, sorts []nt.Sort, name string, lgr nt.Logger) Model {

	channels := sn.Catalog().Channels()

	return Model{
		store:       store,
		counter:     counter,
		session:     sn,
		sorts:       sorts,
		name:        name,
		logger:      lgr,
		ctx:         ctx,
		current:     TableScreen,
		tablePanel:  table.NewTablePanel(ctx, channels, lgr),
		detailPanel: detail.NewDetailPanel(channels),
		filterPanel: filter.NewFilterPanel(ctx, sn, counter, lgr).Embedded(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.filterPanel.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {

	switch msg := msg.(type) {

	case message.GetPageMsg:
		return m, m.getPage(msg.Offset, msg.Size)

	case message.SelectedMsg:
		return m, showRecord(msg)

	case message.AppliedMsg:
		m.logger.Info(m.ctx, "showing records for applied filters", "session", m.session.ID)
		return m.updateTablePanel(table.ResetMsg{})

	case message.ErrorMsg:
		m.logger.Error(m.ctx, "error msg", msg.Err)
		m.errorString = msg.Err.Error()
		return m.updateFilterPanel(msg)

	case message.CountMsg, filter.EstimateMsg:
		return m.updateFilterPanel(msg)

	case table.PageMsg:
		return m.updateTablePanel(msg)

	case detail.RecordMsg:
		return m.updateDetailPanel(msg)

	case tea.WindowSizeMsg:
		return m.resize(msg.Width, msg.Height)

	case tea.KeyPressMsg:
		return m.HandleKey(msg.String())
	}

	return m, nil
}

// HandleKey switches screens or hands the key to the current panel.
func (m Model) HandleKey(key string) (tea.Model, tea.Cmd) {

	m.errorString = ""

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.current {
	case FilterScreen:
		if key == "esc" {
			m.current = m.under
			return m, nil
		}
		mdl, cmd := m.filterPanel.HandleKey(key)
		m.filterPanel = mdl.(filter.FilterPanel)
		return m, cmd

	case DetailScreen:
		switch key {
		case "q":
			return m, tea.Quit
		case "esc", "left", "h":
			m.current = TableScreen
			return m, nil
		case "f", "/":
			return m.openFilter(), nil
		}
		mdl, cmd := m.detailPanel.HandleKey(key)
		m.detailPanel = mdl.(detail.DetailPanel)
		return m, cmd
	}

	switch key {
	case "q", "esc":
		return m, tea.Quit
	case "right", "l", "enter":
		m.current = DetailScreen
		return m, nil
	case "f", "/":
		return m.openFilter(), nil
	}

	mdl, cmd := m.tablePanel.HandleKey(key)
	m.tablePanel = mdl.(table.TablePanel)
	return m, cmd
}

// Current returns the screen being shown.
func (m Model) Current() Screen {
	return m.current
}

func (m Model) View() tea.View {
	if m.width == 0 {
		return tea.NewView("Loading...")
	}

	var content string
	switch m.current {
	case DetailScreen:
		content = m.detailPanel.Render()
	default:
		content = m.tablePanel.Render()
	}

	canvas := lipgloss.NewCanvas(m.width, m.height)
	canvas.Compose(lipgloss.NewLayer("screen", content))

	if m.current == FilterScreen {
		dialog := m.filterPanel.Render()
		x, y := m.filterPanel.Position(dialog)
		canvas.Compose(lipgloss.NewLayer("filter", dialog).X(x).Y(y))
	}

	current, total := m.tablePanel.Position()
	footer := RenderFooter(current, total, m.name, m.width)
	if m.errorString != "" {
		footer = m.errorString
	}
	canvas.Compose(lipgloss.NewLayer("footer", footer).Y(m.height - footerHeight))

	view := tea.NewView(canvas)
	view.AltScreen = true
	return view
}

// unexported

func (m Model) openFilter() Model {
	m.under = m.current
	m.current = FilterScreen
	return m
}

func (m Model) resize(width, height int) (tea.Model, tea.Cmd) {

	m.width = width
	m.height = height
	body := max(height-footerHeight, 0)

	var cmd1, cmd2, cmd3 tea.Cmd
	m, cmd1 = m.updateTablePanel(table.SizeMsg{Width: width, Height: body})
	m, cmd2 = m.updateDetailPanel(detail.SizeMsg{Width: width, Height: body})
	m, cmd3 = m.updateFilterPanel(filter.SizeMsg{Width: width, Height: body})

	return m, tea.Batch(cmd1, cmd2, cmd3)
}

func (m Model) updateTablePanel(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.tablePanel.Update(msg)
	m.tablePanel = mdl.(table.TablePanel)
	return m, cmd
}

func (m Model) updateDetailPanel(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.detailPanel.Update(msg)
	m.detailPanel = mdl.(detail.DetailPanel)
	return m, cmd
}

func (m Model) updateFilterPanel(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.filterPanel.Update(msg)
	m.filterPanel = mdl.(filter.FilterPanel)
	return m, cmd
}
