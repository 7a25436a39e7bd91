package table

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/pkg/errors"

	nt "chanfilter/entity"
	"chanfilter/message"
	"chanfilter/style"
)

// Todo: horizontal scroll when channels overflow the panel width

const (
	headerHeight = 2
	colWidth     = 14
	timeWidth    = 19
)

// TablePanel shows the records matching the applied filters a page at a
// time, one column per channel.
type TablePanel struct {
	selected int // Absolute position (0 to total-1) of selected record
	offset   int // Offset of page shown
	total    int // Records matching the applied filters

	width  int
	height int

	columns []column
	records []nt.Record
	table   *table.Table

	ctx    context.Context
	logger nt.Logger
}

type column struct {
	name   string
	header string
	width  int
}

func NewTablePanel(ctx context.Context, channels []nt.ChannelInfo, lgr nt.Logger) TablePanel {

	tbl := table.New()
	style.StyleTable(tbl)

	pnl := TablePanel{
		table:  tbl,
		ctx:    ctx,
		logger: lgr,
	}

	return pnl.setColumns(channels)
}

func (pnl TablePanel) Init() tea.Cmd {
	return nil
}

func (pnl TablePanel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case SizeMsg:
		pnl.width = msg.Width
		pnl.height = msg.Height
		return pnl, pnl.pageCmd()

	case ColumnsMsg:
		pnl = pnl.setColumns(msg.Channels)
		return pnl, pnl.pageCmd()

	case PageMsg:
		pnl.records = msg.Records
		pnl.total = msg.Count
		if pnl.selected >= pnl.total {
			pnl.selected = max(pnl.total-1, 0)
		}
		return pnl, pnl.selectedCmd()

	case ResetMsg:
		pnl.selected = 0
		pnl.offset = 0
		return pnl, pnl.pageCmd()

	case tea.KeyPressMsg:
		return pnl.HandleKey(msg.String())
	}

	return pnl, nil
}

// HandleKey moves the selection, paging as needed.
func (pnl TablePanel) HandleKey(key string) (tea.Model, tea.Cmd) {

	pageSize := pnl.PageSize()

	switch key {
	case "up", "k":
		if pnl.selected > 0 {
			pnl.selected--
		}

	case "down", "j":
		if pnl.selected < pnl.total-1 {
			pnl.selected++
		}

	case "pgup", "ctrl+u":
		pnl.selected = max(pnl.selected-pageSize, 0)

	case "pgdown", "ctrl+d":
		pnl.selected = max(min(pnl.selected+pageSize, pnl.total-1), 0)

	case "g":
		pnl.selected = 0

	case "G":
		pnl.selected = max(pnl.total-1, 0)

	default:
		return pnl, nil
	}

	// keep the selection on the page shown
	oldOffset := pnl.offset
	if pnl.selected < pnl.offset {
		pnl.offset = pnl.selected
	} else if pageSize > 0 && pnl.selected >= pnl.offset+pageSize {
		pnl.offset = pnl.selected - pageSize + 1
	}

	if pnl.offset != oldOffset {
		return pnl, pnl.pageCmd()
	}
	return pnl, pnl.selectedCmd()
}

func (pnl TablePanel) View() tea.View {
	return tea.NewView(pnl.Render())
}

// Render renders the current page.
func (pnl TablePanel) Render() string {

	pnl.table.StyleFunc(style.RowStyler(pnl.selectedRow()))

	pnl.table.ClearRows()
	for _, rec := range pnl.records {
		pnl.table.Row(pnl.row(rec)...)
	}

	if len(pnl.records) == 0 {
		return pnl.table.Render() + "\n" + style.MutedStyle.Render("no records match")
	}
	return pnl.table.Render()
}

// Selected returns the currently selected record.
func (pnl TablePanel) Selected() (rec nt.Record, err error) {

	idx := pnl.selectedRow()
	if idx < 0 || idx >= len(pnl.records) {
		err = errors.Errorf("index %d is out of bounds of %d records", idx, len(pnl.records))
		return
	}

	rec = pnl.records[idx]
	return
}

// Position returns the 1-indexed selected row and the total.
func (pnl TablePanel) Position() (int, int) {
	if pnl.total == 0 {
		return 0, 0
	}
	return pnl.selected + 1, pnl.total
}

// PageSize returns the number of rows that fit on panel
func (pnl TablePanel) PageSize() int {
	return pnl.height - headerHeight
}

// unexported

func (pnl TablePanel) selectedRow() int {
	return pnl.selected - pnl.offset
}

func (pnl TablePanel) pageCmd() tea.Cmd {

	size := pnl.PageSize()
	if size < 1 {
		return nil
	}

	offset := pnl.offset
	return func() tea.Msg {
		return message.GetPageMsg{Offset: offset, Size: size}
	}
}

func (pnl TablePanel) row(rec nt.Record) []string {
	row := make([]string, len(pnl.columns))
	for i, col := range pnl.columns {
		row[i] = truncate(rec.Get(col.name).String(), col.width)
	}
	return row
}

// setColumns shows the fixed fields then each channel whose data fits a
// cell.
func (pnl TablePanel) setColumns(channels []nt.ChannelInfo) TablePanel {

	columns := []column{}
	for _, info := range channels {
		if info.DataType == nt.Image || info.DataType == nt.Waveform {
			continue
		}

		width := colWidth
		if info.DataType == nt.Date {
			width = timeWidth
		}

		columns = append(columns, column{
			name:   info.SystemName,
			header: truncate(info.DisplayName(), width),
			width:  width,
		})
	}

	headers := make([]string, 0, len(columns))
	for _, col := range columns {
		headers = append(headers, fmt.Sprintf("%-*s", col.width+1, col.header))
	}

	pnl.table.Headers(headers...)
	pnl.columns = columns
	pnl.records = nil // records we had no longer match columns

	return pnl
}

// help

func truncate(in string, width int) string {

	runes := []rune(in)
	if len(runes) <= width {
		return in
	}

	ellipsis := style.MutedStyle.Render("…")
	return string(runes[:width-1]) + ellipsis
}
