package detail

import (
	"encoding/json"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	nt "chanfilter/entity"
	"chanfilter/style"
)

// DetailPanel shows every channel of one record.
type DetailPanel struct {
	channels []nt.ChannelInfo

	record       *nt.Record
	contentLines []string // Rendered content split into lines (cached)

	width        int
	height       int
	scrollOffset int
}

func NewDetailPanel(channels []nt.ChannelInfo) DetailPanel {
	return DetailPanel{
		channels: channels,
	}
}

func (pnl DetailPanel) Init() tea.Cmd {
	return nil
}

func (pnl DetailPanel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {

	switch msg := msg.(type) {

	case RecordMsg:
		pnl.record = &msg.Record
		pnl.computeContentLines()
		pnl.scrollOffset = 0

	case SizeMsg:
		pnl.width = msg.Width
		pnl.height = msg.Height
		pnl.scrollOffset = 0

	case ColumnsMsg:
		pnl.channels = msg.Channels
		pnl.computeContentLines()

	case tea.KeyPressMsg:
		return pnl.HandleKey(msg.String())
	}

	return pnl, nil
}

// HandleKey scrolls the record.
func (pnl DetailPanel) HandleKey(key string) (tea.Model, tea.Cmd) {

	switch key {
	case "up", "k":
		if pnl.scrollOffset > 0 {
			pnl.scrollOffset--
		}

	case "down", "j":
		if pnl.height > 0 && len(pnl.contentLines) > pnl.height {
			if pnl.scrollOffset < len(pnl.contentLines)-pnl.height {
				pnl.scrollOffset++
			}
		}
	}

	return pnl, nil
}

func (pnl DetailPanel) View() tea.View {
	return tea.NewView(pnl.Render())
}

// Render renders the visible part of the record.
func (pnl DetailPanel) Render() string {
	if pnl.contentLines == nil {
		return style.MutedStyle.Render("no record selected")
	}

	visibleLines := pnl.contentLines[pnl.scrollOffset:]
	if pnl.height > 0 && len(visibleLines) > pnl.height {
		visibleLines = visibleLines[:pnl.height]
	}

	return strings.Join(visibleLines, "\n")
}

// unexported

// computeContentLines lays out channels in catalog order, skipping those
// the record has no data for.
func (pnl *DetailPanel) computeContentLines() {

	if pnl.record == nil {
		pnl.contentLines = nil
		return
	}

	lines := []string{style.HeaderStyle.Render("record " + pnl.record.Id)}
	for _, info := range pnl.channels {
		val := pnl.record.Get(info.SystemName)
		if val.Raw == nil {
			continue
		}

		label := style.ChannelStyle.Render(info.DisplayName())
		kind := style.MutedStyle.Render(fmt.Sprintf("(%s)", info.DataType))

		text, multi := format(val)
		if !multi {
			lines = append(lines, fmt.Sprintf("%s %s: %s", label, kind, text))
			continue
		}

		lines = append(lines, fmt.Sprintf("%s %s:", label, kind))
		for _, ln := range strings.Split(text, "\n") {
			lines = append(lines, "  "+ln)
		}
	}

	pnl.contentLines = lines
}

// format renders structured values, such as image or waveform data, as
// indented JSON.
func format(val nt.Value) (text string, multi bool) {

	switch val.Raw.(type) {
	case map[string]any, []any:
		data, err := json.MarshalIndent(val.Raw, "", "  ")
		if err != nil {
			return "error formatting value: " + err.Error(), false
		}
		return string(data), true
	}

	return val.String(), false
}
