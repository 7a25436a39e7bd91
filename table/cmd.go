package table

import (
	tea "charm.land/bubbletea/v2"

	"chanfilter/message"
)

func (pnl TablePanel) selectedCmd() tea.Cmd {

	rec, err := pnl.Selected()
	if err != nil {
		// nothing on the page yet
		return nil
	}

	row := pnl.selected + 1

	return func() tea.Msg {
		return message.SelectedMsg{
			Row:    row,
			Record: rec,
		}
	}
}
