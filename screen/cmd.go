package screen

import (
	tea "charm.land/bubbletea/v2"

	"chanfilter/detail"
	"chanfilter/message"
	"chanfilter/table"
)

// getPage gets a page of records matching the applied filters
func (m Model) getPage(offset, size int) tea.Cmd {

	ctx, store, counter, cond := m.ctx, m.store, m.counter, m.session.Compiled()

	return func() tea.Msg {

		count, err := counter.Count(ctx, cond)
		if err != nil {
			return message.ErrorMsg{Err: err}
		}

		records, err := store.Page(ctx, cond, m.sorts, offset, size)
		if err != nil {
			return message.ErrorMsg{Err: err}
		}

		return table.PageMsg{Records: records, Count: count}
	}
}

// showRecord hands the selected record to the detail panel
func showRecord(msg message.SelectedMsg) tea.Cmd {
	return func() tea.Msg {
		return detail.RecordMsg{Record: msg.Record}
	}
}
