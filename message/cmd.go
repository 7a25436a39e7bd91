package message

import (
	"context"

	tea "charm.land/bubbletea/v2"

	nt "chanfilter/entity"
	"chanfilter/guard"
)

// ErrorCmd returns a command carrying err
func ErrorCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Err: err}
	}
}

// CountCmd returns a command to count records matching cond
func CountCmd(ctx context.Context, est guard.Estimator, cond nt.Condition) tea.Cmd {
	return func() tea.Msg {
		count, err := est.Count(ctx, cond)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return CountMsg{Count: count}
	}
}
