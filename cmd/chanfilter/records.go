package main

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/clarktrimble/sabot"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"chanfilter/condition"
	nt "chanfilter/entity"
	"chanfilter/filter"
	"chanfilter/screen"
	"chanfilter/style"
	"chanfilter/util"
)

func newCountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count <expression>...",
		Short: "Count records matching expressions and search ranges",
		RunE: func(cmd *cobra.Command, args []string) error {
			ap, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer ap.close()

			req, err := request(cmd, ap, args)
			if err != nil {
				return err
			}

			count, err := ap.counter.Count(cmd.Context(), req.Condition())
			if err != nil {
				return err
			}

			fmt.Println(humanize.Comma(int64(count)))
			return nil
		},
	}

	searchFlags(cmd, 0)
	return cmd
}

func newRecordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records <expression>...",
		Short: "Show records matching expressions and search ranges",
		RunE: func(cmd *cobra.Command, args []string) error {
			ap, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer ap.close()

			req, err := request(cmd, ap, args)
			if err != nil {
				return err
			}

			records, err := ap.store.Page(cmd.Context(), req.Condition(), req.Sorts, req.Page.Offset, req.Limit())
			if err != nil {
				return err
			}

			fmt.Println(renderRecords(ap.catalog.Channels(), records))
			return nil
		},
	}

	searchFlags(cmd, 20)
	return cmd
}

// renderRecords lays records out as a table, one column per channel
// holding data in the page.
func renderRecords(channels []nt.ChannelInfo, records []nt.Record) string {

	var headers []string
	var names []string
	for _, info := range channels {
		if !nt.IsMetadata(info.SystemName) && !present(records, info.SystemName) {
			continue
		}
		headers = append(headers, info.DisplayName())
		names = append(names, info.SystemName)
	}

	tbl := table.New().Headers(headers...)
	for _, rec := range records {
		row := make([]string, len(names))
		for i, name := range names {
			row[i] = rec.Get(name).String()
		}
		tbl.Row(row...)
	}

	style.StyleTable(tbl)
	tbl.StyleFunc(style.RowStyler(-2))

	footer := style.MutedStyle.Render(fmt.Sprintf("%s records", humanize.Comma(int64(len(records)))))
	return lipgloss.JoinVertical(lipgloss.Left, tbl.Render(), footer)
}

func present(records []nt.Record, name string) bool {
	for _, rec := range records {
		if rec.Get(name).Raw != nil {
			return true
		}
	}
	return false
}

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Browse records and edit filters interactively, printing the applied condition on exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			// the editor owns the terminal, so log to a file
			logFile := util.OpenLog(cfg.LogFile, logMode)
			defer util.CloseLog(logFile)
			lgr := &sabot.Sabot{Writer: logFile}

			ap, err := open(ctx, cfg, false, lgr)
			if err != nil {
				return err
			}
			defer ap.close()

			srts, err := sorts(cmd, ap)
			if err != nil {
				return err
			}

			sn, err := ap.session()
			if err != nil {
				return err
			}
			lgr.Info(ctx, "editing filters", "session", sn.ID, "records", ap.cfg.Records)

			// without records there is nothing to browse, only filters to edit
			var mdl tea.Model = filter.NewFilterPanel(ctx, sn, nil, lgr)
			if ap.store != nil {
				mdl = screen.New(ctx, sn, ap.store, ap.counter, srts, ap.store.Name(), lgr)
			}

			_, err = tea.NewProgram(mdl).Run()
			if err != nil {
				return err
			}

			data, err := condition.Marshal(sn.Compiled())
			if err != nil {
				return err
			}

			fmt.Println(string(data))
			return nil
		},
	}

	cmd.Flags().StringSlice("order", nil, "sort records by channel, as name or name:desc")
	return cmd
}
