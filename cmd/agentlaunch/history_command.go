package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"agentlaunch/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded launches",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No launches recorded yet.")
				return nil
			}

			headers := []string{"ID", "When", "Name", "Symbol", "Status", "Post", "Result"}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					strconv.FormatInt(entry.ID, 10),
					formatWhen(entry.CreatedAt),
					entry.Name,
					entry.Symbol,
					entry.Status,
					entry.PostID,
					historyResult(entry),
				})
			}

			if isTerminal(os.Stdout) {
				fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}))
			} else {
				fmt.Fprintln(out, strings.Join(headers, "\t"))
				for _, row := range rows {
					fmt.Fprintln(out, strings.Join(row, "\t"))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show (0 for all)")
	return cmd
}

func formatWhen(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format("2006-01-02 15:04")
}

func historyResult(entry journal.Entry) string {
	switch entry.Status {
	case journal.StatusLaunched:
		return entry.ClankerURL
	case journal.StatusFailed:
		return entry.Error
	default:
		return ""
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
