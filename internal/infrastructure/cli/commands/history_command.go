package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/sqlchat/internal/app"
	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/infrastructure/history"
)

const previewWidth = 60

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded questions and their SQL",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(container),
		newHistoryExportCommand(container),
		newHistoryClearCommand(container),
	)

	return historyCmd
}

func newHistoryListCommand(container *app.Container) *cobra.Command {
	var (
		limit  int
		search string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent questions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.HistoryStore == nil {
				return errors.New(ErrHistoryStoreUnavailable)
			}
			records, err := container.HistoryStore.Records(cmd.Context(), limit, search)
			if err != nil {
				return fmt.Errorf("failed to retrieve history records: %w", err)
			}
			listHistoryEntries(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryLimit, "Max entries to show")
	cmd.Flags().StringVar(&search, "search", "", "Only show entries containing this keyword")
	return cmd
}

func newHistoryExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path|->",
		Short: "Export every record as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.HistoryStore == nil {
				return errors.New(ErrHistoryStoreUnavailable)
			}
			out := cmd.OutOrStdout()
			if args[0] != "-" {
				file, err := os.OpenFile(args[0], os.O_CREATE|os.O_TRUNC|os.O_WRONLY, domain.SecureFilePermissions)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer file.Close()
				out = file
			}
			n, err := history.ExportJSONL(cmd.Context(), container.HistoryStore, out)
			if err != nil {
				return fmt.Errorf("failed to export history: %w", err)
			}
			if args[0] != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s records to %s\n", humanize.Comma(int64(n)), args[0])
			}
			return nil
		},
	}
}

func newHistoryClearCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete local history (file and sqlite sinks only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.HistoryStore == nil {
				return errors.New(ErrHistoryStoreUnavailable)
			}
			clearer, ok := container.HistoryStore.(interface{ Clear() error })
			if !ok {
				return fmt.Errorf("history at %s cannot be cleared from the CLI", container.HistoryStore.Location())
			}
			if err := clearer.Clear(); err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", container.HistoryStore.Location())
			return nil
		},
	}
}

func listHistoryEntries(out io.Writer, records []domain.QueryRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return
	}
	for _, rec := range records {
		fmt.Fprintf(out, "%s | %s | %s | %.1fs | %s\n",
			humanize.Time(rec.StartTime),
			rec.UserName,
			preview(rec.OriginalQuestion),
			rec.ElapsedSeconds,
			preview(rec.SQLQuery))
	}
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= previewWidth {
		return text
	}
	return text[:previewWidth-3] + "..."
}
