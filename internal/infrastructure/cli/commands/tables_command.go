package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/sqlchat/internal/app"
)

// NewTablesCommand lists the tables the agent is allowed to see.
func NewTablesCommand(container *app.Container) *cobra.Command {
	var schema bool

	cmd := &cobra.Command{
		Use:   "tables [table...]",
		Short: "List visible tables, or print their schema with --schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Catalog == nil {
				return errors.New(ErrCatalogUnavailable)
			}
			if schema {
				return printSchema(cmd, cmd.OutOrStdout(), container, args)
			}
			return listTables(cmd, cmd.OutOrStdout(), container)
		},
	}

	cmd.Flags().BoolVar(&schema, "schema", false, "Print schema and sample rows")
	return cmd
}

func listTables(cmd *cobra.Command, out io.Writer, container *app.Container) error {
	tables, err := container.Catalog.ListTables(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	if len(tables) == 0 {
		fmt.Fprintln(out, MsgNoTablesVisible)
		return nil
	}
	for _, table := range tables {
		fmt.Fprintln(out, table)
	}
	return nil
}

func printSchema(cmd *cobra.Command, out io.Writer, container *app.Container, tables []string) error {
	schema, err := container.Catalog.GetSchema(cmd.Context(), tables)
	if err != nil {
		return fmt.Errorf("failed to describe tables: %w", err)
	}
	fmt.Fprintln(out, schema)
	return nil
}
