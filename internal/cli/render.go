package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/syssam/dbquery"
)

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	var file, name string
	var count bool
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the SQL of a statement",
		Long: `Render the SQL text and parameters of a statement without touching
the database.`,
		Example: `  # Render the only statement of a file
  dbquery render -f users.yaml

  # Render the counting variant of a named select
  dbquery render -f users.yaml --name adults --count`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, b, err := loadBuilder(file, name)
			if err != nil {
				return err
			}
			build := b.Statement
			if count {
				build = b.CountStatement
			}
			stmt, err := build()
			if err != nil {
				return err
			}
			renderStatement(cmd.OutOrStdout(), stmt)
			return nil
		},
	}
	addStatementFlags(cmd, &file, &name)
	cmd.Flags().BoolVar(&count, "count", false, "Render the counting variant of a select")
	return cmd
}

// renderStatement writes the SQL text followed by a table of its parameters.
func renderStatement(w io.Writer, stmt *dbquery.Statement) {
	_, _ = fmt.Fprintln(w, stmt.SQL)
	if len(stmt.Args) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Value", "Type"})
	for i, arg := range stmt.Args {
		t.AppendRow(table.Row{i + 1, formatValue(arg), fmt.Sprintf("%T", arg)})
	}
	t.Render()
}

// formatValue formats a value for display.
func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(v)
}
