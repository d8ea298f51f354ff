package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/syssam/dbquery"
	"github.com/syssam/dbquery/dialect/sql"
)

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	var file, name string
	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Execute a statement against the database",
		Long: `Execute a statement against the configured database.

Selects print the selected page as a table followed by the total number
of matching rows. Inserts, updates and deletes print the number of
affected rows.`,
		Example: `  # Run a select on a SQLite file
  dbquery exec -f users.yaml --name adults --dsn app.db

  # Allow a delete without a where clause
  dbquery exec -f purge.yaml --deny-unfiltered=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, b, err := loadBuilder(file, name)
			if err != nil {
				return err
			}
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			cmdCtx.Logger.Debug("executing statement", "statement", s.String(), "op", b.Op())
			p := message.NewPrinter(language.English)
			w := cmd.OutOrStdout()
			if b.Op() != dbquery.OpSelect {
				res, err := cmdCtx.Client.Exec(cmd.Context(), b)
				if err != nil {
					return err
				}
				n, err := res.RowsAffected()
				if err != nil {
					return fmt.Errorf("failed to read affected rows: %w", err)
				}
				_, _ = p.Fprintf(w, "%d rows affected\n", n)
				return nil
			}

			var (
				columns []string
				results []map[string]any
			)
			total, err := cmdCtx.Client.Page(cmd.Context(), b, func(rows *sql.Rows) error {
				var err error
				columns, results, err = sql.ScanMaps(rows)
				return err
			})
			if err != nil {
				return err
			}
			renderRows(w, columns, results)
			_, _ = p.Fprintf(w, "%d of %d rows\n", len(results), total)
			return nil
		},
	}
	addStatementFlags(cmd, &file, &name)
	return cmd
}

// renderRows writes the rows as a table.
func renderRows(w io.Writer, columns []string, results []map[string]any) {
	if len(results) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	t.AppendHeader(header)
	for _, result := range results {
		row := make(table.Row, len(columns))
		for i, col := range columns {
			row[i] = formatValue(result[col])
		}
		t.AppendRow(row)
	}
	t.Render()
}
