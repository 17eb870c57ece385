package cmds

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/dbchat/pkg/results"
)

// NewExportCommand normalizes a tool-output payload into a table and writes it
// out as CSV or JSON. Search and sort apply before export; pagination never
// does.
func NewExportCommand() *cobra.Command {
	var (
		format     string
		query      string
		sortColumn string
		sortDir    string
		hidden     []string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "export <result.json>",
		Short: "Export a tabular tool result as CSV or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "export: read result file")
			}
			table, ok := results.Normalize(raw)
			if !ok {
				return errors.New("export: input is not a tabular result")
			}

			dir := results.SortNone
			switch sortDir {
			case "", "none":
			case "asc":
				dir = results.SortAsc
			case "desc":
				dir = results.SortDesc
			default:
				return errors.Errorf("export: unknown sort direction %q", sortDir)
			}

			processed := results.Process(table, results.Params{
				Query:         query,
				SortColumn:    sortColumn,
				SortDirection: dir,
				HiddenColumns: hidden,
			})

			var out []byte
			switch format {
			case "csv":
				out, err = results.ExportCSV(processed.VisibleColumns, processed.Rows)
			case "json":
				out, err = results.ExportJSON(processed.VisibleColumns, processed.Rows)
			default:
				return errors.Errorf("export: unknown format %q", format)
			}
			if err != nil {
				return err
			}

			if outPath == "" {
				fmt.Fprint(cmd.OutOrStdout(), string(out))
				return nil
			}
			if err := os.WriteFile(outPath, out, 0o644); err != nil {
				return errors.Wrap(err, "export: write output file")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "output format (csv, json)")
	cmd.Flags().StringVar(&query, "query", "", "substring filter applied before export")
	cmd.Flags().StringVar(&sortColumn, "sort-column", "", "column to sort by")
	cmd.Flags().StringVar(&sortDir, "sort-dir", "", "sort direction (asc, desc)")
	cmd.Flags().StringSliceVar(&hidden, "hide", nil, "columns to exclude from the export")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")
	return cmd
}
