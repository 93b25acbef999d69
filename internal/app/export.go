package app

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var (
		filters filterFlags
		out     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write matching items to a CSV file",
		Long: `Exports every item the filter flags match as CSV with id, type, name,
path, and tags columns. Filters work exactly as in search; pagination
does not apply.

Examples:
  tagctl export
  tagctl export --with Horror -o horror.csv`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			req, err := filters.request()
			if err != nil {
				return err
			}

			stop, err := connect()
			if err != nil {
				return err
			}
			defer stop()

			data, err := gw.Export(req)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}

			rows := bytes.Count(data, []byte("\n")) - 1
			if rows < 0 {
				rows = 0
			}
			ok("Wrote %s (%d items)", out, rows)
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVarP(&out, "output", "o", "tags_export.csv", "Output file path")
	return cmd
}
