package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newLibrariesCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "libraries",
		Short: "List the virtual folders on the Jellyfin server",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			stop, err := connect()
			if err != nil {
				return err
			}
			defer stop()

			libraries, err := gw.Libraries()
			if err != nil {
				return fmt.Errorf("listing libraries: %w", err)
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(libraries)
			}

			if len(libraries) == 0 {
				fmt.Println("No libraries found.")
				return nil
			}
			for _, lib := range libraries {
				name := lib.Name
				if lib.CollectionType != "" {
					name = fmt.Sprintf("%s (%s)", lib.Name, lib.CollectionType)
				}
				fmt.Printf("  %-32s %s\n", name, color.HiBlackString(lib.ID))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
