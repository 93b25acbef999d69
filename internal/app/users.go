package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List the accounts on the Jellyfin server",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			stop, err := connect()
			if err != nil {
				return err
			}
			defer stop()

			users, err := gw.Users()
			if err != nil {
				return fmt.Errorf("listing users: %w", err)
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(users)
			}

			if len(users) == 0 {
				fmt.Println("No users found.")
				return nil
			}
			for _, u := range users {
				fmt.Printf("  %-24s %s\n", u.Name, color.HiBlackString(u.ID))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
