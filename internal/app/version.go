package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

// appVersion is stamped from main at startup.
var appVersion = "dev"

// SetVersion records the build version printed by the version command.
func SetVersion(v string) {
	appVersion = v
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tagctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tagctl %s\n", appVersion)
		},
	}
}
