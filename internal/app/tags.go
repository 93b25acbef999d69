package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/blackwell-systems/tagctl/internal/tagutil"
	"github.com/spf13/cobra"
)

const tagsRetryDelay = 2 * time.Second

func newTagsCmd() *cobra.Command {
	var (
		user    string
		library string
		types   string
		wait    bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List the tag catalog for a library",
		Long: `Prints every tag known to the library. A cold catalog may still be
warming on the proxy; --wait retries until it is ready.

Examples:
  tagctl tags
  tagctl tags --library 767bffe4f11c93ef34b805451a696a4e --wait
  tagctl tags --types Movie --json`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			userID, err := requireUserID(user)
			if err != nil {
				return err
			}
			libraryID, err := requireLibraryID(library)
			if err != nil {
				return err
			}

			stop, err := connect()
			if err != nil {
				return err
			}
			defer stop()

			result, err := gw.Tags(userID, libraryID, tagutil.Split(types))
			if err != nil {
				return fmt.Errorf("loading tags: %w", err)
			}
			if result.Pending {
				msg := result.Message
				if msg == "" {
					msg = "tag catalog is still warming"
				}
				if !wait {
					warn("%s (pass --wait to retry)", msg)
					return nil
				}
				warn("%s — retrying", msg)
				for result.Pending {
					time.Sleep(tagsRetryDelay)
					result, err = gw.Tags(userID, libraryID, tagutil.Split(types))
					if err != nil {
						return fmt.Errorf("loading tags: %w", err)
					}
				}
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result.TagsResponse)
			}

			if len(result.Tags) == 0 {
				fmt.Println("No tags found.")
				return nil
			}
			for _, tag := range result.Tags {
				fmt.Println("  " + tag)
			}
			fmt.Printf("\n%d tags", len(result.Tags))
			if result.Source != "" {
				fmt.Printf(" (via %s)", result.Source)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User id (default from config)")
	cmd.Flags().StringVar(&library, "library", "", "Library id (default from config)")
	cmd.Flags().StringVar(&types, "types", "", "Item types to draw tags from, comma separated")
	cmd.Flags().BoolVar(&wait, "wait", false, "Keep retrying while the catalog is warming")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
