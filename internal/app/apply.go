package app

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/tagctl/internal/dto"
	"github.com/blackwell-systems/tagctl/internal/tagutil"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newApplyCmd() *cobra.Command {
	var (
		filters    filterFlags
		add        string
		remove     string
		allMatches bool
	)

	cmd := &cobra.Command{
		Use:   "apply [item-id...]",
		Short: "Add and remove tags on items without the browser",
		Long: `Applies tag changes to the given item ids, or with --all-matches to
every item the filter flags select. One item failing does not stop the
rest; failures are listed per item and turn the exit status non-zero.

Examples:
  tagctl apply --add "Horror; Classic" 0a1b2c3d 4e5f6a7b
  tagctl apply --remove Watched --all-matches --with Watched
  tagctl apply --add 4K --all-matches --types Movie --title alien`,
		RunE: func(_ *cobra.Command, args []string) error {
			addTags := tagutil.Normalize(add)
			removeTags := tagutil.Normalize(remove)
			if len(addTags) == 0 && len(removeTags) == 0 {
				return fmt.Errorf("nothing to change: pass --add and/or --remove")
			}

			if allMatches && len(args) > 0 {
				return fmt.Errorf("--all-matches and explicit item ids are mutually exclusive")
			}
			if allMatches && !filters.active() {
				return fmt.Errorf("--all-matches needs at least one filter flag")
			}
			if !allMatches && len(args) == 0 {
				return fmt.Errorf("no items given: pass item ids or --all-matches with a filter")
			}

			userID, err := requireUserID(filters.user)
			if err != nil {
				return err
			}

			stop, err := connect()
			if err != nil {
				return err
			}
			defer stop()

			ids := args
			if allMatches {
				req, err := filters.request()
				if err != nil {
					return err
				}
				ids, err = collectMatchIDs(req)
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					fmt.Println("No matches.")
					return nil
				}
			}

			changes := make([]dto.TagChange, 0, len(ids))
			for _, id := range ids {
				changes = append(changes, dto.TagChange{ID: id, Add: addTags, Remove: removeTags})
			}

			resp, err := gw.Apply(dto.ApplyRequest{UserID: userID, Changes: changes})
			if err != nil {
				return fmt.Errorf("apply failed: %w", err)
			}

			failed := 0
			for _, u := range resp.Updated {
				if u.Failed() {
					failed++
					fmt.Printf("  %s %s: %s\n", color.RedString("✗"), u.ID, strings.Join(u.Errors, "; "))
					continue
				}
				var delta []string
				for _, t := range u.Added {
					delta = append(delta, "+"+t)
				}
				for _, t := range u.Removed {
					delta = append(delta, "-"+t)
				}
				fmt.Printf("  %s %s: %s\n", color.GreenString("✓"), u.ID, strings.Join(delta, " "))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d items failed", failed, len(resp.Updated))
			}
			ok("Updated %d items", len(resp.Updated))
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVar(&add, "add", "", "Tags to add, comma or semicolon separated")
	cmd.Flags().StringVar(&remove, "remove", "", "Tags to remove")
	cmd.Flags().BoolVar(&allMatches, "all-matches", false, "Apply to every item the filter flags match")
	return cmd
}

// collectMatchIDs walks every result page for the filter and returns the
// matched ids in order.
func collectMatchIDs(req dto.SearchRequest) ([]string, error) {
	limit := dto.DefaultPageLimit
	req.Limit = &limit

	var ids []string
	for {
		req.StartIndex = len(ids)
		resp, err := gw.Search(req)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}
		for _, item := range resp.Items {
			ids = append(ids, item.ID)
		}
		if len(resp.Items) == 0 || len(ids) >= resp.Total() {
			return ids, nil
		}
	}
}
