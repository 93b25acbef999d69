package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/blackwell-systems/tagctl/internal/dto"
	"github.com/blackwell-systems/tagctl/internal/tagutil"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// filterFlags is the query surface shared by search, export, and apply
// --all-matches. The strings mirror the browser's filter bar.
type filterFlags struct {
	user          string
	library       string
	title         string
	types         string
	with          string
	without       string
	noCollections bool
	sortBy        string
	order         string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.user, "user", "", "User id (default from config)")
	cmd.Flags().StringVar(&f.library, "library", "", "Library id (default from config)")
	cmd.Flags().StringVar(&f.title, "title", "", "Title substring filter")
	cmd.Flags().StringVar(&f.types, "types", "", "Item types, comma separated (e.g. Movie,Series)")
	cmd.Flags().StringVar(&f.with, "with", "", "Only items carrying all of these tags")
	cmd.Flags().StringVar(&f.without, "without", "", "Only items carrying none of these tags")
	cmd.Flags().BoolVar(&f.noCollections, "no-collections", false, "Exclude box sets and collection folders")
	cmd.Flags().StringVar(&f.sortBy, "sort", "name", "Sort field: name or released")
	cmd.Flags().StringVar(&f.order, "order", "asc", "Sort order: asc or desc")
}

// active reports whether any narrowing filter is set.
func (f *filterFlags) active() bool {
	return f.title != "" || f.types != "" || f.with != "" || f.without != "" || f.noCollections
}

func (f *filterFlags) request() (dto.SearchRequest, error) {
	userID, err := requireUserID(f.user)
	if err != nil {
		return dto.SearchRequest{}, err
	}
	libraryID, err := requireLibraryID(f.library)
	if err != nil {
		return dto.SearchRequest{}, err
	}

	req := dto.SearchRequest{
		UserID:             userID,
		LibraryID:          libraryID,
		Types:              tagutil.Split(f.types),
		TitleQuery:         f.title,
		IncludeTags:        f.with,
		ExcludeTags:        f.without,
		ExcludeCollections: f.noCollections,
	}

	switch f.sortBy {
	case "", "name":
		req.SortBy = dto.SortByName
	case "released":
		req.SortBy = dto.SortByPremiere
	default:
		return dto.SearchRequest{}, fmt.Errorf("unknown sort field %q (use name or released)", f.sortBy)
	}
	switch f.order {
	case "", "asc":
		req.SortOrder = dto.SortAscending
	case "desc":
		req.SortOrder = dto.SortDescending
	default:
		return dto.SearchRequest{}, fmt.Errorf("unknown sort order %q (use asc or desc)", f.order)
	}
	return req, nil
}

func newSearchCmd() *cobra.Command {
	var (
		filters filterFlags
		offset  int
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search library items and print the matches",
		Long: `Runs one filtered query against the library and prints the matching
items without entering the interactive browser.

Examples:
  tagctl search --title alien
  tagctl search --with "Horror; Classic" --without Watched
  tagctl search --types Movie --sort released --order desc --json`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			req, err := filters.request()
			if err != nil {
				return err
			}
			req.StartIndex = offset
			req.Limit = &limit

			stop, err := connect()
			if err != nil {
				return err
			}
			defer stop()

			resp, err := gw.Search(req)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}

			if len(resp.Items) == 0 {
				fmt.Println("No matches.")
				return nil
			}
			for _, item := range resp.Items {
				name := item.Name
				if item.ProductionYear != 0 {
					name = fmt.Sprintf("%s (%d)", name, item.ProductionYear)
				}
				fmt.Printf("  %-48s %-10s %s\n",
					name,
					color.HiBlackString(item.Type),
					color.CyanString(tagutil.Join(item.Tags)),
				)
			}
			fmt.Printf("\n%d of %d matches\n", len(resp.Items), resp.Total())
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().IntVar(&offset, "offset", 0, "First match to return")
	cmd.Flags().IntVar(&limit, "limit", dto.DefaultPageLimit, "Maximum matches to return")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
