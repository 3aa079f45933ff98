package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/gallery/internal/gallery"
)

type listFlags struct {
	query    string
	tags     []string
	category string
	sort     string
	limit    int
	asJSON   bool
}

func newListCmd(opts *options) *cobra.Command {
	var f listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List photos, filtered and sorted the way the gallery page does",
		Example: `  galleryctl list --tag beach --sort oldest
  galleryctl list -q sunset --category favourites --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			favs, release, err := opts.loadFavourites(cmd, c)
			if err != nil {
				return err
			}
			defer release()

			photos, err := c.ListPhotos(cmd.Context())
			if err != nil {
				return err
			}

			sel := gallery.Selection{
				Query:    f.query,
				Tags:     gallery.NormalizeTags(f.tags),
				Category: gallery.ParseCategory(f.category),
				Sort:     gallery.ParseSortMode(f.sort),
			}
			filtered := gallery.Derive(photos, sel, favs)
			if f.limit > 0 && f.limit < len(filtered) {
				filtered = filtered[:f.limit]
			}

			out := cmd.OutOrStdout()
			if f.asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(filtered)
			}
			return printPhotos(out, filtered, favs)
		},
	}

	cmd.Flags().StringVarP(&f.query, "query", "q", "", "Match title or tag, case-insensitive")
	cmd.Flags().StringSliceVarP(&f.tags, "tag", "t", nil, "Require tag (repeatable, all must match)")
	cmd.Flags().StringVarP(&f.category, "category", "c", "all", "all or favourites")
	cmd.Flags().StringVar(&f.sort, "sort", "newest", "newest, oldest or title")
	cmd.Flags().IntVarP(&f.limit, "limit", "n", 0, "Show at most n photos")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print JSON")

	return cmd
}

func printPhotos(w io.Writer, photos []gallery.Photo, favs gallery.Membership) error {
	if len(photos) == 0 {
		_, err := fmt.Fprintln(w, "No photos found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FAV\tID\tTITLE\tTAKEN\tTAGS")
	for _, p := range photos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", favMark(favs.Has(p.ID)), p.ID, p.Title, formatDate(p), strings.Join(p.Tags, ", "))
	}
	return tw.Flush()
}

func favMark(on bool) string {
	if on {
		return "*"
	}
	return ""
}

func formatDate(p gallery.Photo) string {
	if p.TakenAt.IsZero() {
		return "-"
	}
	return p.TakenAt.Format("2006-01-02")
}
