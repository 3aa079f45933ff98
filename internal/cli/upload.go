package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/gallery/internal/client"
)

func newUploadCmd(opts *options) *cobra.Command {
	var name string
	var tags []string

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a photo",
		Long: `Uploads FILE to the gallery. The display name defaults to the file name.
After a successful upload the listing is fetched again and the new total
printed.`,
		Example: `  galleryctl upload ~/Pictures/beach.jpg --name "Beach at dusk" --tag sea`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			c := opts.client()
			photo, err := c.UploadPhoto(cmd.Context(), client.Upload{
				Filename:    filepath.Base(path),
				DisplayName: name,
				Tags:        tags,
				Body:        f,
			})
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Uploaded %s (%s)\n", photo.Title, photo.ID)

			photos, err := c.ListPhotos(cmd.Context())
			if err != nil {
				return fmt.Errorf("refresh listing: %w", err)
			}
			fmt.Fprintf(out, "%d photos in gallery\n", len(photos))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Tag (repeatable)")

	return cmd
}
