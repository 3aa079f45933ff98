package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFavCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fav",
		Short: "Show or change favourites",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print favourited photo ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			favs, release, err := opts.loadFavourites(cmd, opts.client())
			if err != nil {
				return err
			}
			defer release()
			for _, id := range favs.IDs() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle ID...",
		Short: "Flip the favourite mark on each photo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			favs, release, err := opts.loadFavourites(cmd, opts.client())
			if err != nil {
				return err
			}
			defer release()
			for _, id := range args {
				on, err := favs.Toggle(cmd.Context(), id)
				if err != nil {
					return err
				}
				state := "removed from"
				if on {
					state = "added to"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s favourites\n", id, state)
			}
			return nil
		},
	})

	return cmd
}
