// Package cli implements galleryctl, a terminal client for the gallery API.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/example/gallery/internal/client"
	"github.com/example/gallery/internal/favstore"
	"github.com/example/gallery/internal/gallery"
)

const (
	FavouritesLocal  = "local"
	FavouritesServer = "server"
)

type options struct {
	server        string
	favourites    string
	favouritesDir string
	verbose       bool
}

func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "galleryctl",
		Short: "Browse, search and upload to a photo gallery from the terminal",
		Long: `galleryctl talks to a running gallery server.

Favourites are kept on this machine by default (--favourites local) or on the
server (--favourites server).`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			if !cmd.Flags().Changed("server") {
				if v := os.Getenv("GALLERY_URL"); v != "" {
					opts.server = v
				}
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.server, "server", "s", "http://localhost:8080", "Gallery server base URL (env GALLERY_URL)")
	cmd.PersistentFlags().StringVar(&opts.favourites, "favourites", FavouritesLocal, "Where favourites live: local or server")
	cmd.PersistentFlags().StringVar(&opts.favouritesDir, "favourites-dir", "", "Directory for local favourites (default: user config dir)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log requests to stderr")

	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newUploadCmd(opts))
	cmd.AddCommand(newFavCmd(opts))
	cmd.AddCommand(newBrowseCmd(opts))

	return cmd
}

func (o *options) logger() *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (o *options) client() *client.Client {
	return client.New(o.server, client.WithLogger(o.logger()), client.WithUserAgent("galleryctl"))
}

// loadFavourites opens the favourites set the flags select. The returned
// func releases the backing store.
func (o *options) loadFavourites(cmd *cobra.Command, c *client.Client) (*gallery.Favourites, func(), error) {
	ctx := cmd.Context()
	switch o.favourites {
	case FavouritesServer:
		return gallery.LoadFavourites(ctx, NewServerKV(c), ""), func() {}, nil
	case FavouritesLocal, "":
		dir := o.favouritesDir
		if dir == "" {
			base, err := os.UserConfigDir()
			if err != nil {
				return nil, nil, fmt.Errorf("locate config dir: %w", err)
			}
			dir = filepath.Join(base, "gallery")
		}
		store, err := favstore.NewFile(dir)
		if err != nil {
			return nil, nil, err
		}
		return gallery.LoadFavourites(ctx, store, ""), func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown favourites location %q (want local or server)", o.favourites)
	}
}
