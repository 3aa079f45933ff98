package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/gallery/internal/client"
	"github.com/example/gallery/internal/gallery"
)

type photoAPI interface {
	ListPhotos(ctx context.Context) ([]gallery.Photo, error)
	UploadPhoto(ctx context.Context, u client.Upload) (*gallery.Photo, error)
}

func newBrowseCmd(opts *options) *cobra.Command {
	var pageSize, increment int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Interactive gallery session",
		Long: `Starts a line driven gallery session on stdin. Type "help" for commands.
While a photo is open, left/right/esc (or h/l/q) navigate like the arrow
and Escape keys on the web page.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			favs, release, err := opts.loadFavourites(cmd, c)
			if err != nil {
				return err
			}
			defer release()

			b, err := NewBrowser(cmd.Context(), c, favs, cmd.OutOrStdout(), gallery.Options{
				PageSize:      pageSize,
				PageIncrement: increment,
			})
			if err != nil {
				return err
			}
			defer b.Close()
			return b.Run(cmd.Context(), cmd.InOrStdin())
		},
	}

	cmd.Flags().IntVar(&pageSize, "page-size", gallery.DefaultPageSize, "Photos shown before the first \"more\"")
	cmd.Flags().IntVar(&increment, "increment", gallery.DefaultPageIncrement, "Photos added by each \"more\"")

	return cmd
}

// Browser drives a gallery.Session from text commands, one per line.
type Browser struct {
	api  photoAPI
	sess *gallery.Session
	out  io.Writer
}

func NewBrowser(ctx context.Context, api photoAPI, favs *gallery.Favourites, out io.Writer, opts gallery.Options) (*Browser, error) {
	photos, err := api.ListPhotos(ctx)
	if err != nil {
		return nil, err
	}
	return &Browser{api: api, sess: gallery.NewSession(photos, favs, opts), out: out}, nil
}

func (b *Browser) Close() {
	b.sess.Close()
}

// Run reads commands until EOF, "quit" or ctx is done.
func (b *Browser) Run(ctx context.Context, in io.Reader) error {
	b.render()
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(b.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(b.out)
			return sc.Err()
		}
		if err := ctx.Err(); err != nil {
			return nil
		}
		quit, err := b.Exec(ctx, sc.Text())
		if err != nil {
			fmt.Fprintln(b.out, "error:", err)
			continue
		}
		if quit {
			return nil
		}
		b.render()
	}
}

// Exec applies one command line.
func (b *Browser) Exec(ctx context.Context, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	if b.sess.KeyListenerActive() && arg == "" {
		if k, ok := gallery.ParseKey(cmd); ok {
			b.sess.HandleKey(k)
			return false, nil
		}
	}

	switch strings.ToLower(cmd) {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		b.help()
	case "search", "/":
		b.sess.SetQuery(arg)
	case "tag":
		if arg == "" {
			return false, fmt.Errorf("usage: tag NAME")
		}
		b.sess.ToggleTag(arg)
	case "clear":
		b.sess.ClearTags()
	case "cat", "category":
		b.sess.SetCategory(gallery.ParseCategory(arg))
	case "all":
		b.sess.SetCategory(gallery.CategoryAll)
	case "favs", "favourites":
		b.sess.SetCategory(gallery.CategoryFavourites)
	case "sort":
		b.sess.SetSort(gallery.ParseSortMode(arg))
	case "more":
		if !b.sess.View().HasMore || !b.sess.SentinelVisible() {
			fmt.Fprintln(b.out, "nothing more to show")
		}
	case "open":
		id, err := b.resolve(arg)
		if err != nil {
			return false, err
		}
		if !b.sess.Open(id) {
			return false, fmt.Errorf("no photo %q in the current list", arg)
		}
	case "fav":
		id := arg
		if id == "" {
			v := b.sess.View()
			if v.Lightbox == nil {
				return false, fmt.Errorf("usage: fav ID (or open a photo first)")
			}
			id = v.Lightbox.Photo.ID
		} else if id, err = b.resolve(arg); err != nil {
			return false, err
		}
		if _, err := b.sess.ToggleFavourite(ctx, id); err != nil {
			return false, fmt.Errorf("favourite saved in memory only: %w", err)
		}
	case "refresh":
		photos, err := b.api.ListPhotos(ctx)
		if err != nil {
			return false, err
		}
		b.sess.ReplacePhotos(photos)
	case "upload":
		return false, b.upload(ctx, arg)
	default:
		return false, fmt.Errorf("unknown command %q, try help", cmd)
	}
	return false, nil
}

// resolve maps "#n" to the id of the n-th visible photo.
func (b *Browser) resolve(arg string) (string, error) {
	if !strings.HasPrefix(arg, "#") {
		if arg == "" {
			return "", fmt.Errorf("missing photo id or #n")
		}
		return arg, nil
	}
	n, err := strconv.Atoi(arg[1:])
	v := b.sess.View()
	if err != nil || n < 1 || n > len(v.Visible) {
		return "", fmt.Errorf("%s is not a visible position", arg)
	}
	return v.Visible[n-1].ID, nil
}

func (b *Browser) upload(ctx context.Context, arg string) error {
	path, name, _ := strings.Cut(arg, " ")
	if path == "" {
		return fmt.Errorf("usage: upload PATH [display name]")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	photo, err := b.api.UploadPhoto(ctx, client.Upload{
		Filename:    filepath.Base(path),
		DisplayName: strings.TrimSpace(name),
		Body:        f,
	})
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	fmt.Fprintf(b.out, "uploaded %s\n", photo.Title)

	photos, err := b.api.ListPhotos(ctx)
	if err != nil {
		return err
	}
	b.sess.ReplacePhotos(photos)
	return nil
}

func (b *Browser) render() {
	v := b.sess.View()
	if lb := v.Lightbox; lb != nil {
		date := "unknown date"
		if !lb.Photo.TakenAt.IsZero() {
			date = lb.Photo.TakenAt.Format("January 2, 2006 at 3:04 PM")
		}
		fmt.Fprintf(b.out, "[%d/%d] %s %s · %s\n  %s\n", lb.Index+1, lb.Count, favMark(lb.Favourite), lb.Photo.Title, date, lb.Photo.Src)
		fmt.Fprintln(b.out, "  left / right / esc")
		return
	}

	sel := v.Selection
	fmt.Fprintf(b.out, "%d of %d shown · sort %s · %s (%d favourites)", v.VisibleCount, len(v.Filtered), sel.Sort, sel.Category, v.FavouriteCount)
	if q := sel.TrimmedQuery(); q != "" {
		fmt.Fprintf(b.out, " · search %q", q)
	}
	if len(sel.Tags) > 0 {
		fmt.Fprintf(b.out, " · tags %s", strings.Join(sel.Tags, "+"))
	}
	fmt.Fprintln(b.out)

	if v.Empty {
		fmt.Fprintln(b.out, "No photos found.")
		return
	}
	for i, p := range v.Visible {
		fmt.Fprintf(b.out, "%3d. %-1s %s (%s)\n", i+1, favMark(v.IsFavourite(p.ID)), p.Title, p.ID)
	}
	if v.HasMore {
		fmt.Fprintf(b.out, "... %d more, type \"more\"\n", len(v.Filtered)-v.VisibleCount)
	}
}

func (b *Browser) help() {
	fmt.Fprint(b.out, `commands:
  search TEXT        filter by title or tag (empty clears)
  tag NAME           toggle a tag filter; clear removes all
  all | favs         switch category
  sort MODE          newest, oldest or title
  more               show the next page
  open ID|#N         open a photo; then left, right, esc
  fav [ID|#N]        toggle favourite (open photo by default)
  refresh            list photos again
  upload PATH [NAME] upload a file
  quit
`)
}
