package source

import (
	"context"
	"slices"

	"golang.org/x/sync/singleflight"

	"github.com/example/gallery/internal/gallery"
)

// Coalesced makes concurrent List calls share one upstream call. A call made
// while another is in flight gets that call's result.
type Coalesced struct {
	Source
	group singleflight.Group
}

func NewCoalesced(src Source) *Coalesced {
	return &Coalesced{Source: src}
}

func (c *Coalesced) List(ctx context.Context) ([]gallery.Photo, error) {
	ch := c.group.DoChan("list", func() (any, error) {
		return c.Source.List(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]gallery.Photo)), nil
	}
}

func (c *Coalesced) Unwrap() Source { return c.Source }
