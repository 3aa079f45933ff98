package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/gallery/internal/client"
	"github.com/example/gallery/internal/gallery"
)

// favouritesAPI is the part of the client ServerKV needs.
type favouritesAPI interface {
	ListFavourites(ctx context.Context) ([]string, error)
	ToggleFavourite(ctx context.Context, id string) (bool, error)
}

// ServerKV stores the favourites entry on the gallery server. The server
// only knows toggles, so Set flips every identifier whose membership
// differs from the value being written.
type ServerKV struct {
	api favouritesAPI
}

var _ gallery.KV = (*ServerKV)(nil)

func NewServerKV(c *client.Client) *ServerKV {
	return &ServerKV{api: c}
}

func (s *ServerKV) Get(ctx context.Context, _ string) ([]byte, error) {
	ids, err := s.api.ListFavourites(ctx)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}

func (s *ServerKV) Set(ctx context.Context, _ string, value []byte) error {
	var want []string
	if err := json.Unmarshal(value, &want); err != nil {
		return fmt.Errorf("decode favourites: %w", err)
	}
	have, err := s.api.ListFavourites(ctx)
	if err != nil {
		return err
	}

	wantSet := gallery.NewIDSet(want...)
	haveSet := gallery.NewIDSet(have...)
	var flip []string
	for _, id := range want {
		if !haveSet.Has(id) {
			flip = append(flip, id)
		}
	}
	for _, id := range have {
		if !wantSet.Has(id) {
			flip = append(flip, id)
		}
	}
	for _, id := range flip {
		if _, err := s.api.ToggleFavourite(ctx, id); err != nil {
			return fmt.Errorf("toggle %s: %w", id, err)
		}
	}
	return nil
}
