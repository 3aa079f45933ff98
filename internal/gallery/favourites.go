package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// DefaultFavouritesKey is the key the favourites entry is stored under.
const DefaultFavouritesKey = "favourites"

// ErrKeyNotFound is returned by KV.Get when no entry exists.
var ErrKeyNotFound = errors.New("key not found")

// KV is the durable store favourites are persisted in.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Favourites is the set of favourited photo identifiers. Every mutation is
// written through to the backing store immediately.
type Favourites struct {
	kv  KV
	key string
	ids map[string]struct{}
}

// LoadFavourites reads the favourites entry. A missing, unreadable or corrupt
// entry yields an empty set; the error is never surfaced.
func LoadFavourites(ctx context.Context, kv KV, key string) *Favourites {
	if key == "" {
		key = DefaultFavouritesKey
	}
	f := &Favourites{kv: kv, key: key, ids: make(map[string]struct{})}
	if kv == nil {
		return f
	}
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return f
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return f
	}
	for _, id := range ids {
		f.ids[id] = struct{}{}
	}
	return f
}

func (f *Favourites) Has(id string) bool {
	_, ok := f.ids[id]
	return ok
}

func (f *Favourites) Len() int {
	return len(f.ids)
}

// IDs returns the identifiers sorted.
func (f *Favourites) IDs() []string {
	out := make([]string, 0, len(f.ids))
	for id := range f.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Toggle flips membership of id and saves. It returns the new membership.
// When the save fails the in-memory change is kept and the error returned.
func (f *Favourites) Toggle(ctx context.Context, id string) (bool, error) {
	_, had := f.ids[id]
	if had {
		delete(f.ids, id)
	} else {
		f.ids[id] = struct{}{}
	}
	return !had, f.Save(ctx)
}

// Save overwrites the stored entry with the current set.
func (f *Favourites) Save(ctx context.Context) error {
	if f.kv == nil {
		return nil
	}
	data, err := json.Marshal(f.IDs())
	if err != nil {
		return fmt.Errorf("marshal favourites: %w", err)
	}
	if err := f.kv.Set(ctx, f.key, data); err != nil {
		return fmt.Errorf("save favourites: %w", err)
	}
	return nil
}

// Snapshot copies the set into one that is never persisted.
func (f *Favourites) Snapshot() *Favourites {
	ids := make(map[string]struct{}, len(f.ids))
	for id := range f.ids {
		ids[id] = struct{}{}
	}
	return &Favourites{key: f.key, ids: ids}
}
