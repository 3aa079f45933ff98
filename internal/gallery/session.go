package gallery

import (
	"context"

	"golang.org/x/text/language"
)

// Options configures a Session.
type Options struct {
	PageSize      int
	PageIncrement int
	Collation     language.Tag
}

// Session owns the whole gallery state for one viewer. Each event
// recomputes the filtered list synchronously; there is no hidden reactive
// graph. A Session is not safe for concurrent use.
type Session struct {
	opts       Options
	photos     []Photo
	sel        Selection
	favourites *Favourites
	filtered   []Photo
	pager      *Paginator
	scroll     *ScrollController
	lightbox   Lightbox
	openID     string
	closed     bool
}

// NewSession starts observing immediately. A nil favourites set is replaced
// by an empty one that is not persisted.
func NewSession(photos []Photo, favourites *Favourites, opts Options) *Session {
	if favourites == nil {
		favourites = LoadFavourites(context.Background(), nil, "")
	}
	pager := NewPaginator(opts.PageSize, opts.PageIncrement)
	s := &Session{
		opts:       opts,
		photos:     photos,
		sel:        DefaultSelection(),
		favourites: favourites,
		pager:      pager,
		scroll:     NewScrollController(pager),
	}
	s.recompute()
	return s
}

// ReplacePhotos swaps in a freshly listed photo set. Pagination is kept.
func (s *Session) ReplacePhotos(photos []Photo) {
	s.photos = photos
	s.recompute()
}

func (s *Session) SetQuery(q string) {
	next := s.sel
	next.Query = q
	s.SetSelection(next)
}

func (s *Session) ToggleTag(tag string) {
	s.SetSelection(s.sel.WithTagToggled(tag))
}

func (s *Session) ClearTags() {
	next := s.sel
	next.Tags = nil
	s.SetSelection(next)
}

func (s *Session) SetCategory(c Category) {
	next := s.sel
	next.Category = c
	s.SetSelection(next)
}

func (s *Session) SetSort(m SortMode) {
	next := s.sel
	next.Sort = m
	s.SetSelection(next)
}

// SetSelection applies a whole selection. Any difference from the current
// one resets pagination to the initial page size.
func (s *Session) SetSelection(sel Selection) {
	if sel.Category == "" {
		sel.Category = CategoryAll
	}
	if sel.Sort == "" {
		sel.Sort = SortNewest
	}
	if s.sel.equal(sel) {
		return
	}
	s.sel = sel
	s.pager.Reset()
	s.recompute()
}

// Selection returns the current selection.
func (s *Session) Selection() Selection {
	return s.sel
}

// ToggleFavourite flips id and persists the set. The favourites category is
// re-derived so the photo disappears from it at once.
func (s *Session) ToggleFavourite(ctx context.Context, id string) (bool, error) {
	fav, err := s.favourites.Toggle(ctx, id)
	s.recompute()
	return fav, err
}

func (s *Session) IsFavourite(id string) bool {
	return s.favourites.Has(id)
}

// SentinelVisible handles one intersection notification from the view.
func (s *Session) SentinelVisible() bool {
	return s.scroll.SentinelVisible()
}

// Restore sets the visible count from outside, e.g. a page URL.
func (s *Session) Restore(visible int) {
	s.pager.Restore(visible)
}

// Open opens the lightbox on id's position in the current filtered list.
func (s *Session) Open(id string) bool {
	if s.closed {
		return false
	}
	i := IndexOf(s.filtered, id)
	if i < 0 {
		return false
	}
	s.lightbox.Open(i, len(s.filtered))
	s.openID = id
	return true
}

func (s *Session) Next() {
	s.lightbox.Next(len(s.filtered))
	s.syncOpenID()
}

func (s *Session) Prev() {
	s.lightbox.Prev(len(s.filtered))
	s.syncOpenID()
}

func (s *Session) CloseLightbox() {
	s.lightbox.Close()
	s.openID = ""
}

// HandleKey routes a key press to the lightbox. Keys are only listened for
// while the lightbox is open.
func (s *Session) HandleKey(k Key) bool {
	if !s.KeyListenerActive() {
		return false
	}
	handled := s.lightbox.HandleKey(k, len(s.filtered))
	s.syncOpenID()
	return handled
}

// KeyListenerActive reports whether the global key listener is attached.
func (s *Session) KeyListenerActive() bool {
	return !s.closed && s.lightbox.IsOpen()
}

// Observing reports whether the scroll sentinel subscription is active.
func (s *Session) Observing() bool {
	return s.scroll.Observing()
}

// Close tears down the scroll observation and the key listener.
func (s *Session) Close() {
	s.closed = true
	s.scroll.Disconnect()
	s.CloseLightbox()
}

func (s *Session) syncOpenID() {
	if !s.lightbox.IsOpen() {
		s.openID = ""
		return
	}
	s.openID = s.filtered[s.lightbox.Index()].ID
}

func (s *Session) recompute() {
	s.filtered = DeriveWith(s.photos, s.sel, s.favourites, s.opts.Collation)
	if s.closed {
		s.pager.SetLimit(len(s.filtered))
	} else {
		s.scroll.Observe(len(s.filtered))
	}

	if !s.lightbox.IsOpen() {
		return
	}
	i := IndexOf(s.filtered, s.openID)
	if len(s.filtered) == 0 || i < 0 {
		s.CloseLightbox()
		return
	}
	s.lightbox.Open(i, len(s.filtered))
}

// View is a read-only snapshot for rendering.
type View struct {
	Selection      Selection
	Filtered       []Photo
	Visible        []Photo
	Total          int
	AllTags        []string
	FavouriteCount int
	VisibleCount   int
	PageSize       int
	NextCount      int
	HasMore        bool
	Empty          bool
	Lightbox       *LightboxView
	favourites     IDSet
}

// LightboxView describes the open lightbox.
type LightboxView struct {
	Index     int
	Count     int
	Photo     Photo
	Favourite bool
	PrevID    string
	NextID    string
}

func (v View) IsFavourite(id string) bool {
	return v.favourites.Has(id)
}

// View snapshots the current state.
func (s *Session) View() View {
	n := s.pager.VisibleCount()
	v := View{
		Selection:      s.sel,
		Filtered:       s.filtered,
		Visible:        s.filtered[:n],
		Total:          len(s.photos),
		AllTags:        AllTags(s.photos),
		FavouriteCount: s.favourites.Len(),
		VisibleCount:   n,
		PageSize:       s.pager.PageSize(),
		NextCount:      min(n+s.pager.increment, len(s.filtered)),
		HasMore:        s.pager.HasMore(),
		Empty:          len(s.filtered) == 0,
		favourites:     NewIDSet(s.favourites.IDs()...),
	}
	if s.lightbox.IsOpen() {
		i, count := s.lightbox.Index(), len(s.filtered)
		p := s.filtered[i]
		v.Lightbox = &LightboxView{
			Index:     i,
			Count:     count,
			Photo:     p,
			Favourite: s.favourites.Has(p.ID),
			PrevID:    s.filtered[(i-1+count)%count].ID,
			NextID:    s.filtered[(i+1)%count].ID,
		}
	}
	return v
}
