package gallery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbered(n int) []Photo {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]Photo, n)
	for i := range out {
		out[i] = Photo{
			ID:      fmt.Sprintf("%d", i+1),
			Title:   fmt.Sprintf("Sample Photo %d", i+1),
			Tags:    []string{fmt.Sprintf("group%d", i%3)},
			TakenAt: base.AddDate(0, 0, i),
		}
	}
	return out
}

func TestSession_InitialViewIsFirstPage(t *testing.T) {
	s := NewSession(numbered(36), nil, Options{})
	v := s.View()

	assert.Equal(t, 18, v.VisibleCount)
	assert.Len(t, v.Visible, 18)
	assert.Equal(t, "36", v.Visible[0].ID, "newest first")
	assert.True(t, v.HasMore)
	assert.Equal(t, 30, v.NextCount)
	assert.False(t, v.Empty)
	assert.Nil(t, v.Lightbox)
}

func TestSession_SentinelGrowsUntilExhausted(t *testing.T) {
	s := NewSession(numbered(36), nil, Options{})

	assert.True(t, s.SentinelVisible())
	assert.Equal(t, 30, s.View().VisibleCount)
	assert.True(t, s.SentinelVisible())
	assert.Equal(t, 36, s.View().VisibleCount)
	assert.False(t, s.SentinelVisible())
	assert.False(t, s.View().HasMore)
}

func TestSession_SelectionChangeResetsPagination(t *testing.T) {
	s := NewSession(numbered(60), nil, Options{})
	s.SentinelVisible()
	s.SentinelVisible()
	require.Equal(t, 42, s.View().VisibleCount)

	s.SetSort(SortOldest)
	assert.Equal(t, 18, s.View().VisibleCount)

	s.SentinelVisible()
	s.SetQuery("sample")
	assert.Equal(t, 18, s.View().VisibleCount)

	s.SentinelVisible()
	s.ToggleTag("group1")
	assert.Equal(t, 18, s.View().VisibleCount)
	assert.Len(t, s.View().Filtered, 20)

	s.SentinelVisible()
	s.SetCategory(CategoryFavourites)
	assert.Equal(t, 0, s.View().VisibleCount)
	assert.True(t, s.View().Empty)

	s.SetCategory(CategoryAll)
	s.ClearTags()
	assert.Equal(t, 18, s.View().VisibleCount, "reset even though the new list is longer")
}

func TestSession_SameSelectionKeepsPagination(t *testing.T) {
	s := NewSession(numbered(60), nil, Options{})
	s.SentinelVisible()
	s.SetSort(SortNewest)
	s.SetQuery("")
	assert.Equal(t, 30, s.View().VisibleCount)
}

func TestSession_OpenUsesFullFilteredOrder(t *testing.T) {
	s := NewSession(numbered(36), nil, Options{})

	require.True(t, s.Open("1"), "oldest photo is outside the visible slice")
	v := s.View()
	require.NotNil(t, v.Lightbox)
	assert.Equal(t, 35, v.Lightbox.Index)
	assert.Equal(t, "1", v.Lightbox.Photo.ID)
	assert.Equal(t, "36", v.Lightbox.NextID)
	assert.Equal(t, "2", v.Lightbox.PrevID)

	assert.False(t, s.Open("missing"))
}

func TestSession_WraparoundWithFivePhotos(t *testing.T) {
	s := NewSession(numbered(5), nil, Options{})
	s.SetSort(SortOldest)

	require.True(t, s.Open("1"))
	s.Prev()
	assert.Equal(t, 4, s.View().Lightbox.Index)

	s.Next()
	assert.Equal(t, 0, s.View().Lightbox.Index)
}

func TestSession_KeysDriveLightbox(t *testing.T) {
	s := NewSession(numbered(3), nil, Options{})
	assert.False(t, s.KeyListenerActive())
	assert.False(t, s.HandleKey(KeyRight))

	s.Open("3")
	assert.True(t, s.KeyListenerActive())
	assert.True(t, s.HandleKey(KeyRight))
	assert.Equal(t, "2", s.View().Lightbox.Photo.ID)

	assert.True(t, s.HandleKey(KeyEscape))
	assert.False(t, s.KeyListenerActive())
	assert.Nil(t, s.View().Lightbox)
}

func TestSession_ForcedCloseWhenListEmpties(t *testing.T) {
	photos := []Photo{{ID: "only", Title: "Lonely"}}
	s := NewSession(photos, nil, Options{})
	require.True(t, s.Open("only"))

	s.SetQuery("nothing matches")
	assert.Nil(t, s.View().Lightbox)
	assert.False(t, s.KeyListenerActive())

	s.Next()
	s.Prev()
	assert.Nil(t, s.View().Lightbox)
}

func TestSession_LightboxFollowsIdentity(t *testing.T) {
	s := NewSession(numbered(6), nil, Options{})
	require.True(t, s.Open("4"))
	require.Equal(t, 2, s.View().Lightbox.Index)

	s.SetSort(SortOldest)
	require.NotNil(t, s.View().Lightbox)
	assert.Equal(t, "4", s.View().Lightbox.Photo.ID)
	assert.Equal(t, 3, s.View().Lightbox.Index)

	// "4" is in group0; filtering to group1 removes it without emptying the list.
	s.ToggleTag("group1")
	assert.Nil(t, s.View().Lightbox)
}

func TestSession_FavouritesCategoryTracksToggles(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	favs := LoadFavourites(ctx, kv, "")
	s := NewSession(numbered(4), favs, Options{})
	s.SetCategory(CategoryFavourites)
	assert.True(t, s.View().Empty)

	on, err := s.ToggleFavourite(ctx, "2")
	require.NoError(t, err)
	assert.True(t, on)
	v := s.View()
	assert.Equal(t, []string{"2"}, ids(v.Filtered))
	assert.Equal(t, 1, v.FavouriteCount)
	assert.True(t, v.IsFavourite("2"))

	require.True(t, s.Open("2"))
	_, err = s.ToggleFavourite(ctx, "2")
	require.NoError(t, err)
	assert.Nil(t, s.View().Lightbox, "unfavouriting the open photo empties the list")
}

func TestSession_ReplacePhotosKeepsFavourites(t *testing.T) {
	ctx := context.Background()
	favs := LoadFavourites(ctx, newMapKV(), "")
	s := NewSession(numbered(2), favs, Options{})
	_, err := s.ToggleFavourite(ctx, "1")
	require.NoError(t, err)

	s.ReplacePhotos(numbered(30))
	assert.True(t, s.IsFavourite("1"))
	assert.Equal(t, 18, s.View().VisibleCount)
	assert.Equal(t, 30, s.View().Total)
}

func TestSession_CloseTearsDownSubscriptions(t *testing.T) {
	s := NewSession(numbered(40), nil, Options{})
	require.True(t, s.Observing())
	s.Open("5")

	s.Close()
	assert.False(t, s.Observing())
	assert.False(t, s.KeyListenerActive())
	assert.False(t, s.SentinelVisible())
	assert.False(t, s.HandleKey(KeyRight))
	assert.False(t, s.Open("5"))
	assert.Equal(t, 18, s.View().VisibleCount)
}

func TestSession_SentinelOnShortListThenRefresh(t *testing.T) {
	s := NewSession(numbered(5), nil, Options{})
	assert.False(t, s.SentinelVisible())
	assert.Equal(t, 5, s.View().VisibleCount)

	s.ReplacePhotos(numbered(30))
	v := s.View()
	assert.Equal(t, 18, v.VisibleCount)
	assert.True(t, v.HasMore)
}

func TestSession_RestoreVisibleCount(t *testing.T) {
	s := NewSession(numbered(40), nil, Options{PageSize: 10, PageIncrement: 5})
	s.Restore(25)
	assert.Equal(t, 25, s.View().VisibleCount)
	s.Restore(3)
	assert.Equal(t, 10, s.View().VisibleCount)
	s.Restore(1000)
	assert.Equal(t, 40, s.View().VisibleCount)
}
