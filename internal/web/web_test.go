package web

import (
	"bytes"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/gallery/internal/gallery"
)

func samplePhotos() []gallery.Photo {
	return []gallery.Photo{
		{ID: "gallery/beach", Src: "https://img.example/beach.jpg", Title: "Beach", Tags: []string{"sea"}, TakenAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{ID: "gallery/hill", Src: "https://img.example/hill.jpg", Title: "Hill", Tags: []string{"land"}, TakenAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)},
	}
}

func render(t *testing.T, p Page) string {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, p))
	return buf.String()
}

func TestStateRoundTrip(t *testing.T) {
	sel := gallery.Selection{Query: " sea ", Tags: []string{"a", "b"}, Category: gallery.CategoryFavourites, Sort: gallery.SortTitle}
	v := State(sel, 30, "gallery/x")

	got, n, open := ParseState(v)
	assert.Equal(t, "sea", got.Query)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
	assert.Equal(t, gallery.CategoryFavourites, got.Category)
	assert.Equal(t, gallery.SortTitle, got.Sort)
	assert.Equal(t, 30, n)
	assert.Equal(t, "gallery/x", open)
}

func TestStateOmitsDefaults(t *testing.T) {
	assert.Empty(t, State(gallery.DefaultSelection(), 0, ""))
}

func TestParseStateFallsBack(t *testing.T) {
	sel, n, open := ParseState(url.Values{"sort": {"sideways"}, "category": {"mine"}, "n": {"x"}})
	assert.Equal(t, gallery.SortNewest, sel.Sort)
	assert.Equal(t, gallery.CategoryAll, sel.Category)
	assert.Zero(t, n)
	assert.Empty(t, open)
}

func TestRenderGrid(t *testing.T) {
	s := gallery.NewSession(samplePhotos(), nil, gallery.Options{})
	html := render(t, Page{View: s.View(), UploadEnabled: true})

	assert.Contains(t, html, "https://img.example/beach.jpg")
	assert.Contains(t, html, "/favourites/gallery%2Fbeach/toggle")
	assert.Contains(t, html, `action="/upload"`)
	assert.Contains(t, html, "Favourites (0)")
	assert.NotContains(t, html, "Clear all")
	assert.NotContains(t, html, "No photos found.")
	assert.NotContains(t, html, `id="lightbox"`)
}

func TestRenderEmptyState(t *testing.T) {
	s := gallery.NewSession(samplePhotos(), nil, gallery.Options{})
	s.SetQuery("nothing matches")
	html := render(t, Page{View: s.View()})

	assert.Contains(t, html, "No photos found.")
	assert.NotContains(t, html, `id="grid"`)
	assert.NotContains(t, html, `action="/upload"`)
}

func TestRenderClearAllOnlyWithActiveTag(t *testing.T) {
	s := gallery.NewSession(samplePhotos(), nil, gallery.Options{})
	s.ToggleTag("sea")
	html := render(t, Page{View: s.View()})
	assert.Contains(t, html, "Clear all")
	assert.NotContains(t, html, "hill.jpg")
}

func TestRenderLightbox(t *testing.T) {
	s := gallery.NewSession(samplePhotos(), nil, gallery.Options{})
	require.True(t, s.Open("gallery/beach"))
	p := Page{View: s.View()}
	html := render(t, p)

	assert.Contains(t, html, `id="lightbox"`)
	assert.Contains(t, html, "May 1, 2024 at 10:00 AM")
	assert.Contains(t, html, "2 / 2")
	assert.True(t, strings.Contains(p.NextURL(), "open=gallery%2Fhill"), p.NextURL())
	assert.Equal(t, "/", p.CloseURL())
}

func TestSentinelLinkGrows(t *testing.T) {
	photos := make([]gallery.Photo, 40)
	for i := range photos {
		photos[i] = gallery.Photo{ID: string(rune('a'+i%26)) + strings.Repeat("x", i/26)}
	}
	s := gallery.NewSession(photos, nil, gallery.Options{PageSize: 18, PageIncrement: 12})
	p := Page{View: s.View()}
	assert.Equal(t, "/?n=30", p.MoreURL())
	assert.Contains(t, render(t, p), `id="sentinel"`)
}
