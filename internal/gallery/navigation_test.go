package gallery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginator_GrowIsClampedToLimit(t *testing.T) {
	p := NewPaginator(18, 12)
	p.SetLimit(40)
	assert.Equal(t, 18, p.VisibleCount())

	p.Grow()
	assert.Equal(t, 30, p.VisibleCount())
	p.Grow()
	assert.Equal(t, 40, p.VisibleCount())
	p.Grow()
	assert.Equal(t, 40, p.VisibleCount())
	assert.False(t, p.HasMore())
}

func TestPaginator_VisibleNeverExceedsLimit(t *testing.T) {
	p := NewPaginator(0, 0)
	p.SetLimit(5)
	assert.Equal(t, 5, p.VisibleCount())

	p.SetLimit(0)
	assert.Equal(t, 0, p.VisibleCount())
}

func TestPaginator_GrowOnShortListKeepsPageSize(t *testing.T) {
	p := NewPaginator(18, 12)
	p.SetLimit(5)
	p.Grow()
	assert.Equal(t, 5, p.VisibleCount())

	p.SetLimit(30)
	assert.Equal(t, 18, p.VisibleCount())
}

func TestPaginator_ResetReturnsToPageSize(t *testing.T) {
	p := NewPaginator(18, 12)
	p.SetLimit(100)
	p.Grow()
	p.Grow()
	p.Reset()
	assert.Equal(t, 18, p.VisibleCount())
}

func TestScrollController_IgnoresEventsWhenDisconnected(t *testing.T) {
	p := NewPaginator(2, 2)
	s := NewScrollController(p)

	assert.False(t, s.SentinelVisible(), "not yet observing")

	s.Observe(10)
	assert.True(t, s.SentinelVisible())
	assert.Equal(t, 4, p.VisibleCount())

	s.Disconnect()
	assert.False(t, s.SentinelVisible())
	assert.Equal(t, 4, p.VisibleCount())
}

func TestScrollController_ObserveUpdatesClampTarget(t *testing.T) {
	p := NewPaginator(2, 10)
	s := NewScrollController(p)
	s.Observe(3)
	s.SentinelVisible()
	assert.Equal(t, 3, p.VisibleCount())

	s.Observe(50)
	s.SentinelVisible()
	assert.Equal(t, 13, p.VisibleCount())
}

func TestLightbox_Wraparound(t *testing.T) {
	var l Lightbox
	l.Open(0, 5)
	l.Prev(5)
	assert.Equal(t, 4, l.Index())

	l.Next(5)
	assert.Equal(t, 0, l.Index())
	assert.True(t, l.IsOpen())
}

func TestLightbox_EmptyListCloses(t *testing.T) {
	var l Lightbox
	l.Open(0, 1)
	l.Next(0)
	assert.False(t, l.IsOpen())

	l.Open(0, 1)
	l.Prev(0)
	assert.False(t, l.IsOpen())

	assert.False(t, l.Open(3, 2))
}

func TestLightbox_KeysOnlyWhileOpen(t *testing.T) {
	var l Lightbox
	assert.False(t, l.HandleKey(KeyRight, 3))

	l.Open(2, 3)
	assert.True(t, l.HandleKey(KeyRight, 3))
	assert.Equal(t, 0, l.Index())
	assert.True(t, l.HandleKey(KeyLeft, 3))
	assert.Equal(t, 2, l.Index())
	assert.True(t, l.HandleKey(KeyEscape, 3))
	assert.False(t, l.IsOpen())
	assert.False(t, l.HandleKey(KeyEscape, 3))
}

func TestParseKey(t *testing.T) {
	cases := map[string]Key{
		"ArrowLeft":  KeyLeft,
		"right":      KeyRight,
		"Escape":     KeyEscape,
		" esc ":      KeyEscape,
		"ArrowRight": KeyRight,
	}
	for in, want := range cases {
		got, ok := ParseKey(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseKey("Enter")
	assert.False(t, ok)
}
