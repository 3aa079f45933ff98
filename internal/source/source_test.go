package source

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/gallery/internal/gallery"
	"github.com/example/gallery/internal/media"
)

func TestDemoPhotos(t *testing.T) {
	photos := DemoPhotos(DemoSize)
	require.Len(t, photos, 36)

	first := photos[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "Sample Photo 1", first.Title)
	assert.Equal(t, "https://picsum.photos/800/600?random=1", first.Src)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), first.TakenAt)

	assert.Equal(t, time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC), photos[1].TakenAt)
	assert.Equal(t, time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC), photos[28].TakenAt)
}

func TestDemo_UploadUnsupported(t *testing.T) {
	d := NewDemo(DemoPhotos(2))
	_, err := d.Upload(context.Background(), Upload{Filename: "x.jpg"})
	assert.ErrorIs(t, err, ErrUploadUnsupported)
	assert.NoError(t, d.Ping(context.Background()))
}

func TestDemo_ListReturnsCopy(t *testing.T) {
	d := NewDemo(DemoPhotos(3))
	list, err := d.List(context.Background())
	require.NoError(t, err)
	list[0].Title = "changed"

	again, err := d.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Sample Photo 1", again[0].Title)
}

func TestParseSeed(t *testing.T) {
	photos, err := ParseSeed([]byte(`
photos:
  - id: trips/alps
    src: https://img/alps.jpg
    width: 1200
    height: 800
    tags: [mountain, snow, snow]
    takenAt: "2023-12-24T09:30:00Z"
  - id: cat
    title: Whiskers
    takenAt: not-a-date
`))
	require.NoError(t, err)
	require.Len(t, photos, 2)

	assert.Equal(t, "alps", photos[0].Title)
	assert.Equal(t, []string{"mountain", "snow"}, photos[0].Tags)
	assert.Equal(t, 2023, photos[0].TakenAt.Year())
	assert.Equal(t, "Whiskers", photos[1].Title)
	assert.True(t, photos[1].TakenAt.IsZero())
}

func TestParseSeed_Rejects(t *testing.T) {
	_, err := ParseSeed([]byte("photos:\n  - title: no id\n"))
	assert.Error(t, err)

	_, err = ParseSeed([]byte("photos:\n  - id: a\n  - id: a\n"))
	assert.Error(t, err)

	_, err = ParseSeed([]byte("photos:\n  - id: a\n    width: -1\n"))
	assert.Error(t, err)

	_, err = ParseSeed([]byte("photos:\n  - id: a\n    src: not a url\n"))
	assert.Error(t, err)

	_, err = ParseSeed([]byte("photos: [unterminated"))
	assert.Error(t, err)
}

func TestUploadTitle(t *testing.T) {
	assert.Equal(t, "Holiday", Upload{Filename: "IMG_001.jpg", DisplayName: " Holiday "}.Title())
	assert.Equal(t, "IMG_001", Upload{Filename: "IMG_001.jpg"}.Title())
	assert.Equal(t, "", Upload{}.Title())
}

type countingSource struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
}

func (s *countingSource) List(ctx context.Context) ([]gallery.Photo, error) {
	s.calls.Add(1)
	s.started <- struct{}{}
	<-s.release
	if s.err != nil {
		return nil, s.err
	}
	return DemoPhotos(3), nil
}

func (s *countingSource) Upload(context.Context, Upload) (*gallery.Photo, error) {
	return nil, ErrUploadUnsupported
}

func (s *countingSource) Ping(context.Context) error { return nil }

func TestCoalesced_SharesInFlightList(t *testing.T) {
	inner := &countingSource{started: make(chan struct{}, 1), release: make(chan struct{})}
	c := NewCoalesced(inner)

	var wg sync.WaitGroup
	lens := make([]int, 4)
	run := func(i int) {
		defer wg.Done()
		list, err := c.List(context.Background())
		if assert.NoError(t, err) {
			lens[i] = len(list)
		}
	}
	wg.Add(1)
	go run(0)
	<-inner.started
	for i := 1; i < len(lens); i++ {
		wg.Add(1)
		go run(i)
	}
	time.Sleep(100 * time.Millisecond)
	close(inner.release)
	wg.Wait()

	assert.Equal(t, int32(1), inner.calls.Load())
	assert.Equal(t, []int{3, 3, 3, 3}, lens)
}

func TestCoalesced_ErrorReachesEveryCaller(t *testing.T) {
	boom := errors.New("boom")
	inner := &countingSource{started: make(chan struct{}, 1), release: make(chan struct{}), err: boom}
	close(inner.release)
	c := NewCoalesced(inner)

	_, err := c.List(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestCoalesced_CallerCancellation(t *testing.T) {
	inner := &countingSource{started: make(chan struct{}, 1), release: make(chan struct{})}
	defer close(inner.release)
	c := NewCoalesced(inner)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-inner.started
		cancel()
	}()
	_, err := c.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeMedia struct{ Source }

func (fakeMedia) Media(context.Context, string, string) (*media.Object, error) {
	return nil, media.ErrNotExist
}

func TestMediaOf(t *testing.T) {
	_, ok := MediaOf(NewDemo(nil))
	assert.False(t, ok)

	_, ok = MediaOf(NewCoalesced(fakeMedia{NewDemo(nil)}))
	assert.True(t, ok)
}
