package source

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/example/gallery/internal/gallery"
)

// DemoSize is the number of generated placeholder photos.
const DemoSize = 36

// Demo serves a fixed photo set. It never accepts uploads.
type Demo struct {
	photos []gallery.Photo
}

func NewDemo(photos []gallery.Photo) *Demo {
	return &Demo{photos: photos}
}

// DemoPhotos generates n placeholder photos backed by picsum.photos, spread
// over 2024.
func DemoPhotos(n int) []gallery.Photo {
	out := make([]gallery.Photo, n)
	for i := range out {
		id := fmt.Sprintf("%d", i+1)
		out[i] = gallery.Photo{
			ID:      id,
			Src:     "https://picsum.photos/800/600?random=" + id,
			Width:   800,
			Height:  600,
			Title:   "Sample Photo " + id,
			Tags:    []string{},
			TakenAt: time.Date(2024, time.Month((i*2)%12+1), i%28+1, 0, 0, 0, 0, time.UTC),
		}
	}
	return out
}

type seedFile struct {
	Photos []seedPhoto `yaml:"photos"`
}

type seedPhoto struct {
	ID       string   `yaml:"id" validate:"required"`
	Src      string   `yaml:"src" validate:"omitempty,url"`
	Width    int      `yaml:"width" validate:"gte=0"`
	Height   int      `yaml:"height" validate:"gte=0"`
	Title    string   `yaml:"title"`
	Tags     []string `yaml:"tags"`
	TakenAt  string   `yaml:"takenAt"`
	BlurHash string   `yaml:"blurhash"`
}

var validateSeed = validator.New(validator.WithRequiredStructEnabled())

// LoadDemo reads a YAML seed file of the form `photos: [{id, src, ...}]`.
func LoadDemo(path string) (*Demo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	photos, err := ParseSeed(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewDemo(photos), nil
}

// ParseSeed decodes seed YAML. Identifiers must be present and unique,
// sources must be URLs and dimensions non-negative.
func ParseSeed(data []byte) ([]gallery.Photo, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Photos))
	out := make([]gallery.Photo, 0, len(f.Photos))
	for i, p := range f.Photos {
		if err := validateSeed.Struct(p); err != nil {
			return nil, fmt.Errorf("photo %d: %w", i, err)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("photo %d: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = struct{}{}
		title := p.Title
		if title == "" {
			title = gallery.TitleFromPath(p.ID)
		}
		out = append(out, gallery.Photo{
			ID:       p.ID,
			Src:      p.Src,
			Width:    p.Width,
			Height:   p.Height,
			Title:    title,
			Tags:     gallery.NormalizeTags(p.Tags),
			TakenAt:  gallery.ParseTimestamp(p.TakenAt),
			BlurHash: p.BlurHash,
		})
	}
	return out, nil
}

func (d *Demo) List(ctx context.Context) ([]gallery.Photo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(d.photos), nil
}

func (d *Demo) Upload(context.Context, Upload) (*gallery.Photo, error) {
	return nil, ErrUploadUnsupported
}

func (d *Demo) Ping(context.Context) error { return nil }
