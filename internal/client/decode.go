package client

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/example/gallery/internal/gallery"
)

// RemotePhoto is a photo record as it arrives on the wire. Every field is
// optional; DecodePhoto fills in defaults.
type RemotePhoto struct {
	ID       *string  `json:"id"`
	Src      *string  `json:"src"`
	Width    *int     `json:"width"`
	Height   *int     `json:"height"`
	Title    *string  `json:"title"`
	Tags     []string `json:"tags"`
	TakenAt  *string  `json:"takenAt"`
	BlurHash *string  `json:"blurhash"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodePhoto converts a wire record into a Photo. Missing fields default to
// the empty value, except the title which falls back to the leaf segment of
// the identifier. The result must carry an identifier and non-negative
// dimensions.
func DecodePhoto(r RemotePhoto) (gallery.Photo, error) {
	p := gallery.Photo{
		ID:       deref(r.ID),
		Src:      deref(r.Src),
		Width:    deref(r.Width),
		Height:   deref(r.Height),
		Title:    deref(r.Title),
		Tags:     gallery.NormalizeTags(r.Tags),
		TakenAt:  gallery.ParseTimestamp(deref(r.TakenAt)),
		BlurHash: deref(r.BlurHash),
	}
	if p.Title == "" {
		p.Title = gallery.TitleFromPath(p.ID)
	}
	if err := validate.Struct(p); err != nil {
		return gallery.Photo{}, fmt.Errorf("invalid photo record: %w", err)
	}
	return p, nil
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
