package media

import (
	"fmt"
	"image"

	"github.com/bbrks/go-blurhash"
	"github.com/disintegration/imaging"
)

const blurHashSize = 64

// BlurHash encodes a 4x3 component placeholder for img.
func BlurHash(img image.Image) (string, error) {
	b := img.Bounds()
	if b.Dx() > blurHashSize || b.Dy() > blurHashSize {
		img = imaging.Fit(img, blurHashSize, blurHashSize, imaging.Box)
	}
	hash, err := blurhash.Encode(4, 3, img)
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}
