package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/example/gallery/internal/gallery"
	"github.com/example/gallery/internal/media"
	"github.com/example/gallery/internal/store"
)

// PhotoIDPrefix prefixes identifiers minted for self-hosted photos.
const PhotoIDPrefix = "pho"

// NewPhotoID returns prefix-nanoid, e.g. "pho-V1StGXR8_Z5jdHi6B-myT".
func NewPhotoID() (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return PhotoIDPrefix + "-" + id, nil
}

type LocalConfig struct {
	MaxUploadBytes int64
	MaxPixels      int
	MaxResults     int
	// PublicBaseURL prefixes media links; empty yields root-relative links.
	PublicBaseURL string
	Logger        *slog.Logger
}

// Local keeps metadata in MySQL and image bytes in a media bucket.
type Local struct {
	store  *store.Store
	media  *media.Manager
	cfg    LocalConfig
	logger *slog.Logger
}

func NewLocal(st *store.Store, m *media.Manager, cfg LocalConfig) *Local {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	l := &Local{store: st, media: m, cfg: cfg, logger: cfg.Logger}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

func (l *Local) List(ctx context.Context) ([]gallery.Photo, error) {
	rows, err := l.store.ListPhotos(ctx, store.ListParams{Limit: l.cfg.MaxResults})
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	out := make([]gallery.Photo, len(rows))
	for i := range rows {
		out[i] = l.toPhoto(&rows[i])
	}
	return out, nil
}

// Upload stores the file and its variants, then records it. Uploading
// bytes that are already stored returns the existing photo.
func (l *Local) Upload(ctx context.Context, u Upload) (*gallery.Photo, error) {
	res, err := l.media.Save(ctx, u.Body, l.cfg.MaxUploadBytes, l.cfg.MaxPixels)
	if err != nil {
		return nil, err
	}
	id, err := NewPhotoID()
	if err != nil {
		return nil, err
	}

	row, err := l.store.CreatePhoto(ctx, store.PhotoCreate{
		ID:               id,
		Title:            u.Title(),
		Tags:             u.Tags,
		Width:            res.Width,
		Height:           res.Height,
		Bytes:            res.Bytes,
		Mime:             res.Mime,
		OriginalFilename: u.Filename,
		SHA256:           res.SHA256,
		Ext:              res.Ext,
		BlurHash:         res.BlurHash,
	})
	if errors.Is(err, store.ErrDuplicate) && row != nil {
		l.logger.Info("duplicate upload", "id", row.ID, "sha256", res.SHA256)
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("record photo: %w", err)
	}
	p := l.toPhoto(row)
	return &p, nil
}

// Media opens one variant of a stored photo.
func (l *Local) Media(ctx context.Context, id, variant string) (*media.Object, error) {
	row, err := l.store.GetPhoto(ctx, id)
	if err != nil {
		return nil, err
	}
	return l.media.Open(ctx, row.SHA256, variant, row.Ext)
}

// ListTags returns tags in use by live photos, sorted by name.
func (l *Local) ListTags(ctx context.Context, prefix string, limit int) ([]string, error) {
	tags, _, err := l.store.ListTags(ctx, prefix, 1, limit)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (l *Local) Ping(ctx context.Context) error {
	if err := l.store.Ping(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := l.media.Check(ctx); err != nil {
		return fmt.Errorf("media: %w", err)
	}
	return nil
}

// MediaURL is the link the API serves a variant under.
func (l *Local) MediaURL(id, variant string) string {
	return l.cfg.PublicBaseURL + "/media/" + url.PathEscape(id) + "/" + variant
}

func (l *Local) toPhoto(row *store.Photo) gallery.Photo {
	title := row.Title
	if title == "" {
		title = gallery.TitleFromPath(row.ID)
	}
	return gallery.Photo{
		ID:       row.ID,
		Src:      l.MediaURL(row.ID, media.VariantContent),
		Width:    row.Width,
		Height:   row.Height,
		Title:    title,
		Tags:     row.Tags,
		TakenAt:  row.Timestamp().UTC(),
		BlurHash: row.BlurHash,
	}
}
