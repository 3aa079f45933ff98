package favstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/gallery/internal/gallery"
)

// Store is a gallery.KV that holds resources.
type Store interface {
	gallery.KV
	Close() error
}

const (
	KindBadger = "badger"
	KindRedis  = "redis"
	KindFile   = "file"
	KindMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Kind     string
	Path     string
	RedisURL string
	Logger   *slog.Logger
}

// Open builds the backend named by opts.Kind.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Kind {
	case KindBadger, "":
		return OpenBadger(opts.Path, opts.Logger)
	case KindRedis:
		return DialRedis(ctx, opts.RedisURL)
	case KindFile:
		return NewFile(opts.Path)
	case KindMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown favourites backend %q", opts.Kind)
	}
}
