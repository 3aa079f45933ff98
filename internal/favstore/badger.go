package favstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/example/gallery/internal/gallery"
)

const badgerPrefix = "fav:"

// Badger stores entries in an embedded Badger database.
type Badger struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenBadger opens (or creates) the database at path. An empty path opens an
// in-memory database.
func OpenBadger(path string, logger *slog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	if logger != nil {
		logger.Info("favourites database opened", "path", path)
	}
	return &Badger{db: db, logger: logger}, nil
}

func (b *Badger) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return gallery.ErrKeyNotFound
		}
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Badger) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerPrefix+key), value)
	})
}

func (b *Badger) Close() error {
	if b.logger != nil {
		b.logger.Info("closing favourites database")
	}
	return b.db.Close()
}
