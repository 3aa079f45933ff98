package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/example/gallery/internal/config"
	"github.com/example/gallery/internal/favstore"
	"github.com/example/gallery/internal/gallery"
	"github.com/example/gallery/internal/httpapi"
	"github.com/example/gallery/internal/media"
	"github.com/example/gallery/internal/ratelimit"
	"github.com/example/gallery/internal/source"
	"github.com/example/gallery/internal/store"
	"github.com/example/gallery/migrations"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logger := newLogger(cfg, os.Stdout).With("version", version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, closeSource, err := buildSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up photo source", "source", cfg.Source, "error", err)
		os.Exit(1)
	}
	defer closeSource()

	favStore, err := favstore.Open(ctx, favstore.Options{
		Kind:     cfg.Favourites,
		Path:     cfg.FavouritesPath,
		RedisURL: cfg.RedisURL,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to open favourites store", "backend", cfg.Favourites, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := favStore.Close(); err != nil {
			logger.Error("favourites store close error", "error", err)
		}
	}()
	favs := gallery.LoadFavourites(ctx, favStore, cfg.FavouritesKey)
	logger.Info("favourites loaded", "backend", cfg.Favourites, "count", favs.Len())

	limiter := ratelimit.New(cfg.UploadRPS, cfg.UploadBurst)
	defer limiter.Stop()

	router, err := httpapi.NewRouter(cfg, httpapi.Deps{
		Source:     source.NewCoalesced(src),
		Favourites: favs,
		Limiter:    limiter,
	}, logger)
	if err != nil {
		logger.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{Addr: cfg.Bind, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("server starting", "addr", cfg.Bind, "source", cfg.Source)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// buildSource returns the configured photo source and a func releasing what
// it holds.
func buildSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (source.Source, func(), error) {
	noop := func() {}
	switch cfg.Source {
	case config.SourceCloudinary:
		src, err := source.NewCloudinary(source.CloudinaryConfig{
			CloudName:  cfg.CloudinaryCloudName,
			APIKey:     cfg.CloudinaryAPIKey,
			APISecret:  cfg.CloudinaryAPISecret,
			Folder:     cfg.CloudinaryFolder,
			MaxResults: cfg.MaxResults,
			Logger:     logger,
		})
		if err != nil {
			return nil, noop, err
		}
		return src, noop, nil

	case config.SourceLocal:
		return buildLocal(ctx, cfg, logger)

	default:
		if cfg.SeedFile != "" {
			src, err := source.LoadDemo(cfg.SeedFile)
			if err != nil {
				return nil, noop, err
			}
			return src, noop, nil
		}
		return source.NewDemo(source.DemoPhotos(source.DemoSize)), noop, nil
	}
}

func buildLocal(ctx context.Context, cfg *config.Config, logger *slog.Logger) (source.Source, func(), error) {
	db, err := sqlx.Open("mysql", cfg.DBDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}

	if cfg.AutoMigrate {
		if err := migrations.Up(cfg.DBDSN); err != nil {
			closeDB()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	var bucket media.Bucket
	tmpDir := filepath.Join(cfg.StorageRoot, "tmp")
	if cfg.Storage == "s3" {
		tmpDir = ""
		bucket, err = media.NewS3Bucket(ctx, media.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			closeDB()
			return nil, nil, fmt.Errorf("s3 bucket: %w", err)
		}
	} else {
		bucket = media.NewFSBucket(cfg.StorageRoot)
	}

	mgr := media.NewManager(bucket, media.Options{
		TempDir:         tmpDir,
		ContentMaxWidth: cfg.ContentMaxWidth,
		ThumbMaxWidth:   cfg.ThumbMaxWidth,
	})
	src := source.NewLocal(store.New(db), mgr, source.LocalConfig{
		MaxUploadBytes: cfg.MaxUploadBytes,
		MaxPixels:      cfg.MaxPixels,
		MaxResults:     cfg.MaxResults,
		PublicBaseURL:  cfg.PublicBaseURL,
		Logger:         logger,
	})
	return src, closeDB, nil
}
