package config

import (
	"log/slog"
	"strings"
	"testing"

	"golang.org/x/text/language"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Source != SourceDemo {
		t.Fatalf("expected demo source, got %s", cfg.Source)
	}
	if cfg.PageSize != 18 || cfg.PageIncrement != 12 {
		t.Fatalf("unexpected paging %d/%d", cfg.PageSize, cfg.PageIncrement)
	}
	if cfg.Favourites != "badger" || cfg.FavouritesKey != "favourites" {
		t.Fatalf("unexpected favourites config %s/%s", cfg.Favourites, cfg.FavouritesKey)
	}
	if cfg.CloudinaryFolder != "gallery" {
		t.Fatalf("expected default folder gallery, got %s", cfg.CloudinaryFolder)
	}
	if !cfg.AutoMigrate {
		t.Fatalf("expected auto migrate by default")
	}
	if cfg.Language() != language.Und {
		t.Fatalf("expected undetermined collation")
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Fatalf("expected info level")
	}
}

func TestLoadLocalRequiresDSN(t *testing.T) {
	t.Setenv("GALLERY_SOURCE", "local")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "GALLERY_DB_DSN is required") {
		t.Fatalf("expected dsn error, got %v", err)
	}

	t.Setenv("GALLERY_DB_DSN", "user:pass@tcp(localhost:3306)/gallery?parseTime=true")
	if _, err := Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestLoadCloudinaryRequiresCredentials(t *testing.T) {
	t.Setenv("GALLERY_SOURCE", "cloudinary")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	_, err := Load()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"CLOUDINARY_API_KEY is required", "CLOUDINARY_API_SECRET is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestLoadRejectsUnknownValues(t *testing.T) {
	cases := map[string]string{
		"GALLERY_SOURCE":     "flickr",
		"GALLERY_FAVOURITES": "sqlite",
		"GALLERY_LOG_FORMAT": "xml",
		"GALLERY_COLLATION":  "not a tag!",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), "invalid "+key) {
				t.Fatalf("expected invalid %s, got %v", key, err)
			}
		})
	}
}

func TestLoadRedisRequiresURL(t *testing.T) {
	t.Setenv("GALLERY_FAVOURITES", "redis")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "GALLERY_REDIS_URL is required") {
		t.Fatalf("expected redis url error, got %v", err)
	}
}

func TestLoadThumbWiderThanContent(t *testing.T) {
	t.Setenv("GALLERY_THUMB_MAX_WIDTH", "2000")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for thumb wider than content")
	}
}

func TestLoadParsesLists(t *testing.T) {
	t.Setenv("GALLERY_CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("GALLERY_COLLATION", "sv")
	t.Setenv("GALLERY_LOG_LEVEL", "DEBUG")
	t.Setenv("GALLERY_UPLOAD_RPS", "2.5")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.Language() != language.Swedish {
		t.Fatalf("expected swedish collation, got %v", cfg.Language())
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level")
	}
	if cfg.UploadRPS != 2.5 {
		t.Fatalf("expected 2.5 rps, got %v", cfg.UploadRPS)
	}
}

func TestToEnvCase(t *testing.T) {
	cases := map[string]string{
		"MaxUploadBytes": "MAX_UPLOAD_BYTES",
		"S3Endpoint":     "S3_ENDPOINT",
		"UploadRPS":      "UPLOAD_RPS",
		"LogFormat":      "LOG_FORMAT",
	}
	for in, want := range cases {
		if got := toEnvCase(in); got != want {
			t.Fatalf("toEnvCase(%q) = %q, want %q", in, got, want)
		}
	}
}
