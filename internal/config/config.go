package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

const (
	DefaultBind                  = ":8080"
	DefaultStorageRoot           = "/srv/gallery"
	DefaultMaxUploadBytes  int64 = 20 * 1024 * 1024
	DefaultMaxPixels             = 50_000_000
	DefaultContentMaxWidth       = 1600
	DefaultThumbMaxWidth         = 480
	DefaultMaxResults            = 200
	DefaultFavouritesPath        = "data/favourites"
	DefaultCloudinaryFolder      = "gallery"
	DefaultUploadRPS             = 0.5
	DefaultUploadBurst           = 5
)

const (
	SourceDemo       = "demo"
	SourceLocal      = "local"
	SourceCloudinary = "cloudinary"
)

type Config struct {
	Bind   string `validate:"required"`
	Source string `validate:"oneof=demo local cloudinary"`

	SeedFile string `validate:"omitempty,file"`

	DBDSN           string `validate:"required_if=Source local"`
	AutoMigrate     bool
	Storage         string `validate:"oneof=fs s3"`
	StorageRoot     string `validate:"required_if=Storage fs"`
	S3Endpoint      string `validate:"omitempty,url"`
	S3Region        string
	S3Bucket        string `validate:"required_if=Storage s3"`
	S3AccessKey     string
	S3SecretKey     string `validate:"required_with=S3AccessKey"`
	PublicBaseURL   string `validate:"omitempty,url"`
	MaxUploadBytes  int64  `validate:"gt=0"`
	MaxPixels       int    `validate:"gt=0"`
	ContentMaxWidth int    `validate:"gt=0"`
	ThumbMaxWidth   int    `validate:"gt=0,ltefield=ContentMaxWidth"`
	MaxResults      int    `validate:"gt=0,lte=1000"`

	CloudinaryCloudName string `validate:"required_if=Source cloudinary"`
	CloudinaryAPIKey    string `validate:"required_if=Source cloudinary"`
	CloudinaryAPISecret string `validate:"required_if=Source cloudinary"`
	CloudinaryFolder    string `validate:"required"`

	Favourites     string `validate:"oneof=badger redis file memory"`
	FavouritesPath string
	FavouritesKey  string `validate:"required"`
	RedisURL       string `validate:"required_if=Favourites redis"`

	PageSize      int    `validate:"gt=0"`
	PageIncrement int    `validate:"gt=0"`
	Collation     string `validate:"omitempty,bcp47_language_tag"`

	UploadRPS   float64 `validate:"gte=0"`
	UploadBurst int     `validate:"gte=0"`

	CORSAllowedOrigins []string
	LogLevel           string `validate:"omitempty,oneof=debug info warn error"`
	LogFormat          string `validate:"oneof=text json"`
	SwaggerUIPath      string
	OpenAPIPath        string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Bind:     getenv("GALLERY_BIND", DefaultBind),
		Source:   strings.ToLower(getenv("GALLERY_SOURCE", SourceDemo)),
		SeedFile: os.Getenv("GALLERY_SEED_FILE"),

		DBDSN:           os.Getenv("GALLERY_DB_DSN"),
		AutoMigrate:     getBool("GALLERY_AUTO_MIGRATE", true),
		Storage:         strings.ToLower(getenv("GALLERY_STORAGE", "fs")),
		StorageRoot:     getenv("GALLERY_STORAGE_ROOT", DefaultStorageRoot),
		S3Endpoint:      os.Getenv("GALLERY_S3_ENDPOINT"),
		S3Region:        getenv("GALLERY_S3_REGION", "us-east-1"),
		S3Bucket:        os.Getenv("GALLERY_S3_BUCKET"),
		S3AccessKey:     os.Getenv("GALLERY_S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("GALLERY_S3_SECRET_KEY"),
		PublicBaseURL:   os.Getenv("GALLERY_PUBLIC_BASE_URL"),
		MaxUploadBytes:  getInt64("GALLERY_MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
		MaxPixels:       getInt("GALLERY_MAX_PIXELS", DefaultMaxPixels),
		ContentMaxWidth: getInt("GALLERY_CONTENT_MAX_WIDTH", DefaultContentMaxWidth),
		ThumbMaxWidth:   getInt("GALLERY_THUMB_MAX_WIDTH", DefaultThumbMaxWidth),
		MaxResults:      getInt("GALLERY_MAX_RESULTS", DefaultMaxResults),

		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryFolder:    getenv("CLOUDINARY_FOLDER", DefaultCloudinaryFolder),

		Favourites:     strings.ToLower(getenv("GALLERY_FAVOURITES", "badger")),
		FavouritesPath: getenv("GALLERY_FAVOURITES_PATH", DefaultFavouritesPath),
		FavouritesKey:  getenv("GALLERY_FAVOURITES_KEY", "favourites"),
		RedisURL:       os.Getenv("GALLERY_REDIS_URL"),

		PageSize:      getInt("GALLERY_PAGE_SIZE", 18),
		PageIncrement: getInt("GALLERY_PAGE_INCREMENT", 12),
		Collation:     os.Getenv("GALLERY_COLLATION"),

		UploadRPS:   getFloat("GALLERY_UPLOAD_RPS", DefaultUploadRPS),
		UploadBurst: getInt("GALLERY_UPLOAD_BURST", DefaultUploadBurst),

		CORSAllowedOrigins: splitAndTrim(os.Getenv("GALLERY_CORS_ALLOWED_ORIGINS")),
		LogLevel:           strings.ToLower(os.Getenv("GALLERY_LOG_LEVEL")),
		LogFormat:          strings.ToLower(getenv("GALLERY_LOG_FORMAT", "text")),
		SwaggerUIPath:      "/swagger",
		OpenAPIPath:        "/openapi.yaml",
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, describe(err)
	}
	return cfg, nil
}

// Language is the collation tag for title sorting; undetermined when unset.
func (c *Config) Language() language.Tag {
	if c.Collation == "" {
		return language.Und
	}
	tag, err := language.Parse(c.Collation)
	if err != nil {
		return language.Und
	}
	return tag
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var envNames = map[string]string{
	"DBDSN":               "GALLERY_DB_DSN",
	"S3Bucket":            "GALLERY_S3_BUCKET",
	"S3SecretKey":         "GALLERY_S3_SECRET_KEY",
	"RedisURL":            "GALLERY_REDIS_URL",
	"CloudinaryCloudName": "CLOUDINARY_CLOUD_NAME",
	"CloudinaryAPIKey":    "CLOUDINARY_API_KEY",
	"CloudinaryAPISecret": "CLOUDINARY_API_SECRET",
	"CloudinaryFolder":    "CLOUDINARY_FOLDER",
}

// describe turns validator output into messages naming environment keys.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name, ok := envNames[fe.Field()]
		if !ok {
			name = "GALLERY_" + toEnvCase(fe.Field())
		}
		switch fe.Tag() {
		case "required", "required_if", "required_with":
			msgs = append(msgs, name+" is required")
		default:
			msgs = append(msgs, fmt.Sprintf("invalid %s: %v", name, fe.Value()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func toEnvCase(field string) string {
	var b strings.Builder
	for i, r := range field {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := rune(field[i-1])
			if prev < 'A' || prev > 'Z' {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(strings.TrimSpace(v))
		return v == "1" || v == "true" || v == "yes" || v == "y"
	}
	return def
}

func splitAndTrim(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
