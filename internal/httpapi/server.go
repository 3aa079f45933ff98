// Package httpapi serves the gallery: the JSON API under /api, image media
// for self-hosted sources under /media and the HTML gallery page at /.
package httpapi

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/example/gallery/internal/config"
	"github.com/example/gallery/internal/gallery"
	"github.com/example/gallery/internal/media"
	"github.com/example/gallery/internal/ratelimit"
	"github.com/example/gallery/internal/source"
	"github.com/example/gallery/internal/store"
	"github.com/example/gallery/internal/swaggerui"
	"github.com/example/gallery/internal/web"
)

//go:embed openapi.yaml
var openapiFS embed.FS

// Deps are the collaborators the router serves from.
type Deps struct {
	Source     source.Source
	Favourites *gallery.Favourites
	Limiter    *ratelimit.Limiter
}

type Server struct {
	cfg    *config.Config
	src    source.Source
	pages  *web.Renderer
	logger *slog.Logger

	// favMu serializes favourite toggles; readers take snapshots.
	favMu sync.Mutex
	favs  *gallery.Favourites
}

func NewRouter(cfg *config.Config, deps Deps, logger *slog.Logger) (http.Handler, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	pages, err := web.New()
	if err != nil {
		return nil, err
	}
	favs := deps.Favourites
	if favs == nil {
		favs = gallery.LoadFavourites(context.Background(), nil, "")
	}
	s := &Server{cfg: cfg, src: deps.Source, pages: pages, logger: logger, favs: favs}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(loggingMiddleware(logger))

	if len(cfg.CORSAllowedOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Accept"},
			AllowCredentials: false,
		})
		r.Use(c.Handler)
	}

	r.Get("/healthz", s.GetHealthz)
	r.Get("/readyz", s.GetReadyz)
	r.Get(cfg.OpenAPIPath, s.serveOpenAPI)
	r.Mount(cfg.SwaggerUIPath, swaggerui.Handler(cfg.OpenAPIPath, cfg.SwaggerUIPath))

	wrapper := ServerInterfaceWrapper{Handler: s, ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
	}}

	r.Get("/api/photos", wrapper.ListPhotos)
	r.Get("/api/tags", wrapper.ListTags)
	r.Get("/api/favourites", wrapper.ListFavourites)
	r.Post("/api/favourites/{id}/toggle", wrapper.ToggleFavourite)
	r.Get("/media/{id}/{variant}", wrapper.GetMediaVariant)

	r.Get("/", s.GetIndex)
	r.Post("/favourites/{id}/toggle", s.PostFavouriteForm)

	r.Group(func(r chi.Router) {
		if deps.Limiter != nil {
			r.Use(deps.Limiter.Middleware(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many uploads, slow down", nil)
			}))
		}
		r.Post("/api/upload", wrapper.UploadPhoto)
		r.Post("/upload", s.PostUploadForm)
	})

	return r, nil
}

func (s *Server) serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	data, err := openapiFS.ReadFile("openapi.yaml")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "unable to load openapi.yaml", map[string]any{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) GetHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Health{Status: Ok})
}

func (s *Server) GetReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.src.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_ready", "photo source unreachable", map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, Health{Status: Ok})
}

func (s *Server) ListPhotos(w http.ResponseWriter, r *http.Request, params ListPhotosParams) {
	photos, err := s.src.List(r.Context())
	if err != nil {
		s.logger.Error("list photos", "err", err)
		writeError(w, http.StatusBadGateway, "upstream", "failed to list photos", map[string]any{"error": err.Error()})
		return
	}

	sel := gallery.Selection{
		Query:    getStringPtr(params.Q),
		Tags:     gallery.NormalizeTags(derefStringSlice(params.Tag)),
		Category: gallery.ParseCategory(string(deref(params.Category, All))),
		Sort:     gallery.ParseSortMode(string(deref(params.Sort, Newest))),
	}
	filtered := gallery.DeriveWith(photos, sel, s.favouritesSnapshot(), s.cfg.Language())
	if limit := deref(params.Limit, 0); limit > 0 && limit < len(filtered) {
		filtered = filtered[:limit]
	}

	resp := PhotoListResponse{Photos: make([]Photo, 0, len(filtered)), Total: len(photos)}
	for _, p := range filtered {
		resp.Photos = append(resp.Photos, toAPIPhoto(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	photo, status, err := s.upload(w, r)
	if err != nil {
		writeError(w, status, uploadErrorCode(status), err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusCreated, toAPIPhoto(*photo))
}

// upload parses the multipart form and hands the file to the source. The
// status is meaningful only when err is set.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) (*gallery.Photo, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", s.cfg.MaxUploadBytes)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("failed to parse multipart: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("file is required")
	}
	defer file.Close()

	u := source.Upload{
		Filename:    header.Filename,
		DisplayName: formValue(r.MultipartForm.Value, "displayName"),
		Tags:        store.SplitTags(r.MultipartForm.Value["tags"]),
		Body:        file,
		Size:        header.Size,
	}
	photo, err := s.src.Upload(r.Context(), u)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, source.ErrUploadUnsupported):
			status = http.StatusNotImplemented
		case errors.Is(err, media.ErrTooLarge):
			status = http.StatusRequestEntityTooLarge
		case errors.Is(err, media.ErrInvalidImage), errors.Is(err, source.ErrRejected):
			status = http.StatusBadRequest
		}
		if status == http.StatusInternalServerError {
			s.logger.Error("upload", "filename", u.Filename, "err", err)
		}
		return nil, status, err
	}
	s.logger.Info("uploaded", "id", photo.ID, "filename", u.Filename, "bytes", u.Size)
	return photo, http.StatusCreated, nil
}

func uploadErrorCode(status int) string {
	switch status {
	case http.StatusNotImplemented:
		return "not_implemented"
	case http.StatusRequestEntityTooLarge:
		return "too_large"
	case http.StatusBadRequest:
		return "bad_request"
	default:
		return "upload_failed"
	}
}

func (s *Server) ListTags(w http.ResponseWriter, r *http.Request, params ListTagsParams) {
	prefix := gallery.NormalizeTags([]string{getStringPtr(params.Prefix)})
	limit := deref(params.Limit, 100)

	var tags []string
	if tl, ok := source.TagsOf(s.src); ok {
		var p string
		if len(prefix) > 0 {
			p = prefix[0]
		}
		var err error
		tags, err = tl.ListTags(r.Context(), p, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", "failed to list tags", map[string]any{"error": err.Error()})
			return
		}
	} else {
		photos, err := s.src.List(r.Context())
		if err != nil {
			writeError(w, http.StatusBadGateway, "upstream", "failed to list photos", map[string]any{"error": err.Error()})
			return
		}
		for _, t := range gallery.AllTags(photos) {
			if len(prefix) == 0 || strings.HasPrefix(t, prefix[0]) {
				tags = append(tags, t)
			}
		}
		if limit > 0 && len(tags) > limit {
			tags = tags[:limit]
		}
	}

	resp := TagListResponse{Items: make([]Tag, 0, len(tags))}
	for _, t := range tags {
		resp.Items = append(resp.Items, Tag{Name: t})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) ListFavourites(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, FavouritesResponse{Ids: s.favouritesSnapshot().IDs()})
}

func (s *Server) ToggleFavourite(w http.ResponseWriter, r *http.Request, id PhotoId) {
	fav, err := s.toggleFavourite(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to save favourites", map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, FavouriteToggleResponse{Id: id, Favourite: fav})
}

func (s *Server) toggleFavourite(ctx context.Context, id string) (bool, error) {
	s.favMu.Lock()
	defer s.favMu.Unlock()
	fav, err := s.favs.Toggle(ctx, id)
	if err != nil {
		s.logger.Error("save favourites", "id", id, "err", err)
	}
	return fav, err
}

func (s *Server) favouritesSnapshot() *gallery.Favourites {
	s.favMu.Lock()
	defer s.favMu.Unlock()
	return s.favs.Snapshot()
}

func (s *Server) GetMediaVariant(w http.ResponseWriter, r *http.Request, id PhotoId, variant GetMediaVariantParamsVariant) {
	ms, ok := source.MediaOf(s.src)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "media is served by the photo host", nil)
		return
	}
	switch variant {
	case GetMediaVariantParamsVariantOriginal, GetMediaVariantParamsVariantContent, GetMediaVariantParamsVariantThumb:
	default:
		writeError(w, http.StatusNotFound, "not_found", "variant not found", nil)
		return
	}

	etag := fmt.Sprintf("\"%s-%s\"", id, variant)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	obj, err := ms.Media(r.Context(), id, string(variant))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, media.ErrNotExist) || errors.Is(err, media.ErrUnknownVariant) {
			status = http.StatusNotFound
		}
		writeError(w, status, "not_found", "media not found", nil)
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("ETag", etag)
	cache := "public, max-age=86400"
	if variant != GetMediaVariantParamsVariantOriginal {
		cache = "public, max-age=31536000, immutable"
	}
	w.Header().Set("Cache-Control", cache)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, obj.Body)
}

func toAPIPhoto(p gallery.Photo) Photo {
	out := Photo{
		Id:     p.ID,
		Src:    p.Src,
		Width:  p.Width,
		Height: p.Height,
		Title:  p.Title,
		Tags:   p.Tags,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if !p.TakenAt.IsZero() {
		t := p.TakenAt
		out.TakenAt = &t
	}
	if p.BlurHash != "" {
		b := p.BlurHash
		out.Blurhash = &b
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	e := Error{Code: code, Message: message}
	if details != nil {
		e.Details = &details
	}
	writeJSON(w, status, e)
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", middleware.GetReqID(r.Context()),
				"duration", time.Since(start).String(),
			)
		})
	}
}

func getStringPtr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefStringSlice(v *[]string) []string {
	if v == nil {
		return nil
	}
	return *v
}

func deref[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}

func formValue(values map[string][]string, key string) string {
	if values == nil {
		return ""
	}
	vals := values[key]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
