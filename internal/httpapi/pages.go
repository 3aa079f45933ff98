package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/gallery/internal/gallery"
	"github.com/example/gallery/internal/source"
	"github.com/example/gallery/internal/web"
)

// GetIndex renders the gallery page. The session is rebuilt per request
// from the URL state, so concurrent viewers never share selection state.
func (s *Server) GetIndex(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := web.Page{
		UploadEnabled: s.uploadEnabled(),
		Notice:        query.Get("notice"),
		Error:         query.Get("error"),
	}

	photos, err := s.src.List(r.Context())
	if err != nil {
		s.logger.Error("list photos", "err", err)
		page.Error = "Could not load photos. Try again later."
		photos = nil
	}

	sess := gallery.NewSession(photos, s.favouritesSnapshot(), gallery.Options{
		PageSize:      s.cfg.PageSize,
		PageIncrement: s.cfg.PageIncrement,
		Collation:     s.cfg.Language(),
	})
	defer sess.Close()

	sel, visible, open := web.ParseState(query)
	sess.SetSelection(sel)
	if visible > 0 {
		sess.Restore(visible)
	}
	if open != "" {
		sess.Open(open)
	}
	page.View = sess.View()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.pages.Render(w, page); err != nil {
		s.logger.Error("render gallery", "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

// PostFavouriteForm toggles a favourite from the page and redirects back.
func (s *Server) PostFavouriteForm(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil || id == "" {
		http.Error(w, "invalid photo id", http.StatusBadRequest)
		return
	}
	back := returnTo(r.PostFormValue("return"))
	if _, err := s.toggleFavourite(r.Context(), id); err != nil {
		back = withParam(back, "error", "Could not save favourites.")
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// PostUploadForm handles the page's upload control. Success and failure are
// both reported on the redirected page.
func (s *Server) PostUploadForm(w http.ResponseWriter, r *http.Request) {
	photo, _, err := s.upload(w, r)
	if err != nil {
		msg := "Upload failed: " + err.Error()
		if errors.Is(err, source.ErrUploadUnsupported) {
			msg = "This gallery does not accept uploads."
		}
		http.Redirect(w, r, withParam("/", "error", msg), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, withParam("/", "notice", "Uploaded "+photo.Title+"."), http.StatusSeeOther)
}

func (s *Server) uploadEnabled() bool {
	_, demo := unwrapDemo(s.src)
	return !demo
}

func unwrapDemo(src source.Source) (*source.Demo, bool) {
	for src != nil {
		if d, ok := src.(*source.Demo); ok {
			return d, true
		}
		w, ok := src.(interface{ Unwrap() source.Source })
		if !ok {
			return nil, false
		}
		src = w.Unwrap()
	}
	return nil, false
}

// returnTo only follows local paths.
func returnTo(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	return raw
}

func withParam(target, key, value string) string {
	u, err := url.Parse(target)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
