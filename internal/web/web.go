// Package web renders the gallery page from a gallery.View. All state lives
// in the page URL: q, tag (repeated), category, sort, n (visible count) and
// open (the lightbox photo).
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/example/gallery/internal/gallery"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is everything the gallery template needs.
type Page struct {
	View          gallery.View
	SortModes     []gallery.SortMode
	UploadEnabled bool
	Notice        string
	Error         string
}

type Renderer struct {
	tmpl *template.Template
}

func New() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"date":       formatDate,
		"datetime":   formatDateTime,
		"pathEscape": url.PathEscape,
		"add":        func(a, b int) int { return a + b },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the full page. It renders into a buffer first so a
// template error never leaves a half written response.
func (r *Renderer) Render(w io.Writer, p Page) error {
	if p.SortModes == nil {
		p.SortModes = gallery.SortModes
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "index.html", p); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// State encodes a selection plus the visible count and open photo as query
// parameters.
func State(sel gallery.Selection, visible int, open string) url.Values {
	v := url.Values{}
	if q := sel.TrimmedQuery(); q != "" {
		v.Set("q", q)
	}
	for _, t := range sel.Tags {
		v.Add("tag", t)
	}
	if sel.Category == gallery.CategoryFavourites {
		v.Set("category", string(gallery.CategoryFavourites))
	}
	if sel.Sort != "" && sel.Sort != gallery.SortNewest {
		v.Set("sort", string(sel.Sort))
	}
	if visible > 0 {
		v.Set("n", strconv.Itoa(visible))
	}
	if open != "" {
		v.Set("open", open)
	}
	return v
}

// ParseState is the inverse of State. Unknown category and sort values
// fall back to their defaults.
func ParseState(q url.Values) (sel gallery.Selection, visible int, open string) {
	sel = gallery.DefaultSelection()
	sel.Query = q.Get("q")
	sel.Tags = gallery.NormalizeTags(q["tag"])
	sel.Category = gallery.ParseCategory(q.Get("category"))
	sel.Sort = gallery.ParseSortMode(q.Get("sort"))
	visible, _ = strconv.Atoi(q.Get("n"))
	open = q.Get("open")
	return sel, visible, open
}

func link(v url.Values) string {
	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}

// Self is the link to the page as it is.
func (p Page) Self() string {
	return link(State(p.View.Selection, p.visible(), p.openID()))
}

// visible is the count worth carrying in links; the initial page is implied.
func (p Page) visible() int {
	if p.View.VisibleCount <= p.View.PageSize {
		return 0
	}
	return p.View.VisibleCount
}

// TagURL toggles tag. Selection changes reset the visible count.
func (p Page) TagURL(tag string) string {
	return link(State(p.View.Selection.WithTagToggled(tag), 0, ""))
}

func (p Page) ClearTagsURL() string {
	sel := p.View.Selection
	sel.Tags = nil
	return link(State(sel, 0, ""))
}

func (p Page) CategoryURL(c string) string {
	sel := p.View.Selection
	sel.Category = gallery.ParseCategory(c)
	return link(State(sel, 0, ""))
}

// OpenURL opens the lightbox on id keeping the visible count.
func (p Page) OpenURL(id string) string {
	return link(State(p.View.Selection, p.visible(), id))
}

func (p Page) CloseURL() string {
	return link(State(p.View.Selection, p.visible(), ""))
}

// MoreURL is the page with the next increment revealed.
func (p Page) MoreURL() string {
	return link(State(p.View.Selection, p.View.NextCount, ""))
}

func (p Page) PrevURL() string {
	if p.View.Lightbox == nil {
		return ""
	}
	return p.OpenURL(p.View.Lightbox.PrevID)
}

func (p Page) NextURL() string {
	if p.View.Lightbox == nil {
		return ""
	}
	return p.OpenURL(p.View.Lightbox.NextID)
}

func (p Page) IsSort(m gallery.SortMode) bool {
	return p.View.Selection.Sort == m
}

func (p Page) IsCategory(c string) bool {
	return p.View.Selection.Category == gallery.ParseCategory(c)
}

func (p Page) openID() string {
	if p.View.Lightbox == nil {
		return ""
	}
	return p.View.Lightbox.Photo.ID
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "Unknown date"
	}
	return t.Format("January 2, 2006 at 3:04 PM")
}
