// Package client talks to the gallery HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/example/gallery/internal/gallery"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

// Client is safe for concurrent use. Concurrent ListPhotos calls share one
// request.
type Client struct {
	baseURL string
	ua      string
	http    *http.Client
	logger  *slog.Logger
	group   singleflight.Group
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.ua = ua }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New builds a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		ua:      "galleryctl",
		http:    &http.Client{Timeout: defaultTimeout, Transport: transport},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type listResponse struct {
	Photos []json.RawMessage `json:"photos"`
}

// ListPhotos fetches the full photo set. Records that fail to decode are
// skipped.
func (c *Client) ListPhotos(ctx context.Context) ([]gallery.Photo, error) {
	ch := c.group.DoChan("list", func() (any, error) {
		return c.listPhotos(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, classifyRequestError(ctx, "list", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		photos := res.Val.([]gallery.Photo)
		return append([]gallery.Photo(nil), photos...), nil
	}
}

func (c *Client) listPhotos(ctx context.Context) ([]gallery.Photo, error) {
	var body listResponse
	if err := c.do(ctx, "list", http.MethodGet, "/api/photos", nil, "", &body); err != nil {
		return nil, err
	}
	photos := make([]gallery.Photo, 0, len(body.Photos))
	for i, raw := range body.Photos {
		var r RemotePhoto
		if err := json.Unmarshal(raw, &r); err != nil {
			c.logger.Warn("skipping malformed photo record", "index", i, "err", err)
			continue
		}
		p, err := DecodePhoto(r)
		if err != nil {
			c.logger.Warn("skipping photo record", "index", i, "err", err)
			continue
		}
		photos = append(photos, p)
	}
	return photos, nil
}

// Upload is one file to add to the gallery.
type Upload struct {
	Filename    string
	DisplayName string
	Tags        []string
	Body        io.Reader
}

// Name is the display name sent with the upload: DisplayName when set,
// otherwise the file name.
func (u Upload) Name() string {
	if n := strings.TrimSpace(u.DisplayName); n != "" {
		return n
	}
	return u.Filename
}

// UploadPhoto sends u as a multipart form. Callers refresh the listing on
// success.
func (c *Client) UploadPhoto(ctx context.Context, u Upload) (*gallery.Photo, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", u.Filename)
	if err != nil {
		return nil, &FetchError{Op: "upload", Kind: KindRequest, Err: err}
	}
	if _, err := io.Copy(fw, u.Body); err != nil {
		return nil, &FetchError{Op: "upload", Kind: KindRequest, Err: err}
	}
	_ = mw.WriteField("displayName", u.Name())
	for _, t := range u.Tags {
		_ = mw.WriteField("tags", t)
	}
	if err := mw.Close(); err != nil {
		return nil, &FetchError{Op: "upload", Kind: KindRequest, Err: err}
	}

	var r RemotePhoto
	if err := c.do(ctx, "upload", http.MethodPost, "/api/upload", &buf, mw.FormDataContentType(), &r); err != nil {
		return nil, err
	}
	p, err := DecodePhoto(r)
	if err != nil {
		return nil, &FetchError{Op: "upload", Kind: KindDecode, Err: err}
	}
	return &p, nil
}

type favouritesResponse struct {
	IDs []string `json:"ids"`
}

// ListFavourites returns the favourited identifiers held by the server.
func (c *Client) ListFavourites(ctx context.Context) ([]string, error) {
	var body favouritesResponse
	if err := c.do(ctx, "favourites", http.MethodGet, "/api/favourites", nil, "", &body); err != nil {
		return nil, err
	}
	return body.IDs, nil
}

type toggleResponse struct {
	ID        string `json:"id"`
	Favourite bool   `json:"favourite"`
}

// ToggleFavourite flips id on the server and returns the new membership.
func (c *Client) ToggleFavourite(ctx context.Context, id string) (bool, error) {
	var body toggleResponse
	path := "/api/favourites/" + url.PathEscape(id) + "/toggle"
	if err := c.do(ctx, "toggle favourite", http.MethodPost, path, nil, "", &body); err != nil {
		return false, err
	}
	return body.Favourite, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &FetchError{Op: op, Kind: KindRequest, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.ua != "" {
		req.Header.Set("User-Agent", c.ua)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyRequestError(ctx, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &FetchError{Op: op, Kind: KindStatus, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Op: op, Kind: KindDecode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
