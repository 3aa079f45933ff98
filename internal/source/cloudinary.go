package source

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/gallery/internal/gallery"
)

const (
	defaultCloudinaryAPI    = "https://api.cloudinary.com"
	defaultCloudinaryFolder = "gallery"
	defaultMaxResults       = 200
)

type CloudinaryConfig struct {
	CloudName  string
	APIKey     string
	APISecret  string
	Folder     string
	MaxResults int
	// BaseURL overrides the API host, mainly for tests.
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
	// Now is the clock used for upload timestamps.
	Now func() time.Time
}

// Cloudinary lists images from one folder of a Cloudinary account through
// the Search API and uploads into it with signed requests.
type Cloudinary struct {
	cfg    CloudinaryConfig
	http   *http.Client
	logger *slog.Logger
}

func NewCloudinary(cfg CloudinaryConfig) (*Cloudinary, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary: cloud name, api key and api secret are required")
	}
	if cfg.Folder == "" {
		cfg.Folder = defaultCloudinaryFolder
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultCloudinaryAPI
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	c := &Cloudinary{cfg: cfg, http: cfg.HTTPClient, logger: cfg.Logger}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

type cloudinaryResource struct {
	PublicID    string   `json:"public_id"`
	SecureURL   string   `json:"secure_url"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	DisplayName string   `json:"display_name"`
	Tags        []string `json:"tags"`
	CreatedAt   string   `json:"created_at"`
}

func (r cloudinaryResource) photo() gallery.Photo {
	title := r.DisplayName
	if title == "" {
		title = gallery.TitleFromPath(r.PublicID)
	}
	return gallery.Photo{
		ID:      r.PublicID,
		Src:     r.SecureURL,
		Width:   r.Width,
		Height:  r.Height,
		Title:   title,
		Tags:    gallery.NormalizeTags(r.Tags),
		TakenAt: gallery.ParseTimestamp(r.CreatedAt),
	}
}

type searchRequest struct {
	Expression string              `json:"expression"`
	SortBy     []map[string]string `json:"sort_by"`
	MaxResults int                 `json:"max_results"`
	WithField  []string            `json:"with_field"`
}

type searchResponse struct {
	TotalCount int                  `json:"total_count"`
	Resources  []cloudinaryResource `json:"resources"`
}

type cloudinaryError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SearchExpression is the Search API expression for the configured folder.
func (c *Cloudinary) SearchExpression() string {
	return fmt.Sprintf("folder:%s AND resource_type:image", c.cfg.Folder)
}

// List returns the newest images in the folder, up to MaxResults.
func (c *Cloudinary) List(ctx context.Context) ([]gallery.Photo, error) {
	body, err := json.Marshal(searchRequest{
		Expression: c.SearchExpression(),
		SortBy:     []map[string]string{{"created_at": "desc"}},
		MaxResults: c.cfg.MaxResults,
		WithField:  []string{"tags"},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("resources/search"), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.cfg.APIKey, c.cfg.APISecret)
	req.Header.Set("Content-Type", "application/json")

	var out searchResponse
	if err := c.do(req, "search", &out); err != nil {
		return nil, err
	}

	photos := make([]gallery.Photo, 0, len(out.Resources))
	for _, r := range out.Resources {
		if r.PublicID == "" {
			c.logger.Warn("cloudinary resource without public_id skipped")
			continue
		}
		photos = append(photos, r.photo())
	}
	return photos, nil
}

// Upload sends a signed upload into the folder.
func (c *Cloudinary) Upload(ctx context.Context, u Upload) (*gallery.Photo, error) {
	params := map[string]string{
		"folder":    c.cfg.Folder,
		"timestamp": strconv.FormatInt(c.cfg.Now().Unix(), 10),
	}
	if name := u.Title(); name != "" {
		params["display_name"] = name
	}
	if tags := gallery.NormalizeTags(u.Tags); len(tags) > 0 {
		params["tags"] = strings.Join(tags, ",")
	}
	params["signature"] = Sign(params, c.cfg.APISecret)
	params["api_key"] = c.cfg.APIKey

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := writeUploadForm(mw, params, u)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("image/upload"), pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var res cloudinaryResource
	if err := c.do(req, "upload", &res); err != nil {
		return nil, err
	}
	p := res.photo()
	c.logger.Info("uploaded to cloudinary", "public_id", p.ID, "bytes", u.Size)
	return &p, nil
}

func writeUploadForm(mw *multipart.Writer, params map[string]string, u Upload) error {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := mw.WriteField(k, params[k]); err != nil {
			return err
		}
	}
	fw, err := mw.CreateFormFile("file", u.Filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(fw, u.Body)
	return err
}

// Ping checks credentials against the Admin API.
func (c *Cloudinary) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("ping"), nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.cfg.APIKey, c.cfg.APISecret)
	return c.do(req, "ping", nil)
}

func (c *Cloudinary) endpoint(path string) string {
	return c.cfg.BaseURL + "/v1_1/" + url.PathEscape(c.cfg.CloudName) + "/" + path
}

func (c *Cloudinary) do(req *http.Request, op string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cloudinary %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		msg := strings.TrimSpace(string(raw))
		var ce cloudinaryError
		if json.Unmarshal(raw, &ce) == nil && ce.Error.Message != "" {
			msg = ce.Error.Message
		}
		if op == "upload" && resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return fmt.Errorf("%w: %s", ErrRejected, msg)
		}
		return fmt.Errorf("cloudinary %s: status %d: %s", op, resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("cloudinary %s: decode response: %w", op, err)
	}
	return nil
}

// Sign computes the Cloudinary request signature: the SHA-1 hex digest of
// the sorted key=value pairs joined by '&', followed by the API secret.
// Empty values are left out.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	b.WriteString(secret)
	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
