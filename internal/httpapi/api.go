package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// Types and request binding for the operations in openapi.yaml.

const (
	Ok HealthStatus = "ok"
)

const (
	All        ListPhotosParamsCategory = "all"
	Favourites ListPhotosParamsCategory = "favourites"
)

const (
	Newest ListPhotosParamsSort = "newest"
	Oldest ListPhotosParamsSort = "oldest"
	Title  ListPhotosParamsSort = "title"
)

const (
	GetMediaVariantParamsVariantOriginal GetMediaVariantParamsVariant = "original"
	GetMediaVariantParamsVariantContent  GetMediaVariantParamsVariant = "content"
	GetMediaVariantParamsVariantThumb    GetMediaVariantParamsVariant = "thumb"
)

type HealthStatus string

type Health struct {
	Status HealthStatus `json:"status"`
}

type Error struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details *map[string]any `json:"details,omitempty"`
}

type Photo struct {
	Id       PhotoId    `json:"id"`
	Src      string     `json:"src"`
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	Title    string     `json:"title"`
	Tags     []string   `json:"tags"`
	TakenAt  *time.Time `json:"takenAt,omitempty"`
	Blurhash *string    `json:"blurhash,omitempty"`
}

type PhotoId = string

type PhotoListResponse struct {
	Photos []Photo `json:"photos"`
	Total  int     `json:"total"`
}

type Tag struct {
	Name string `json:"name"`
}

type TagListResponse struct {
	Items []Tag `json:"items"`
}

type FavouritesResponse struct {
	Ids []PhotoId `json:"ids"`
}

type FavouriteToggleResponse struct {
	Id        PhotoId `json:"id"`
	Favourite bool    `json:"favourite"`
}

type ListPhotosParamsCategory string

type ListPhotosParamsSort string

type ListPhotosParams struct {
	Q        *string                   `form:"q,omitempty" json:"q,omitempty"`
	Tag      *[]string                 `form:"tag,omitempty" json:"tag,omitempty"`
	Category *ListPhotosParamsCategory `form:"category,omitempty" json:"category,omitempty"`
	Sort     *ListPhotosParamsSort     `form:"sort,omitempty" json:"sort,omitempty"`
	Limit    *int                      `form:"limit,omitempty" json:"limit,omitempty"`
}

type ListTagsParams struct {
	Prefix *string `form:"prefix,omitempty" json:"prefix,omitempty"`
	Limit  *int    `form:"limit,omitempty" json:"limit,omitempty"`
}

type GetMediaVariantParamsVariant string

type ServerInterface interface {
	GetHealthz(w http.ResponseWriter, r *http.Request)
	GetReadyz(w http.ResponseWriter, r *http.Request)
	ListPhotos(w http.ResponseWriter, r *http.Request, params ListPhotosParams)
	UploadPhoto(w http.ResponseWriter, r *http.Request)
	ListTags(w http.ResponseWriter, r *http.Request, params ListTagsParams)
	ListFavourites(w http.ResponseWriter, r *http.Request)
	ToggleFavourite(w http.ResponseWriter, r *http.Request, id PhotoId)
	GetMediaVariant(w http.ResponseWriter, r *http.Request, id PhotoId, variant GetMediaVariantParamsVariant)
}

type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// ServerInterfaceWrapper binds path and query parameters before calling the
// handler.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *ServerInterfaceWrapper) ListPhotos(w http.ResponseWriter, r *http.Request) {
	var params ListPhotosParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "q", query, &params.Q); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "q", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "tag", query, &params.Tag); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "tag", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "category", query, &params.Category); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "category", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "sort", query, &params.Sort); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "sort", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &params.Limit); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}

	siw.Handler.ListPhotos(w, r, params)
}

func (siw *ServerInterfaceWrapper) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	siw.Handler.UploadPhoto(w, r)
}

func (siw *ServerInterfaceWrapper) ListTags(w http.ResponseWriter, r *http.Request) {
	var params ListTagsParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "prefix", query, &params.Prefix); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "prefix", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &params.Limit); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}

	siw.Handler.ListTags(w, r, params)
}

func (siw *ServerInterfaceWrapper) ListFavourites(w http.ResponseWriter, r *http.Request) {
	siw.Handler.ListFavourites(w, r)
}

func (siw *ServerInterfaceWrapper) ToggleFavourite(w http.ResponseWriter, r *http.Request) {
	var id PhotoId
	if err := bindPathParam("id", chi.URLParam(r, "id"), &id); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return
	}
	siw.Handler.ToggleFavourite(w, r, id)
}

func (siw *ServerInterfaceWrapper) GetMediaVariant(w http.ResponseWriter, r *http.Request) {
	var id PhotoId
	if err := bindPathParam("id", chi.URLParam(r, "id"), &id); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return
	}
	var variant GetMediaVariantParamsVariant
	if err := bindPathParam("variant", chi.URLParam(r, "variant"), &variant); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "variant", Err: err})
		return
	}
	siw.Handler.GetMediaVariant(w, r, id, variant)
}

// bindPathParam unescapes a simple-style path segment, so identifiers with
// an encoded slash arrive whole.
func bindPathParam(name, value string, dest any) error {
	return runtime.BindStyledParameterWithOptions("simple", name, value, dest, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
}
