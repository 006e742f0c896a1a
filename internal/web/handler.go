// Package web serves the HTML form for shortening URLs and the short link
// redirects themselves.
package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/serroba/shortlink-web/internal/httpx"
	"github.com/serroba/shortlink-web/internal/middleware"
	"github.com/serroba/shortlink-web/internal/shortener"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// maxFormBytes bounds the submitted form or JSON body.
const maxFormBytes = 1 << 20

// LinkService is the part of the resolution service the pages need.
type LinkService interface {
	Submit(ctx context.Context, url string) (*shortener.ShortLink, error)
	Resolve(ctx context.Context, id shortener.ShortID) (string, error)
}

// Handler renders the index page and resolves short links.
type Handler struct {
	service LinkService
	baseURL string
	page    *template.Template
	static  fs.FS
	logger  *zap.Logger
}

type pageData struct {
	ShortURL string
	Href     string
	Error    string
}

// NewHandler parses the embedded templates. An empty baseURL makes short
// URLs relative to the request host.
func NewHandler(service LinkService, baseURL string, logger *zap.Logger) (*Handler, error) {
	page, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	return &Handler{
		service: service,
		baseURL: baseURL,
		page:    page,
		static:  static,
		logger:  logger,
	}, nil
}

// RegisterRoutes mounts the pages on r. Unmatched paths and methods render
// the not-found page.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/", h.Index)
	r.Post("/", h.Submit)
	r.Get("/static/*", h.Static)
	r.Get("/{shortID}", h.Redirect)
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.NotFound)
}

// Index renders the empty submission form.
func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	h.render(w, http.StatusOK, pageData{})
}

// Submit shortens the submitted url and renders the page with the result.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	url, err := submittedURL(w, r)
	if err != nil {
		h.fail(w, r, shortener.E("web.Submit", shortener.InvalidInput, err))

		return
	}

	link, err := h.service.Submit(r.Context(), url)
	if err != nil {
		h.fail(w, r, err)

		return
	}

	short := shortener.ShortURL(httpx.BaseURL(h.baseURL, r.Host), link.ShortID)

	h.render(w, http.StatusOK, pageData{ShortURL: short, Href: href(short)})
}

// Redirect sends the visitor to the original URL behind a short link.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	target, err := h.service.Resolve(r.Context(), shortener.ShortID(chi.URLParam(r, "shortID")))
	if err != nil {
		h.fail(w, r, err)

		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// Static serves the embedded assets. Misses and directories get the
// not-found page rather than a listing or a plain-text error.
func (h *Handler) Static(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")

	info, err := fs.Stat(h.static, name)
	if err != nil || info.IsDir() {
		h.NotFound(w, r)

		return
	}

	http.ServeFileFS(w, r, h.static, name)
}

// NotFound renders the page with a not-found error.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.fail(w, r, shortener.E("web.NotFound", shortener.NotFound, errors.New(http.StatusText(http.StatusNotFound))))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := httpx.Status(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("requestId", middleware.RequestID(r.Context())),
			zap.Error(err),
		)
	}

	h.render(w, status, pageData{Error: httpx.Message(err)})
}

func (h *Handler) render(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		h.logger.Error("failed to render page", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// submittedURL reads the url field from a form or JSON body.
func submittedURL(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body struct {
			URL string `json:"url"`
		}

		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", errors.New("malformed json body")
		}

		return body.URL, nil
	}

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxFormBytes); err != nil {
			return "", errors.New("malformed form body")
		}
	} else if err := r.ParseForm(); err != nil {
		return "", errors.New("malformed form body")
	}

	return r.PostForm.Get("url"), nil
}

// href makes a host-relative short URL clickable.
func href(short string) string {
	if strings.Contains(short, "://") {
		return short
	}

	return "//" + short
}
