package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink-web/internal/httpx"
	"github.com/serroba/shortlink-web/internal/middleware"
	"github.com/serroba/shortlink-web/internal/shortener"
	"go.uber.org/zap"
)

// LinkService is the part of the resolution service the API needs.
type LinkService interface {
	Submit(ctx context.Context, url string) (*shortener.ShortLink, error)
	Lookup(ctx context.Context, id shortener.ShortID) (*shortener.ShortLink, error)
}

// LinkHandler serves the JSON API for short links.
type LinkHandler struct {
	service LinkService
	baseURL string
	logger  *zap.Logger
}

// NewLinkHandler creates a new API handler. An empty baseURL makes short
// URLs relative to the request host.
func NewLinkHandler(service LinkService, baseURL string, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service: service,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (h *LinkHandler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	link, err := h.service.Submit(ctx, req.Body.URL)
	if err != nil {
		return nil, h.apiError(ctx, err)
	}

	resp := &CreateLinkResponse{}
	resp.Body = h.linkBody(link, req.host)
	resp.Headers.Location = h.location(link, req.origin)

	return resp, nil
}

func (h *LinkHandler) GetLink(ctx context.Context, req *GetLinkRequest) (*GetLinkResponse, error) {
	link, err := h.service.Lookup(ctx, shortener.ShortID(req.ShortID))
	if err != nil {
		return nil, h.apiError(ctx, err)
	}

	return &GetLinkResponse{Body: h.linkBody(link, req.host)}, nil
}

func (h *LinkHandler) linkBody(link *shortener.ShortLink, host string) LinkBody {
	return LinkBody{
		ShortID:     string(link.ShortID),
		ShortURL:    shortener.ShortURL(httpx.BaseURL(h.baseURL, host), link.ShortID),
		OriginalURL: link.OriginalURL,
		CreatedAt:   link.CreatedAt,
	}
}

// location is the absolute URL of the short link. A host-relative short URL
// would be resolved against the request path by clients.
func (h *LinkHandler) location(link *shortener.ShortLink, origin string) string {
	return shortener.ShortURL(httpx.BaseURL(h.baseURL, origin), link.ShortID)
}

func (h *LinkHandler) apiError(ctx context.Context, err error) error {
	status := httpx.Status(err)
	if status >= 500 {
		h.logger.Error("link request failed",
			zap.String("requestId", middleware.RequestID(ctx)),
			zap.Error(err),
		)
	}

	return huma.NewError(status, httpx.Message(err))
}
