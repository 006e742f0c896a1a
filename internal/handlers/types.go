package handlers

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink-web/internal/httpx"
)

// CreateLinkRequest is the request body for creating a short link.
type CreateLinkRequest struct {
	Body struct {
		URL string `doc:"The URL to shorten" example:"https://example.com/very/long/path" json:"url" required:"false"`
	}

	host   string
	origin string
}

// Resolve captures the request host and origin for building short URLs.
func (r *CreateLinkRequest) Resolve(ctx huma.Context) []error {
	r.host = ctx.Host()
	r.origin = httpx.Origin(ctx.TLS() != nil, ctx.Header("X-Forwarded-Proto"), r.host)

	return nil
}

// LinkBody describes a stored short link.
type LinkBody struct {
	ShortID     string    `doc:"The short identifier" example:"V1StGXR8" json:"shortId"`
	ShortURL    string    `doc:"The full short URL" example:"http://localhost:8888/V1StGXR8" json:"shortUrl"`
	OriginalURL string    `doc:"The original URL" example:"https://example.com/very/long/path" json:"originalUrl"`
	CreatedAt   time.Time `doc:"When the link was first stored" json:"createdAt"`
}

// CreateLinkResponse is the response for a created or reused short link.
type CreateLinkResponse struct {
	Headers struct {
		Location string `doc:"The short URL location" header:"Location"`
	}
	Body LinkBody
}

// GetLinkRequest identifies a short link by its path segment.
type GetLinkRequest struct {
	ShortID string `doc:"The short identifier" example:"V1StGXR8" path:"shortID"`

	host string
}

// Resolve captures the request host for building short URLs.
func (r *GetLinkRequest) Resolve(ctx huma.Context) []error {
	r.host = ctx.Host()

	return nil
}

// GetLinkResponse is the response for a short link lookup.
type GetLinkResponse struct {
	Body LinkBody
}
