package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the short link API.
func RegisterRoutes(api huma.API, h *LinkHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/api/links",
		Summary:       "Create short link",
		Description:   "Returns the short link for a URL, creating it the first time the URL is seen.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateLink)

	huma.Register(api, huma.Operation{
		OperationID: "get-link",
		Method:      http.MethodGet,
		Path:        "/api/links/{shortID}",
		Summary:     "Get short link",
		Description: "Returns the stored record for a short identifier.",
		Tags:        []string{"Links"},
	}, h.GetLink)
}
