package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/link-registry/internal/ratelimit"
)

// ReservedCodes are single-segment paths served by other routes, which a short
// code must not shadow.
var ReservedCodes = []string{"shorten", "health", "metrics", "docs"}

// RegisterRoutes registers the registry routes with their rate limit scopes.
func RegisterRoutes(api huma.API, urlHandler *URLHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-short-url",
		Method:        http.MethodPost,
		Path:          "/shorten",
		DefaultStatus: http.StatusCreated,
		Summary:       "Create short URL",
		Description:   "Registers a URL under a generated or custom short code with a validity window.",
		Tags:          []string{"URLs"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeCreate},
		},
	}, urlHandler.CreateShortURL)

	huma.Register(api, huma.Operation{
		OperationID: "list-entries",
		Method:      http.MethodGet,
		Path:        "/api/urls",
		Summary:     "List short URLs",
		Description: "Lists every registered entry in creation order with aggregate statistics.",
		Tags:        []string{"Statistics"},
	}, urlHandler.ListEntries)

	huma.Register(api, huma.Operation{
		OperationID: "get-entry",
		Method:      http.MethodGet,
		Path:        "/api/urls/{code}",
		Summary:     "Get short URL statistics",
		Description: "Returns one entry and its click log. Expired entries are still returned until purged.",
		Tags:        []string{"Statistics"},
	}, urlHandler.GetEntry)

	huma.Register(api, huma.Operation{
		OperationID: "purge-expired",
		Method:      http.MethodPost,
		Path:        "/api/purge",
		Summary:     "Purge expired entries",
		Description: "Removes every entry whose expiry time has passed.",
		Tags:        []string{"Maintenance"},
	}, urlHandler.PurgeExpired)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to original URL",
		Description: "Resolves a short code, records the click and redirects while the entry is active.",
		Tags:        []string{"URLs"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeRedirect},
		},
	}, urlHandler.RedirectToURL)
}
