package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/link-registry/internal/analytics"
	"github.com/serroba/link-registry/internal/messaging"
	"github.com/serroba/link-registry/internal/metrics"
	"github.com/serroba/link-registry/internal/registry"
	"go.uber.org/zap"
)

// Publishers groups the analytics publish functions used by the handlers.
type Publishers struct {
	EntryCreated  messaging.Publish[analytics.EntryCreatedEvent]
	EntryClicked  messaging.Publish[analytics.EntryClickedEvent]
	EntriesPurged messaging.Publish[analytics.EntriesPurgedEvent]
}

// NopPublishers returns publishers that drop every event.
func NopPublishers() Publishers {
	return Publishers{
		EntryCreated:  messaging.NopPublish[analytics.EntryCreatedEvent](),
		EntryClicked:  messaging.NopPublish[analytics.EntryClickedEvent](),
		EntriesPurged: messaging.NopPublish[analytics.EntriesPurgedEvent](),
	}
}

// URLHandler handles URL shortening operations.
type URLHandler struct {
	registry *registry.Registry
	resolver *registry.Resolver
	baseURL  string
	publish  Publishers
	logger   *zap.Logger
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(
	reg *registry.Registry,
	baseURL string,
	publish Publishers,
	logger *zap.Logger,
) *URLHandler {
	return &URLHandler{
		registry: reg,
		resolver: registry.NewResolver(reg),
		baseURL:  baseURL,
		publish:  publish,
		logger:   logger,
	}
}

type requestMetaKey struct{}

// RequestMeta holds HTTP request metadata for analytics.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

func (h *URLHandler) CreateShortURL(ctx context.Context, req *CreateShortURLRequest) (*CreateShortURLResponse, error) {
	entry, err := h.registry.Create(ctx, registry.CreateParams{
		OriginalURL:     req.Body.URL,
		CustomCode:      req.Body.CustomCode,
		ValidityMinutes: req.Body.ValidityMinutes,
	})
	if err != nil {
		return nil, h.toHTTPError(err)
	}

	codeType := "generated"
	if entry.IsCustom() {
		codeType = "custom"
	}

	metrics.EntriesCreated.WithLabelValues(codeType).Inc()

	meta := RequestMetaFromContext(ctx)
	event := &analytics.EntryCreatedEvent{
		ID:              entry.ID,
		Code:            string(entry.ShortCode),
		OriginalURL:     entry.OriginalURL,
		Custom:          entry.IsCustom(),
		ValidityMinutes: entry.ValidityMinutes,
		CreatedAt:       entry.CreatedAt,
		ExpiresAt:       entry.ExpiresAt,
		ClientIP:        meta.ClientIP,
		UserAgent:       meta.UserAgent,
	}

	if err := h.publish.EntryCreated(ctx, event); err != nil {
		h.logger.Error("failed to publish analytics event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	resp := &CreateShortURLResponse{}
	resp.Body = h.view(entry)
	resp.Headers.Location = resp.Body.ShortURL

	return resp, nil
}

func (h *URLHandler) RedirectToURL(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	meta := RequestMetaFromContext(ctx)

	res, err := h.resolver.Resolve(ctx, registry.Code(req.Code), meta.Referrer)
	metrics.Resolutions.WithLabelValues(string(res.State)).Inc()

	switch res.State {
	case registry.StateNotFound:
		return nil, huma.Error404NotFound("short url not found")
	case registry.StateExpired:
		return nil, huma.Error410Gone("short url has expired")
	case registry.StateActive:
		if err != nil {
			// Click telemetry is best-effort, the redirect is still served.
			h.logger.Error("failed to record click",
				zap.String("code", req.Code),
				zap.Error(err),
			)
		}
	default:
		h.logger.Error("failed to resolve short code", zap.String("code", req.Code), zap.Error(err))

		return nil, h.toHTTPError(err)
	}

	event := &analytics.EntryClickedEvent{
		Code:      req.Code,
		ClickedAt: h.registry.Now(),
		Referrer:  meta.Referrer,
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
	}

	if err = h.publish.EntryClicked(ctx, event); err != nil {
		h.logger.Error("failed to publish click event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	resp := &RedirectResponse{Status: http.StatusFound}
	resp.Headers.Location = res.Entry.OriginalURL
	resp.Headers.CacheControl = "no-store"

	return resp, nil
}

func (h *URLHandler) GetEntry(ctx context.Context, req *GetEntryRequest) (*GetEntryResponse, error) {
	entry, err := h.registry.Lookup(ctx, registry.Code(req.Code))
	if err != nil {
		return nil, h.toHTTPError(err)
	}

	resp := &GetEntryResponse{}
	resp.Body.Entry = h.view(entry)
	resp.Body.Clicks = make([]ClickView, 0, len(entry.Clicks))

	for _, c := range entry.Clicks {
		resp.Body.Clicks = append(resp.Body.Clicks, ClickView{
			Timestamp: c.Timestamp,
			Referrer:  c.Referrer,
			Location:  c.Location,
		})
	}

	return resp, nil
}

func (h *URLHandler) ListEntries(ctx context.Context, _ *struct{}) (*ListEntriesResponse, error) {
	entries, err := h.registry.List(ctx)
	if err != nil {
		return nil, h.toHTTPError(err)
	}

	summary := registry.Summarize(entries, h.registry.Now())

	resp := &ListEntriesResponse{}
	resp.Body.Entries = make([]EntryView, 0, len(entries))

	for i := range entries {
		resp.Body.Entries = append(resp.Body.Entries, h.view(&entries[i]))
	}

	resp.Body.TotalURLs = summary.TotalURLs
	resp.Body.TotalClicks = summary.TotalClicks
	resp.Body.Active = summary.Active
	resp.Body.Expired = summary.Expired

	return resp, nil
}

func (h *URLHandler) PurgeExpired(ctx context.Context, _ *struct{}) (*PurgeResponse, error) {
	now := h.registry.Now()

	removed, err := h.registry.PurgeExpired(ctx, now)
	if err != nil {
		return nil, h.toHTTPError(err)
	}

	if removed > 0 {
		metrics.EntriesPurged.Add(float64(removed))

		event := &analytics.EntriesPurgedEvent{Removed: removed, PurgedAt: now, Trigger: "api"}
		if err = h.publish.EntriesPurged(ctx, event); err != nil {
			h.logger.Error("failed to publish purge event", zap.Error(err))
		}
	}

	resp := &PurgeResponse{}
	resp.Body.Removed = removed

	return resp, nil
}

func (h *URLHandler) view(e *registry.Entry) EntryView {
	status := "active"
	if e.IsExpired(h.registry.Now()) {
		status = "expired"
	}

	return EntryView{
		ID:              e.ID,
		Code:            string(e.ShortCode),
		ShortURL:        registry.FullShortURL(h.baseURL, e.ShortCode),
		OriginalURL:     e.OriginalURL,
		Custom:          e.IsCustom(),
		CreatedAt:       e.CreatedAt,
		ExpiresAt:       e.ExpiresAt,
		ValidityMinutes: e.ValidityMinutes,
		ClickCount:      len(e.Clicks),
		Status:          status,
	}
}

// toHTTPError maps registry errors to huma status errors.
func (h *URLHandler) toHTTPError(err error) error {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return huma.Error404NotFound("short url not found")
	case errors.Is(err, registry.ErrCodeTaken):
		return huma.Error409Conflict(err.Error())
	case registry.IsValidation(err):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, registry.ErrCodeSpaceExhausted):
		return huma.Error503ServiceUnavailable("no short code available, retry later")
	case errors.Is(err, registry.ErrWriteFailed), errors.Is(err, registry.ErrReadFailed):
		h.logger.Error("storage failure", zap.Error(err))

		return huma.Error503ServiceUnavailable("storage unavailable, retry later")
	default:
		h.logger.Error("unexpected registry error", zap.Error(err))

		return huma.Error500InternalServerError("internal server error")
	}
}
