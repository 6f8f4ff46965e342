package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/link-registry/internal/middleware"
	"github.com/serroba/link-registry/internal/ratelimit"
	"github.com/serroba/link-registry/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testRemoteAddr = "192.168.1.1:12345"
	testUserAgent  = "TestAgent/1.0"
)

type failingStore struct{}

func (failingStore) Record(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("store unavailable")
}

func tightPolicy() *ratelimit.Policy {
	return &ratelimit.Policy{
		Limits: map[ratelimit.Scope][]ratelimit.LimitConfig{
			ratelimit.ScopeGlobal: {{Window: time.Minute, Max: 100}},
			ratelimit.ScopeRead:   {{Window: time.Minute, Max: 2}},
			ratelimit.ScopeCreate: {{Window: time.Minute, Max: 1}},
		},
	}
}

func newLimitedRouter(t *testing.T, st ratelimit.Store, ops ...huma.Operation) *chi.Mux {
	t.Helper()

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.PolicyRateLimiter(
		api,
		ratelimit.NewPolicyLimiter(st, tightPolicy()),
		ratelimit.NewOperationScopeResolver(),
		zap.NewNop(),
	))

	for _, op := range ops {
		huma.Register(api, op, func(_ context.Context, _ *struct{}) (*testOutput, error) {
			return &testOutput{Body: "ok"}, nil
		})
	}

	return router
}

func send(router http.Handler, method, path, remote, ua string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remote
	req.Header.Set("User-Agent", ua)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestPolicyRateLimiter(t *testing.T) {
	readOp := huma.Operation{OperationID: "read", Method: http.MethodGet, Path: "/read"}

	t.Run("allows requests under the limit", func(t *testing.T) {
		router := newLimitedRouter(t, store.NewRateLimitMemoryStore(), readOp)

		assert.Equal(t, http.StatusOK, send(router, http.MethodGet, "/read", testRemoteAddr, testUserAgent).Code)
		assert.Equal(t, http.StatusOK, send(router, http.MethodGet, "/read", testRemoteAddr, testUserAgent).Code)
	})

	t.Run("returns 429 once the scope limit is reached", func(t *testing.T) {
		router := newLimitedRouter(t, store.NewRateLimitMemoryStore(), readOp)

		for range 2 {
			require.Equal(t, http.StatusOK, send(router, http.MethodGet, "/read", testRemoteAddr, testUserAgent).Code)
		}

		w := send(router, http.MethodGet, "/read", testRemoteAddr, testUserAgent)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "read scope")
	})

	t.Run("tracks clients separately", func(t *testing.T) {
		router := newLimitedRouter(t, store.NewRateLimitMemoryStore(), readOp)

		for range 2 {
			require.Equal(t, http.StatusOK, send(router, http.MethodGet, "/read", testRemoteAddr, testUserAgent).Code)
		}

		assert.Equal(t, http.StatusOK, send(router, http.MethodGet, "/read", "10.0.0.9:4000", testUserAgent).Code)
		assert.Equal(t, http.StatusOK, send(router, http.MethodGet, "/read", testRemoteAddr, "OtherAgent/2.0").Code)
	})

	t.Run("uses the operation scope", func(t *testing.T) {
		router := newLimitedRouter(t, store.NewRateLimitMemoryStore(), huma.Operation{
			OperationID: "create",
			Method:      http.MethodPost,
			Path:        "/create",
			Metadata: map[string]any{
				ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeCreate},
			},
		})

		assert.Equal(t, http.StatusOK, send(router, http.MethodPost, "/create", testRemoteAddr, testUserAgent).Code)
		assert.Equal(t, http.StatusTooManyRequests, send(router, http.MethodPost, "/create", testRemoteAddr, testUserAgent).Code)
	})

	t.Run("custom limits replace the policy", func(t *testing.T) {
		router := newLimitedRouter(t, store.NewRateLimitMemoryStore(), huma.Operation{
			OperationID: "custom",
			Method:      http.MethodGet,
			Path:        "/custom",
			Metadata: map[string]any{
				ratelimit.MetadataKey: ratelimit.EndpointConfig{
					Limits: []ratelimit.LimitConfig{{Window: time.Minute, Max: 4}},
				},
			},
		})

		for range 4 {
			require.Equal(t, http.StatusOK, send(router, http.MethodGet, "/custom", testRemoteAddr, testUserAgent).Code)
		}

		assert.Equal(t, http.StatusTooManyRequests, send(router, http.MethodGet, "/custom", testRemoteAddr, testUserAgent).Code)
	})

	t.Run("custom limits are shared across path values", func(t *testing.T) {
		router := newLimitedRouter(t, store.NewRateLimitMemoryStore(), huma.Operation{
			OperationID: "by-code",
			Method:      http.MethodGet,
			Path:        "/items/{code}",
			Metadata: map[string]any{
				ratelimit.MetadataKey: ratelimit.EndpointConfig{
					Limits: []ratelimit.LimitConfig{{Window: time.Minute, Max: 1}},
				},
			},
		})

		assert.Equal(t, http.StatusOK, send(router, http.MethodGet, "/items/a", testRemoteAddr, testUserAgent).Code)
		assert.Equal(t, http.StatusTooManyRequests, send(router, http.MethodGet, "/items/b", testRemoteAddr, testUserAgent).Code)
	})

	t.Run("disabled endpoints skip limiting", func(t *testing.T) {
		router := newLimitedRouter(t, failingStore{}, huma.Operation{
			OperationID: "open",
			Method:      http.MethodGet,
			Path:        "/open",
			Metadata: map[string]any{
				ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
			},
		})

		for range 5 {
			assert.Equal(t, http.StatusOK, send(router, http.MethodGet, "/open", testRemoteAddr, testUserAgent).Code)
		}
	})

	t.Run("returns 500 when the store fails", func(t *testing.T) {
		router := newLimitedRouter(t, failingStore{}, readOp)

		w := send(router, http.MethodGet, "/read", testRemoteAddr, testUserAgent)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
