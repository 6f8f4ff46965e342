package health_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/link-registry/internal/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockChecker struct {
	err error
}

func (m *mockChecker) Ping(_ context.Context) error {
	return m.err
}

func TestHandler_Check(t *testing.T) {
	t.Run("returns ok when every dependency is healthy", func(t *testing.T) {
		handler := health.NewHandler(zap.NewNop(),
			health.Check{Name: "store", Checker: &mockChecker{}},
			health.Check{Name: "redis", Checker: &mockChecker{}},
		)

		resp, err := handler.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Body.Status)
		assert.Equal(t, map[string]string{"store": "healthy", "redis": "healthy"}, resp.Body.Checks)
	})

	t.Run("returns degraded when a dependency is unhealthy", func(t *testing.T) {
		handler := health.NewHandler(zap.NewNop(),
			health.Check{Name: "store", Checker: &mockChecker{}},
			health.Check{Name: "redis", Checker: &mockChecker{err: errors.New("connection refused")}},
		)

		resp, err := handler.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "degraded", resp.Body.Status)
		assert.Equal(t, "healthy", resp.Body.Checks["store"])
		assert.Equal(t, "unhealthy", resp.Body.Checks["redis"])
	})

	t.Run("returns ok without checks", func(t *testing.T) {
		handler := health.NewHandler(zap.NewNop())

		resp, err := handler.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Body.Status)
		assert.Empty(t, resp.Body.Checks)
	})

	t.Run("bounds each check with a deadline", func(t *testing.T) {
		var hasDeadline bool

		handler := health.NewHandler(zap.NewNop(), health.Check{
			Name: "store",
			Checker: health.CheckerFunc(func(ctx context.Context) error {
				_, hasDeadline = ctx.Deadline()

				return nil
			}),
		})

		_, err := handler.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.True(t, hasDeadline)
	})

	t.Run("runs checks concurrently", func(t *testing.T) {
		var arrived sync.WaitGroup

		arrived.Add(2)

		ready := make(chan struct{})

		go func() {
			arrived.Wait()
			close(ready)
		}()

		// Each check only passes once the other one has started.
		rendezvous := health.CheckerFunc(func(ctx context.Context) error {
			arrived.Done()

			select {
			case <-ready:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})

		handler := health.NewHandler(zap.NewNop(),
			health.Check{Name: "store", Checker: rendezvous},
			health.Check{Name: "redis", Checker: rendezvous},
		)

		resp, err := handler.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Body.Status)
		assert.Equal(t, map[string]string{"store": "healthy", "redis": "healthy"}, resp.Body.Checks)
	})
}

func TestRegisterRoutes(t *testing.T) {
	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("test", "1.0.0"))
	health.RegisterRoutes(api, health.NewHandler(zap.NewNop(),
		health.Check{Name: "store", Checker: &mockChecker{err: errors.New("down")}},
	))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
	assert.Contains(t, rec.Body.String(), `"store":"unhealthy"`)
}

func TestRedisChecker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", addr, err)
	}

	t.Run("Ping returns nil when redis is available", func(t *testing.T) {
		checker := health.NewRedisChecker(client)

		err := checker.Ping(context.Background())

		assert.NoError(t, err)
	})
}
