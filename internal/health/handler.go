package health

import (
	"context"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	statusOK        = "ok"
	statusDegraded  = "degraded"
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// DefaultTimeout bounds each dependency check.
const DefaultTimeout = 2 * time.Second

// Checker defines the interface for checking a dependency's health.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Check is a named dependency check.
type Check struct {
	Name    string
	Checker Checker
}

// Handler handles health check operations.
type Handler struct {
	checks  []Check
	timeout time.Duration
	logger  *zap.Logger
}

// NewHandler creates a new health handler over the given dependency checks.
func NewHandler(logger *zap.Logger, checks ...Check) *Handler {
	return &Handler{checks: checks, timeout: DefaultTimeout, logger: logger}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status string            `enum:"ok,degraded"         json:"status"`
		Checks map[string]string `doc:"Per-dependency state" json:"checks"`
	}
}

// Check runs every dependency check concurrently, each bounded by the handler's
// timeout. A failing dependency degrades the status but the endpoint still answers 200.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	errs := make([]error, len(h.checks))

	var wg sync.WaitGroup

	for i, c := range h.checks {
		wg.Add(1)

		go func() {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()

			errs[i] = c.Checker.Ping(checkCtx)
		}()
	}

	wg.Wait()

	resp := &Response{}
	resp.Body.Status = statusOK
	resp.Body.Checks = make(map[string]string, len(h.checks))

	for i, c := range h.checks {
		if errs[i] != nil {
			h.logger.Warn("health check failed", zap.String("check", c.Name), zap.Error(errs[i]))
			resp.Body.Checks[c.Name] = statusUnhealthy
			resp.Body.Status = statusDegraded

			continue
		}

		resp.Body.Checks[c.Name] = statusHealthy
	}

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Get(api, "/health", h.Check)
}
