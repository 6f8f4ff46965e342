package ratelimit

import (
	"context"
	"fmt"
)

// LimitExceeded describes the limit that rejected a request.
type LimitExceeded struct {
	Scope  Scope
	Config LimitConfig
	Count  int64
}

func (e *LimitExceeded) String() string {
	return fmt.Sprintf("%s scope, %d/%d requests in %s", e.Scope, e.Count, e.Config.Max, e.Config.Window)
}

// PolicyLimiter enforces a Policy, or explicit limits, against a Store.
type PolicyLimiter struct {
	store  Store
	policy *Policy
}

// NewPolicyLimiter creates a new policy-based rate limiter.
func NewPolicyLimiter(store Store, policy *Policy) *PolicyLimiter {
	return &PolicyLimiter{
		store:  store,
		policy: policy,
	}
}

// Allow records the request under every limit of the given scopes.
// A nil LimitExceeded means the request is allowed.
func (l *PolicyLimiter) Allow(ctx context.Context, clientKey string, scopes []Scope) (*LimitExceeded, error) {
	for _, scope := range scopes {
		if exceeded, err := l.check(ctx, clientKey, scope, l.policy.Limits[scope]); exceeded != nil || err != nil {
			return exceeded, err
		}
	}

	return nil, nil
}

// AllowLimits records the request under explicit limits tracked per route.
func (l *PolicyLimiter) AllowLimits(
	ctx context.Context, clientKey, route string, limits []LimitConfig,
) (*LimitExceeded, error) {
	return l.check(ctx, clientKey, Scope("route:"+route), limits)
}

func (l *PolicyLimiter) check(
	ctx context.Context, clientKey string, scope Scope, limits []LimitConfig,
) (*LimitExceeded, error) {
	for _, limit := range limits {
		key := fmt.Sprintf("%s:%s:%d", clientKey, scope, limit.Window.Milliseconds())

		count, err := l.store.Record(ctx, key, limit.Window)
		if err != nil {
			return nil, err
		}

		if count > limit.Max {
			return &LimitExceeded{Scope: scope, Config: limit, Count: count}, nil
		}
	}

	return nil, nil
}
