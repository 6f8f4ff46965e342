package registry

import (
	"context"
	"errors"
)

// State is a step of short code resolution.
type State string

const (
	StateResolving State = "resolving"
	StateNotFound  State = "not_found"
	StateExpired   State = "expired"
	StateActive    State = "active"
)

// Terminal reports whether no transition leaves the state.
func (s State) Terminal() bool {
	return s != StateResolving
}

// Resolution is the outcome of resolving a short code.
// Entry is nil for StateNotFound.
type Resolution struct {
	State State
	Entry *Entry
}

// Resolver turns a short code into a redirect decision.
// An active resolution records exactly one click; expired and unknown codes record none.
type Resolver struct {
	registry *Registry
}

// NewResolver creates a resolver on top of registry.
func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve looks up code and classifies it. A failure to record the click of an
// active entry is returned together with the active resolution.
func (r *Resolver) Resolve(ctx context.Context, code Code, referrer string) (Resolution, error) {
	res := Resolution{State: StateResolving}

	entry, err := r.registry.Lookup(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			res.State = StateNotFound

			return res, nil
		}

		return res, err
	}

	res.Entry = entry

	if entry.IsExpired(r.registry.Now()) {
		res.State = StateExpired

		return res, nil
	}

	res.State = StateActive

	return res, r.registry.RecordClick(ctx, code, referrer)
}
