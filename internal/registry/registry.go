package registry

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultValidityMinutes applies when CreateParams.ValidityMinutes is zero.
	DefaultValidityMinutes = 30
	// MaxValidityMinutes is roughly one hundred years.
	MaxValidityMinutes = 100 * 365 * 24 * 60
	// DefaultMaxAttempts bounds generated-code collision retries.
	DefaultMaxAttempts = 10
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9]{3,20}$`)

// ValidCode reports whether s is acceptable as a custom short code.
func ValidCode(s string) bool {
	return codePattern.MatchString(s)
}

// CodeGenerator generates candidate short codes.
type CodeGenerator func() string

// CreateParams is the input to Registry.Create.
type CreateParams struct {
	OriginalURL     string
	CustomCode      string // optional
	ValidityMinutes int    // zero means the registry's default validity
}

// Registry enforces code uniqueness and the expiry lifecycle on top of a Store.
//
// Every operation loads the full collection and mutations save it back whole.
// Mutations are serialized within one Registry; separate processes sharing a
// store are not coordinated.
type Registry struct {
	mu              sync.Mutex
	store           Store
	generateCode    CodeGenerator
	newID           func() string
	now             func() time.Time
	maxAttempts     int
	defaultValidity int
	reserved        map[Code]struct{}
	logger          *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithMaxAttempts overrides the number of generated codes tried before giving up.
func WithMaxAttempts(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithDefaultValidity overrides the validity applied when none is requested.
func WithDefaultValidity(minutes int) Option {
	return func(r *Registry) {
		if minutes > 0 && minutes <= MaxValidityMinutes {
			r.defaultValidity = minutes
		}
	}
}

// WithReservedCodes makes codes unavailable to both custom and generated
// allocation, for example because they collide with other routes.
func WithReservedCodes(codes ...string) Option {
	return func(r *Registry) {
		for _, c := range codes {
			r.reserved[Code(c)] = struct{}{}
		}
	}
}

// WithIDGenerator overrides entry ID generation.
func WithIDGenerator(newID func() string) Option {
	return func(r *Registry) {
		r.newID = newID
	}
}

// NewRegistry creates a registry backed by store that draws codes from generator.
func NewRegistry(store Store, generator CodeGenerator, logger *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		store:           store,
		generateCode:    generator,
		newID:           uuid.NewString,
		now:             time.Now,
		maxAttempts:     DefaultMaxAttempts,
		defaultValidity: DefaultValidityMinutes,
		reserved:        map[Code]struct{}{},
		logger:          logger,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Now returns the registry's current time in UTC at millisecond precision.
func (r *Registry) Now() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

// Create validates the input, allocates a unique code and persists a new entry.
func (r *Registry) Create(ctx context.Context, params CreateParams) (*Entry, error) {
	if !validURL(params.OriginalURL) {
		return nil, invalid(ErrInvalidURL, params.OriginalURL)
	}

	validity := params.ValidityMinutes
	if validity == 0 {
		validity = r.defaultValidity
	}

	if validity < 0 || validity > MaxValidityMinutes {
		return nil, invalid(ErrInvalidValidity, strconv.Itoa(validity))
	}

	if params.CustomCode != "" && !ValidCode(params.CustomCode) {
		return nil, invalid(ErrInvalidCode, params.CustomCode)
	}

	if _, ok := r.reserved[Code(params.CustomCode)]; ok {
		return nil, invalid(ErrCodeTaken, params.CustomCode)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	used := make(map[Code]struct{}, len(entries)+len(r.reserved))
	for code := range r.reserved {
		used[code] = struct{}{}
	}

	for i := range entries {
		used[entries[i].ShortCode] = struct{}{}
	}

	code, err := r.allocate(params.CustomCode, used)
	if err != nil {
		return nil, err
	}

	now := r.Now()
	entry := Entry{
		ID:              r.newID(),
		OriginalURL:     params.OriginalURL,
		ShortCode:       code,
		CustomCode:      params.CustomCode,
		CreatedAt:       now,
		ExpiresAt:       now.Add(time.Duration(validity) * time.Minute),
		ValidityMinutes: validity,
		Clicks:          []Click{},
	}

	if err = r.store.Save(ctx, append(entries, entry)); err != nil {
		r.logger.Error("failed to persist new entry",
			zap.String("code", string(code)),
			zap.Error(err),
		)

		return nil, err
	}

	return entry.Clone(), nil
}

func (r *Registry) allocate(custom string, used map[Code]struct{}) (Code, error) {
	if custom != "" {
		if _, taken := used[Code(custom)]; taken {
			return "", invalid(ErrCodeTaken, custom)
		}

		return Code(custom), nil
	}

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		code := Code(r.generateCode())
		if _, taken := used[code]; !taken {
			return code, nil
		}

		r.logger.Debug("generated code collision",
			zap.String("code", string(code)),
			zap.Int("attempt", attempt),
		)
	}

	return "", ErrCodeSpaceExhausted
}

// Lookup returns the entry using code, expired or not, or ErrNotFound.
func (r *Registry) Lookup(ctx context.Context, code Code) (*Entry, error) {
	entries, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if entries[i].ShortCode == code {
			return entries[i].Clone(), nil
		}
	}

	return nil, ErrNotFound
}

// RecordClick appends a click to the entry using code. Unknown codes are ignored.
// Expiry is not checked here; callers must not record clicks for expired entries.
func (r *Registry) RecordClick(ctx context.Context, code Code, referrer string) error {
	if referrer == "" {
		referrer = DirectReferrer
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.store.Load(ctx)
	if err != nil {
		return err
	}

	idx := -1

	for i := range entries {
		if entries[i].ShortCode == code {
			idx = i

			break
		}
	}

	if idx == -1 {
		return nil
	}

	entries[idx].Clicks = append(entries[idx].Clicks, Click{
		Timestamp: r.Now(),
		Referrer:  referrer,
		Location:  UnknownLocation,
	})

	if err = r.store.Save(ctx, entries); err != nil {
		r.logger.Error("failed to persist click",
			zap.String("code", string(code)),
			zap.Error(err),
		)

		return err
	}

	return nil
}

// PurgeExpired removes every entry whose ExpiresAt is not after now and returns the
// number removed. The store is only written when something was removed.
func (r *Registry) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.store.Load(ctx)
	if err != nil {
		return 0, err
	}

	kept := make([]Entry, 0, len(entries))

	for i := range entries {
		if entries[i].ExpiresAt.After(now) {
			kept = append(kept, entries[i])
		}
	}

	removed := len(entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if err = r.store.Save(ctx, kept); err != nil {
		r.logger.Error("failed to persist purge",
			zap.Int("removed", removed),
			zap.Error(err),
		)

		return 0, err
	}

	return removed, nil
}

// List returns every stored entry in creation order.
func (r *Registry) List(ctx context.Context) ([]Entry, error) {
	entries, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, len(entries))
	for i := range entries {
		out[i] = *entries[i].Clone()
	}

	return out, nil
}

// Summary aggregates a collection for reporting.
type Summary struct {
	TotalURLs   int
	TotalClicks int
	Active      int
	Expired     int
}

// Summarize counts entries and clicks, splitting entries by expiry at now.
func Summarize(entries []Entry, now time.Time) Summary {
	s := Summary{TotalURLs: len(entries)}

	for i := range entries {
		s.TotalClicks += len(entries[i].Clicks)

		if entries[i].IsExpired(now) {
			s.Expired++
		} else {
			s.Active++
		}
	}

	return s
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return u.Scheme != "" && u.Host != ""
}
