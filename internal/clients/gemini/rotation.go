package gemini

import (
	"errors"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/genai"
)

// ErrExhausted is returned when every model/credential combination is rate
// limited or cooling down.
var ErrExhausted = errors.New("all model/credential combinations exhausted")

const (
	// DefaultCooldown applies when a rate-limit response carries no usable
	// retry delay.
	DefaultCooldown = 60 * time.Second

	// MaxCooldown caps provider-suggested retry delays.
	MaxCooldown = 120 * time.Second
)

// combo identifies one model/credential pairing.
type combo struct {
	model      string
	credential string
}

// rotation tracks the round-robin start offsets and per-combo cooldowns.
// Offsets advance atomically so concurrent calls spread across the matrix;
// expired cooldowns are purged lazily on lookup.
type rotation struct {
	modelOffset atomic.Uint64
	keyOffset   atomic.Uint64

	mu        sync.Mutex
	cooldowns map[combo]time.Time

	now func() time.Time
}

func newRotation() *rotation {
	return &rotation{
		cooldowns: make(map[combo]time.Time),
		now:       time.Now,
	}
}

func (r *rotation) nextModel(n int) int {
	return int((r.modelOffset.Add(1) - 1) % uint64(n))
}

func (r *rotation) nextKey(n int) int {
	return int((r.keyOffset.Add(1) - 1) % uint64(n))
}

func (r *rotation) onCooldown(c combo) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	until, ok := r.cooldowns[c]
	if !ok {
		return false
	}
	if r.now().After(until) {
		delete(r.cooldowns, c)
		return false
	}
	return true
}

func (r *rotation) setCooldown(c combo, d time.Duration) {
	if d <= 0 {
		d = DefaultCooldown
	}
	if d > MaxCooldown {
		d = MaxCooldown
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cooldowns[c] = r.now().Add(d)
}

// retryDelayPattern matches the retryDelay the API embeds in rate-limit
// error messages, e.g. `"retryDelay": "39s"`.
var retryDelayPattern = regexp.MustCompile(`retryDelay[":\s]+"?([0-9.]+)s`)

// asRateLimit reports whether err is a rate-limit rejection and extracts the
// provider-suggested cooldown when present.
func asRateLimit(err error) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}
	if apiErr.Code != 429 && apiErr.Status != "RESOURCE_EXHAUSTED" {
		return 0, false
	}

	for _, detail := range apiErr.Details {
		if v, ok := detail["retryDelay"].(string); ok {
			if d, perr := time.ParseDuration(v); perr == nil && d > 0 {
				return d, true
			}
		}
	}
	if m := retryDelayPattern.FindStringSubmatch(apiErr.Message); m != nil {
		if d, perr := time.ParseDuration(m[1] + "s"); perr == nil && d > 0 {
			return d, true
		}
	}

	return DefaultCooldown, true
}
