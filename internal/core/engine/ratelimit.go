package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/linearmcp/linear-mcp/internal/core"
)

// Defaults for the upstream request budget.
const (
	DefaultLimit  = 1000
	DefaultWindow = time.Hour
)

// ErrRateLimitExceeded is returned (wrapped) when Admit refuses a request.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// RateLimitError describes a refused admission.
type RateLimitError struct {
	Limit      int
	Window     time.Duration
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests per %s, retry in %s",
		e.Limit, e.Window, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimitExceeded
}

// RateLimiter admits upstream requests against a sliding window.
// Timestamps are kept in admission order and pruned lazily on Admit.
type RateLimiter struct {
	Limit  int
	Window time.Duration
	Clock  func() time.Time
	Margin float64

	mu       sync.Mutex
	admitted []time.Time
	total    int64
	last     time.Time
}

// NewRateLimiter returns a limiter admitting limit requests per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{Limit: limit, Window: window}
}

// Admit records a request if the window has capacity left.
// A refused request is not recorded.
func (r *RateLimiter) Admit(ctx context.Context) error {
	if r == nil {
		return nil
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	window := r.window()
	r.prune(now, window)

	limit := r.limit()
	if len(r.admitted) >= limit {
		retry := time.Duration(0)
		if len(r.admitted) > 0 {
			retry = r.admitted[0].Add(window).Sub(now)
		}
		return &RateLimitError{Limit: limit, Window: window, RetryAfter: retry}
	}

	r.admitted = append(r.admitted, now)
	r.total++
	r.last = now
	return nil
}

// Metrics returns a usage snapshot. It does not prune, so entries that aged
// out since the last Admit are still counted.
func (r *RateLimiter) Metrics() core.UsageMetrics {
	if r == nil {
		return core.UsageMetrics{Limit: DefaultLimit, RemainingRequests: DefaultLimit, WindowSeconds: int64(DefaultWindow / time.Second)}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	limit := r.limit()
	inWindow := len(r.admitted)
	remaining := limit - inWindow
	if remaining < 0 {
		remaining = 0
	}

	metrics := core.UsageMetrics{
		TotalRequests:      r.total,
		RequestsInLastHour: inWindow,
		RemainingRequests:  remaining,
		Limit:              limit,
		WindowSeconds:      int64(r.window() / time.Second),
	}
	if !r.last.IsZero() {
		last := r.last
		metrics.LastRequestTime = &last
	}
	return metrics
}

// ApplySafetyMargin scales the effective limit by a ratio (0-1].
func (r *RateLimiter) ApplySafetyMargin(margin float64) {
	if r == nil {
		return
	}
	if margin <= 0 || margin > 1 {
		return
	}
	r.mu.Lock()
	r.Margin = margin
	r.mu.Unlock()
}

// prune drops timestamps that are a full window old or older.
func (r *RateLimiter) prune(now time.Time, window time.Duration) {
	idx := 0
	for idx < len(r.admitted) && now.Sub(r.admitted[idx]) >= window {
		idx++
	}
	if idx > 0 {
		r.admitted = append(r.admitted[:0], r.admitted[idx:]...)
	}
}

func (r *RateLimiter) limit() int {
	limit := r.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if r.Margin <= 0 || r.Margin > 1 {
		return limit
	}
	adjusted := int(math.Floor(float64(limit) * r.Margin))
	if adjusted < 1 {
		adjusted = 1
	}
	return adjusted
}

func (r *RateLimiter) window() time.Duration {
	if r.Window <= 0 {
		return DefaultWindow
	}
	return r.Window
}

func (r *RateLimiter) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now().UTC()
}
