// Package embedding holds helpers shared by the embedding adapters.
package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// HeaderRetryAfter is the retry-after header (seconds).
const HeaderRetryAfter = "Retry-After"

// DefaultBackoff applies when a 429 carries no Retry-After header.
const DefaultBackoff = 5 * time.Second

// RateLimiter throttles embedding requests. It combines a proactive token
// bucket with a reactive pause after the provider answers 429.
type RateLimiter struct {
	bucket *rate.Limiter // nil when unthrottled

	mu         sync.Mutex
	blockUntil time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second.
// A non-positive rps disables proactive throttling.
func NewRateLimiter(rps float64) *RateLimiter {
	r := &RateLimiter{}
	if rps > 0 {
		r.bucket = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return r
}

// Wait blocks until a request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	until := r.blockUntil
	r.mu.Unlock()

	if d := time.Until(until); d > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}

	if r.bucket != nil {
		if err := r.bucket.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// CheckResponse records a rate-limit response. It returns an error wrapping
// domain.ErrRateLimited for 429 responses and nil otherwise.
func (r *RateLimiter) CheckResponse(resp *http.Response) error {
	if r == nil || resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}

	backoff := DefaultBackoff
	if v := resp.Header.Get(HeaderRetryAfter); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
			backoff = time.Duration(seconds) * time.Second
		}
	}

	until := time.Now().Add(backoff)
	r.mu.Lock()
	if until.After(r.blockUntil) {
		r.blockUntil = until
	}
	r.mu.Unlock()

	return fmt.Errorf("%w: retry after %s", domain.ErrRateLimited, backoff)
}

// BlockedUntil returns when the reactive pause ends.
func (r *RateLimiter) BlockedUntil() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blockUntil
}
