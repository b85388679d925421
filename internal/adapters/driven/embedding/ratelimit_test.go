package embedding

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestRateLimiter_NilIsUnthrottled(t *testing.T) {
	var r *RateLimiter
	assert.NoError(t, r.Wait(context.Background()))
	assert.NoError(t, r.CheckResponse(&http.Response{StatusCode: http.StatusTooManyRequests}))
}

func TestRateLimiter_Throttles(t *testing.T) {
	r := NewRateLimiter(20)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, r.Wait(ctx))
	}
	// First token is free; two more at 20/s take at least ~100ms.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestRateLimiter_CheckResponse(t *testing.T) {
	r := NewRateLimiter(0)

	assert.NoError(t, r.CheckResponse(&http.Response{StatusCode: http.StatusOK}))
	assert.NoError(t, r.CheckResponse(nil))

	resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
	resp.Header.Set(HeaderRetryAfter, "2")
	err := r.CheckResponse(resp)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.WithinDuration(t, time.Now().Add(2*time.Second), r.BlockedUntil(), 200*time.Millisecond)
}

func TestRateLimiter_WaitHonoursBackoffAndContext(t *testing.T) {
	r := NewRateLimiter(0)
	resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
	resp.Header.Set(HeaderRetryAfter, "60")
	_ = r.CheckResponse(resp)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
}
