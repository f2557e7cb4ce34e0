package webclient

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryBackoff is the pause schedule between attempts: none before the first
// retry, then factor*2^(n-1) for the n-th consecutive failure, capped at max.
type retryBackoff struct {
	factor   time.Duration
	max      time.Duration
	failures int
}

var _ backoff.BackOff = (*retryBackoff)(nil)

func newRetryBackoff(factor, max time.Duration) *retryBackoff {
	return &retryBackoff{factor: factor, max: max}
}

func (b *retryBackoff) NextBackOff() time.Duration {
	b.failures++
	if b.failures <= 1 || b.factor <= 0 {
		return 0
	}
	shift := b.failures - 1
	// Past 2^30 any sane factor is beyond max anyway.
	if shift > 30 {
		return b.max
	}
	d := b.factor * time.Duration(1<<shift)
	if d <= 0 || (b.max > 0 && d > b.max) {
		return b.max
	}
	return d
}

func (b *retryBackoff) Reset() { b.failures = 0 }

// retryableStatus marks an attempt whose status code is in the retry set.
type retryableStatus struct {
	code int
}

func (e *retryableStatus) Error() string {
	return fmt.Sprintf("retryable status %d", e.code)
}

func statusSet(codes []int) map[int]struct{} {
	m := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		m[c] = struct{}{}
	}
	return m
}
