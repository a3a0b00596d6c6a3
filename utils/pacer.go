package utils

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum interval between page requests. The first call to
// Wait returns immediately.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a Pacer allowing one request per rateLimitMs milliseconds.
// A non-positive interval disables pacing.
func NewPacer(rateLimitMs int) *Pacer {
	if rateLimitMs <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	interval := time.Duration(rateLimitMs) * time.Millisecond
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next request is allowed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// URLSet tracks URLs that have already been seen. It is not safe for
// concurrent use.
type URLSet struct {
	seen map[string]struct{}
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	return true
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	return len(s.seen)
}
