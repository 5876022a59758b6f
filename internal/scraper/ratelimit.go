package scraper

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter implements two-tier rate limiting: a global cap protecting the
// process and a per-domain cap respecting target sites.
type RateLimiter struct {
	globalLimiter     *rate.Limiter
	perDomainLimiters *sync.Map // map[string]*rate.Limiter
}

// NewRateLimiter creates a two-tier rate limiter.
func NewRateLimiter(globalRate float64) *RateLimiter {
	return &RateLimiter{
		globalLimiter:     rate.NewLimiter(rate.Limit(globalRate), int(globalRate*2)),
		perDomainLimiters: &sync.Map{},
	}
}

// Wait blocks until both tiers admit a request for domain, honoring the
// crawl delay advertised by the domain's robots.txt.
func (rl *RateLimiter) Wait(ctx context.Context, domain string, crawlDelay time.Duration) error {
	if err := rl.globalLimiter.Wait(ctx); err != nil {
		return err
	}

	domainLimiter := rl.getOrCreateDomainLimiter(domain, crawlDelay)
	return domainLimiter.Wait(ctx)
}

func (rl *RateLimiter) getOrCreateDomainLimiter(domain string, crawlDelay time.Duration) *rate.Limiter {
	if limiter, ok := rl.perDomainLimiters.Load(domain); ok {
		return limiter.(*rate.Limiter)
	}

	if crawlDelay <= 0 {
		crawlDelay = 500 * time.Millisecond
	}
	requestsPerSecond := 1.0 / crawlDelay.Seconds()
	if requestsPerSecond > 5.0 {
		requestsPerSecond = 5.0
	}
	if requestsPerSecond < 0.2 {
		requestsPerSecond = 0.2
	}

	newLimiter := rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	actual, _ := rl.perDomainLimiters.LoadOrStore(domain, newLimiter)
	return actual.(*rate.Limiter)
}
