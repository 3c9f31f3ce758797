package enrich

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// BurstSeconds is how many seconds of permits a Burst limiter may hand out
// back to back.
const BurstSeconds = 5

// HeaderRateLimit carries the number of requests the API allows per minute.
const HeaderRateLimit = "X-Rate-Limit-Limit"

// RateLimiter hands out permits for outbound requests.
type RateLimiter interface {
	// Acquire blocks until a permit is available or ctx ends.
	Acquire(ctx context.Context) error
	// SetRate installs the permit rate. Only the first call with a positive
	// rate takes effect; it reports whether this call was that one.
	SetRate(permitsPerSecond float64) bool
	// Rate returns the installed rate, or 0.
	Rate() float64
}

// NewRateLimiter returns a limiter for policy. Disabled yields a limiter
// whose methods do nothing.
func NewRateLimiter(policy Policy) RateLimiter {
	if policy == Disabled {
		return noopLimiter{}
	}
	return &adaptiveLimiter{policy: policy}
}

type noopLimiter struct{}

func (noopLimiter) Acquire(context.Context) error { return nil }
func (noopLimiter) SetRate(float64) bool          { return false }
func (noopLimiter) Rate() float64                 { return 0 }

// adaptiveLimiter lets every request through until the rate is discovered,
// then paces them. The limiter pointer is written at most once.
type adaptiveLimiter struct {
	policy  Policy
	limiter atomic.Pointer[rate.Limiter]
}

func (a *adaptiveLimiter) Acquire(ctx context.Context) error {
	l := a.limiter.Load()
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}

func (a *adaptiveLimiter) SetRate(perSecond float64) bool {
	if perSecond <= 0 || math.IsNaN(perSecond) || math.IsInf(perSecond, 0) {
		return false
	}
	if a.limiter.Load() != nil {
		return false
	}
	burst := 1
	if a.policy == Burst {
		burst = max(1, int(math.Ceil(perSecond*BurstSeconds)))
	}
	return a.limiter.CompareAndSwap(nil, rate.NewLimiter(rate.Limit(perSecond), burst))
}

func (a *adaptiveLimiter) Rate() float64 {
	if l := a.limiter.Load(); l != nil {
		return float64(l.Limit())
	}
	return 0
}

// rateFromHeader converts the per-minute limit advertised by the API into
// permits per second.
func rateFromHeader(h http.Header) (float64, bool) {
	v := h.Get(HeaderRateLimit)
	if v == "" {
		return 0, false
	}
	perMinute, err := strconv.ParseFloat(v, 64)
	if err != nil || perMinute <= 0 {
		return 0, false
	}
	return perMinute / 60, true
}
