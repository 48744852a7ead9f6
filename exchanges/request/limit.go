package request

import (
	"time"

	"golang.org/x/time/rate"
)

// NewRateLimit creates a new RateLimit based of time interval and how many
// actions allowed and breaks it down to an actions-per-second basis. Burst
// is kept as one as this is not supported for out-bound requests.
func NewRateLimit(interval time.Duration, actions int) *rate.Limiter {
	if actions <= 0 || interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	rps := float64(actions) / interval.Seconds()
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// WithLimiter sets the rate limiter shared by every request
func WithLimiter(l *rate.Limiter) RequesterOption {
	return func(r *Requester) {
		r.limiter = l
	}
}

// WithUserAgent sets the user agent header sent with every request
func WithUserAgent(ua string) RequesterOption {
	return func(r *Requester) {
		r.UserAgent = ua
	}
}
