package domain

import "time"

// RateLimitDecision is the outcome of a sliding window check for one request.
type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Count     int
	Remaining int
	ResetTime time.Time
}

// RetryAfter returns how long a rejected caller should wait relative to now.
func (d RateLimitDecision) RetryAfter(now time.Time) time.Duration {
	if d.Allowed {
		return 0
	}
	wait := d.ResetTime.Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}
