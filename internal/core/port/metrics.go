package port

// CacheMetrics captures telemetry hooks for cache lookups. The cache label names the logical
// cache, for example "user_counters".
type CacheMetrics interface {
	IncCacheHit(cache string)
	IncCacheMiss(cache string)
	IncCacheError(cache string)
}

// RateLimitMetrics records the outcome of each limiter decision.
type RateLimitMetrics interface {
	IncRateLimitAllowed()
	IncRateLimitDenied()
	IncRateLimitError()
}
