package hooks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/turbohq/turbo-agent/internal/ratelimit"
)

// RateLimitHook denies tool calls that exceed the per-tool sliding-window
// limit. Keeps runaway loops from hammering the API.
func RateLimitHook(limiter *ratelimit.Limiter, logger *slog.Logger) Hook {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "ratelimit")
	return func(_ context.Context, hc *Context) Decision {
		ok, n := limiter.Allow(hc.Tool)
		if ok {
			return Continue()
		}
		max := limiter.Max()
		logger.Warn("rate limit hit", "tool", hc.Tool, "calls", n, "max", max)
		return Deny(fmt.Sprintf(
			"Rate limit exceeded: %s called %d times in the last minute (max %d). Wait before retrying.",
			hc.Tool, n, max))
	}
}
