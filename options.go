package levelsync

import (
	"context"
	"time"

	"github.com/zoobzio/pipz"
)

// Identities of the processors the pipeline options install.
var (
	applyID          = pipz.NewIdentity("levelsync:apply", "Applies a validated config to the session")
	retryID          = pipz.NewIdentity("levelsync:retry", "Retries a failed apply")
	backoffID        = pipz.NewIdentity("levelsync:backoff", "Retries a failed apply with exponential delays")
	timeoutID        = pipz.NewIdentity("levelsync:timeout", "Bounds the duration of an apply")
	circuitBreakerID = pipz.NewIdentity("levelsync:circuit-breaker", "Rejects applies after repeated failures")
	errorHandlerID   = pipz.NewIdentity("levelsync:error-handler", "Passes apply failures to a handler")
	filterID         = pipz.NewIdentity("levelsync:filter", "Skips applies that fail a condition")
	middlewareID     = pipz.NewIdentity("levelsync:middleware", "Runs middleware before the apply")
	rateLimiterID    = pipz.NewIdentity("levelsync:rate-limiter", "Limits how often applies run")
)

// Option configures the processing pipeline of a Reloader. Options wrap the
// apply callback with middleware for retry, timeout and observation.
//
// Instance configuration (debounce, sync mode, codec, etc.) is handled via
// chainable methods on the Reloader before calling Start().
type Option func(pipz.Chainable[*Request]) pipz.Chainable[*Request]

// buildPipeline wraps a terminal with pipeline options.
func buildPipeline(terminal pipz.Chainable[*Request], opts []Option) pipz.Chainable[*Request] {
	pipeline := terminal
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return pipeline
}

// WithRetry retries a failed apply immediately, up to maxAttempts times.
func WithRetry(maxAttempts int) Option {
	return func(p pipz.Chainable[*Request]) pipz.Chainable[*Request] {
		return pipz.NewRetry(retryID, p, maxAttempts)
	}
}

// WithBackoff retries a failed apply with exponentially increasing delays.
func WithBackoff(maxAttempts int, baseDelay time.Duration) Option {
	return func(p pipz.Chainable[*Request]) pipz.Chainable[*Request] {
		return pipz.NewBackoff(backoffID, p, maxAttempts, baseDelay)
	}
}

// WithTimeout fails an apply that takes longer than d.
func WithTimeout(d time.Duration) Option {
	return func(p pipz.Chainable[*Request]) pipz.Chainable[*Request] {
		return pipz.NewTimeout(timeoutID, p, d)
	}
}

// WithCircuitBreaker rejects applies for recovery after the given number of
// consecutive failures, then lets one through to test the callback again.
func WithCircuitBreaker(failures int, recovery time.Duration) Option {
	return func(p pipz.Chainable[*Request]) pipz.Chainable[*Request] {
		return pipz.NewCircuitBreaker(circuitBreakerID, p, failures, recovery)
	}
}

// WithErrorHandler passes apply failures to handler. The error still propagates.
func WithErrorHandler(handler pipz.Chainable[*pipz.Error[*Request]]) Option {
	return func(p pipz.Chainable[*Request]) pipz.Chainable[*Request] {
		return pipz.NewHandle(errorHandlerID, p, handler)
	}
}

// WithFilter skips the pipeline when condition returns false. A skipped
// request still counts as applied.
//
// Example:
//
//	// Restart only when something actually changed.
//	levelsync.WithFilter(func(_ context.Context, req *levelsync.Request) bool {
//	    return req.Changed()
//	})
func WithFilter(condition func(context.Context, *Request) bool) Option {
	return func(p pipz.Chainable[*Request]) pipz.Chainable[*Request] {
		return pipz.NewFilter(filterID, condition, p)
	}
}

// WithRateLimit holds applies to a token bucket of the given rate and burst.
// An apply waits for a token rather than failing.
func WithRateLimit(rate float64, burst int) Option {
	return func(p pipz.Chainable[*Request]) pipz.Chainable[*Request] {
		return UseRateLimit(rate, burst, p)
	}
}

// WithMiddleware runs processors in order before the apply callback.
//
// Example:
//
//	var logID = pipz.NewIdentity("log", "Logs each config change")
//
//	levelsync.NewReloader(
//	    watcher,
//	    func(ctx context.Context, _, curr levelsync.Config) error {
//	        return session.Apply(ctx, curr)
//	    },
//	    levelsync.WithMiddleware(
//	        levelsync.UseEffect(logID, logFn),
//	    ),
//	)
func WithMiddleware(processors ...pipz.Chainable[*Request]) Option {
	return func(p pipz.Chainable[*Request]) pipz.Chainable[*Request] {
		all := make([]pipz.Chainable[*Request], 0, len(processors)+1)
		all = append(all, processors...)
		all = append(all, p)
		return pipz.NewSequence(middlewareID, all...)
	}
}

// UseEffect creates a processor that performs a side effect. The request
// passes through unchanged.
func UseEffect(identity pipz.Identity, fn func(context.Context, *Request) error) pipz.Chainable[*Request] {
	return pipz.Effect(identity, fn)
}

// UseApply creates a processor that may rewrite the request or fail.
func UseApply(identity pipz.Identity, fn func(context.Context, *Request) (*Request, error)) pipz.Chainable[*Request] {
	return pipz.Apply(identity, fn)
}

// UseTransform creates a processor that rewrites the request and cannot fail.
func UseTransform(identity pipz.Identity, fn func(context.Context, *Request) *Request) pipz.Chainable[*Request] {
	return pipz.Transform(identity, fn)
}

// UseRateLimit wraps processor in a token bucket limiter.
func UseRateLimit(rate float64, burst int, processor pipz.Chainable[*Request]) pipz.Chainable[*Request] {
	return pipz.NewRateLimiter(rateLimiterID, rate, burst, processor)
}
