package levelsync

import (
	"context"
	"time"

	"github.com/zoobzio/clockz"
)

// maxBackoff caps ExponentialBackoff.
const maxBackoff = time.Minute

// Backoff returns the wait after the given failed attempt (1-based).
type Backoff func(attempt int) time.Duration

// ConstantBackoff waits d after every failure.
func ConstantBackoff(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// ExponentialBackoff waits base, 2*base, 4*base ... capped at one minute.
func ExponentialBackoff(base time.Duration) Backoff {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
			if d >= maxBackoff {
				return maxBackoff
			}
		}
		return d
	}
}

// RetryPolicy bounds connection attempts. It performs no I/O; the Supervisor
// executes it against its clock.
//
// Example:
//
//	// 5 attempts, 2 seconds apart
//	policy := levelsync.RetryPolicy{MaxAttempts: 5, Backoff: levelsync.ConstantBackoff(2 * time.Second)}
type RetryPolicy struct {
	MaxAttempts int
	Backoff     Backoff
}

// RetryPolicyFrom builds the policy described by the startup section.
func RetryPolicyFrom(s Startup) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: s.MaxRetryAttempts,
		Backoff:     ConstantBackoff(seconds(s.RetryInterval)),
	}
}

// Attempts returns the number of attempts to make, at least one.
func (p RetryPolicy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Delay is the wait after failed attempt n. There is no wait after the last one.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt >= p.Attempts() || p.Backoff == nil {
		return 0
	}
	if d := p.Backoff(attempt); d > 0 {
		return d
	}
	return 0
}

// sleep waits d on clock or until ctx is done.
func sleep(ctx context.Context, clock clockz.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}
