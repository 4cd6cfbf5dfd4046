package routing

import (
	"context"
	"time"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/logging"
)

// MetadataMaxRetries is the execution context metadata key callers may set to
// override the retry attempt budget for a single run.
const MetadataMaxRetries = "max_retries"

// Retry defaults. Production deployments tune these through configuration;
// the backoff after a failed attempt n is BackoffBase * 2^n.
const (
	DefaultMaxAttempts = 3
	DefaultBackoffBase = time.Second
)

// RetryPolicyOptions configures a RetryPolicy.
type RetryPolicyOptions struct {
	// MaxAttempts is the total number of routing attempts per call, the
	// initial attempt included. Values below 1 are treated as 1.
	MaxAttempts int
	// BackoffBase scales the exponential backoff between attempts.
	BackoffBase time.Duration
	Logger      logging.Logger
}

// RetryPolicy retries failed routing results with exponential backoff and
// returns the last result once the attempt budget is spent. Control flow
// errors from the wrapped router pass through untouched on the first
// occurrence.
type RetryPolicy struct {
	next Router
	opts RetryPolicyOptions
}

// Compile-time check.
var _ Router = (*RetryPolicy)(nil)

// NewRetryPolicy wraps next with bounded retries.
func NewRetryPolicy(next Router, optFns ...func(o *RetryPolicyOptions)) *RetryPolicy {
	opts := RetryPolicyOptions{
		MaxAttempts: DefaultMaxAttempts,
		BackoffBase: DefaultBackoffBase,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	return &RetryPolicy{next: next, opts: opts}
}

// Route implements Router.
func (p *RetryPolicy) Route(ctx context.Context, agentName string, input map[string]any) (core.AgentResult, error) {
	var res core.AgentResult

	for attempt := 0; attempt < p.opts.MaxAttempts; attempt++ {
		if attempt > 0 {
			countRetry(ctx, agentName)
			if err := sleep(ctx, p.opts.BackoffBase<<(attempt-1)); err != nil {
				return res, err
			}
		}

		var err error
		res, err = p.next.Route(ctx, agentName, input)
		if err != nil || res.Success {
			return res, err
		}

		p.opts.Logger.Debug("routing attempt failed",
			"agent", agentName,
			"attempt", attempt+1,
			"max_attempts", p.opts.MaxAttempts,
			"error", res.Error,
		)
	}

	return res, nil
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
