package remote

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v4"
)

const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = time.Second
)

// RetryPolicy bounds retries of outbound calls.
// Only transient failures are retried; the delay starts at BaseDelay
// and doubles on every retry. On exhausting the attempts the last
// error is propagated unchanged.
type RetryPolicy struct {
	Attempts  uint
	BaseDelay time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:  defaultRetryAttempts,
		BaseDelay: defaultRetryDelay,
	}
}

// Do runs op under the policy
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = defaultRetryAttempts
	}
	delay := p.BaseDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	return retry.Do(op,
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsTransient),
	)
}
