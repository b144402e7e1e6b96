package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/schoemantian/pokemon-agent/internal/oracle"
)

// retryAdvisor wraps an advisor with bounded retries on transient
// failures. Retries respect the caller's context: a retry never
// extends the turn deadline, and a call cancelled by the deadline is
// reported as an oracle timeout.
type retryAdvisor struct {
	inner  oracle.Advisor
	policy Policy
}

// WrapAdvisor returns an advisor that retries transient oracle
// failures up to the policy's bound while the turn budget permits.
func (m *Monitor) WrapAdvisor(inner oracle.Advisor) oracle.Advisor {
	return &retryAdvisor{inner: inner, policy: m.policy}
}

func (r *retryAdvisor) Name() string { return r.inner.Name() }

func (r *retryAdvisor) Advise(ctx context.Context, req *oracle.Request) (*oracle.Decision, error) {
	var lastErr error
	attempts := r.policy.OracleMaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, oracle.ErrTimeout
			case <-time.After(r.policy.RetryBackoff):
			}
		}
		d, err := r.inner.Advise(ctx, req)
		if err == nil {
			return d, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, oracle.ErrTimeout
		}
		// Only transient failures are worth retrying.
		if !errors.Is(err, oracle.ErrUnavailable) {
			return nil, err
		}
	}
	return nil, lastErr
}
