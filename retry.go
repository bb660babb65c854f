package sdk

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig controls exponential backoff for transient-failure retries on
// idempotent auth reads. It never applies to the interception layer itself.
type RetryConfig struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func defaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseBackoff: 300 * time.Millisecond,
		MaxBackoff:  5 * time.Second,
	}
}

func (r RetryConfig) normalized() RetryConfig {
	cfg := r
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 300 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	return cfg
}

// retryOperation runs op under the retry policy. Wrap a non-retryable failure
// in backoff.Permanent to stop early; context cancellation also stops.
func retryOperation(ctx context.Context, cfg RetryConfig, op func() error) error {
	cfg = cfg.normalized()
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.BaseBackoff
	bo.MaxInterval = cfg.MaxBackoff
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(cfg.MaxAttempts-1)), ctx)
	return backoff.Retry(op, policy)
}

// backoffPermanent marks err as non-retryable for retryOperation.
func backoffPermanent(err error) error {
	return backoff.Permanent(err)
}

// isTransient reports whether an error is worth retrying: timeouts and
// transport-level failures, never API rejections.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return false
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
