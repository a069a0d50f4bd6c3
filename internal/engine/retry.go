package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy defines retry behavior for provider calls.
type RetryPolicy struct {
	MaxRetries     int           // Maximum number of retry attempts (0 = no retries)
	InitialDelay   time.Duration // Initial delay before first retry
	MaxDelay       time.Duration // Maximum delay cap
	Multiplier     float64       // Exponential backoff multiplier (e.g., 2.0)
	Jitter         bool          // Whether to add random jitter to delays
	AttemptTimeout time.Duration // Per-attempt deadline (0 = none)
}

// DefaultRetryPolicy bounds every provider call and retries once.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     1,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		Jitter:         true,
		AttemptTimeout: 30 * time.Second,
	}
}

// RetryExhaustedError indicates that all retry attempts have been exhausted.
type RetryExhaustedError struct {
	Err      error
	Attempts int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// RetryableFunc is a function that can be retried.
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// RetryWithPolicy executes fn until it succeeds, fails with a non-retryable
// error, or the policy runs out of attempts.
func RetryWithPolicy[T any](
	ctx context.Context,
	policy RetryPolicy,
	fn RetryableFunc[T],
	classifyError func(error) RetryClass,
	onRetry func(attempt int, delay time.Duration, err error),
) (T, error) {
	var zero T

	attempt := 0
	for {
		result, err := runAttempt(ctx, policy.AttemptTimeout, fn)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return zero, err
		}

		if classifyError(err) == RetryClassNonRetryable {
			return zero, err
		}
		if attempt >= policy.MaxRetries {
			if policy.MaxRetries == 0 {
				return zero, err
			}
			return zero, &RetryExhaustedError{Err: err, Attempts: attempt + 1}
		}

		delay := calculateDelay(policy, attempt)
		if onRetry != nil {
			onRetry(attempt+1, delay, err)
		}

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(delay):
		}

		attempt++
	}
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, fn RetryableFunc[T]) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}

// calculateDelay computes the delay for a retry attempt.
func calculateDelay(policy RetryPolicy, attempt int) time.Duration {
	delay := float64(policy.InitialDelay) * math.Pow(policy.Multiplier, float64(attempt))
	if policy.MaxDelay > 0 && delay > float64(policy.MaxDelay) {
		delay = float64(policy.MaxDelay)
	}
	if policy.Jitter {
		delay += rand.Float64() * 0.2 * delay
	}
	return time.Duration(delay)
}

// RetryingGateway bounds and retries calls to another Gateway.
type RetryingGateway struct {
	next   Gateway
	policy RetryPolicy
	logger *zap.Logger
}

// NewRetryingGateway wraps next with policy.
func NewRetryingGateway(next Gateway, policy RetryPolicy, logger *zap.Logger) *RetryingGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingGateway{next: next, policy: policy, logger: logger}
}

// GenerateReply implements Gateway.
func (g *RetryingGateway) GenerateReply(ctx context.Context, history []ChatMessage) (string, error) {
	return RetryWithPolicy(
		ctx,
		g.policy,
		func(ctx context.Context) (string, error) {
			return g.next.GenerateReply(ctx, history)
		},
		ClassifyProviderError,
		func(attempt int, delay time.Duration, err error) {
			g.logger.Warn("retrying provider call",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err))
		},
	)
}
