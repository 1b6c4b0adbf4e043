package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultEmailPolicy covers transient SMTP failures. Alert delivery is
// fire-and-forget from the probing path, so exhaustion only logs.
func DefaultEmailPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "email",
		Attempts: 3,
		Backoff:  ExpoJitter{Base: 500 * time.Millisecond, Max: 10 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("email retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("email delivery gave up", zap.Error(err))
			}
		},
	}
}
