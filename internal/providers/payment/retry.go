package payment

import (
	"context"
	"errors"
	"time"
)

// withRetry runs fn up to attempts times, sleeping backoff (doubled each try)
// between failures. Only gateway errors are retried; policy and validation
// failures surface immediately. Webhook verification must never pass through
// here.
func withRetry(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		var gw *GatewayError
		if !errors.As(err, &gw) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}
