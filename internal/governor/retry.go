package governor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrTransient marks a navigation or network failure worth retrying. Wrap
// failures with Transient() to opt them into the backoff loop; anything else
// passes through unretried.
var ErrTransient = errors.New("transient navigation failure")

// Transient wraps err so Retry will back off and try again.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

var (
	retryInitialInterval = 2 * time.Second
	retryMaxInterval     = 30 * time.Second
)

// Retry runs op, backing off exponentially on ErrTransient up to maxRetries
// attempts. Non-transient errors and context cancellation end the loop
// immediately. This budget is separate from the filler's field-fill retries.
func Retry(ctx context.Context, maxRetries uint64, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialInterval
	bo.MaxInterval = retryMaxInterval

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrTransient) {
			return err
		}
		return backoff.Permanent(err)
	}

	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx))
}
