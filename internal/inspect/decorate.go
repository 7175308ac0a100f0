package inspect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
)

type timeoutInspector struct {
	next    Inspector
	timeout time.Duration
}

// WithTimeout bounds every call to next by d. A call that does not return
// in time fails with ErrTimeout even if next ignores its context.
func WithTimeout(next Inspector, d time.Duration) Inspector {
	return &timeoutInspector{next: next, timeout: d}
}

type inspectResult struct {
	img *Image
	err error
}

func (t *timeoutInspector) Inspect(ctx context.Context, reference string) (*Image, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan inspectResult, 1)
	go func() {
		img, err := t.next.Inspect(ctx, reference)
		done <- inspectResult{img: img, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %s", ErrTimeout, t.timeout, reference)
		}
		return r.img, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %s", ErrTimeout, t.timeout, reference)
		}
		return nil, fmt.Errorf("inspecting %s: %w", reference, ctx.Err())
	}
}

type retryInspector struct {
	next     Inspector
	retries  int
	interval time.Duration
	logger   *log.Logger
}

// DefaultRetryInterval is the first backoff delay when none is configured.
const DefaultRetryInterval = 500 * time.Millisecond

// WithRetry retries failed calls to next up to retries more times with
// exponential backoff. Missing tools, malformed output and unknown images
// are not retried.
func WithRetry(next Inspector, retries int, interval time.Duration, logger *log.Logger) Inspector {
	if interval <= 0 {
		interval = DefaultRetryInterval
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &retryInspector{next: next, retries: retries, interval: interval, logger: logger}
}

func (r *retryInspector) Inspect(ctx context.Context, reference string) (*Image, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.interval
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.retries)), ctx)

	var img *Image
	op := func() error {
		var err error
		img, err = r.next.Inspect(ctx, reference)
		if err != nil && IsPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		r.logger.Debug("retrying inspection", "ref", reference, "wait", wait, "err", err)
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return img, nil
}

// IsPermanent reports whether err will not go away by retrying.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrToolNotFound) ||
		errors.Is(err, ErrMalformedOutput) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, context.Canceled)
}
