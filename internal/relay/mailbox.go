// Package relay carries the signer's redirect URL back to the flow waiting for it.
// Every implementation is a single-slot mailbox: a later write before a read replaces
// the earlier value and a value is handed out exactly once.
package relay

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

var ErrResponseTimeout = errors.New("timed out awaiting signer response")

type Mailbox interface {
	Write(ctx context.Context, value string) error
	// AwaitAndTake blocks until a value is available, consumes and returns it.
	AwaitAndTake(ctx context.Context) (string, error)
}

// CaptureRedirect writes currentURL into mb if it looks like a signer redirect, that is
// it carries a status query parameter. It reports whether the URL was captured.
func CaptureRedirect(ctx context.Context, mb Mailbox, currentURL string) (bool, error) {
	u, err := url.Parse(currentURL)
	if err != nil {
		return false, errors.Wrap(err, "failed to parse redirect url")
	}

	if !u.Query().Has("status") {
		return false, nil
	}

	if err := mb.Write(ctx, currentURL); err != nil {
		return false, errors.Wrap(err, "failed to write redirect into mailbox")
	}

	return true, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeoutCause(ctx, timeout, ErrResponseTimeout)
}

func doneErr(ctx context.Context) error {
	cause := context.Cause(ctx)
	if errors.Is(cause, ErrResponseTimeout) {
		return ErrResponseTimeout
	}

	return errors.Wrap(cause, "stopped awaiting signer response")
}
