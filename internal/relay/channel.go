package relay

import (
	"context"
	"sync"
	"time"
)

// Channel is the in-process mailbox used when the callback server and the waiting
// flow share one process.
type Channel struct {
	timeout time.Duration

	mu     sync.Mutex
	value  *string
	notify chan struct{}
}

func NewChannel(timeout time.Duration) *Channel {
	return &Channel{
		timeout: timeout,
		notify:  make(chan struct{}, 1),
	}
}

func (c *Channel) Write(_ context.Context, value string) error {
	c.mu.Lock()
	c.value = &value
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}

	return nil
}

func (c *Channel) AwaitAndTake(ctx context.Context) (string, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	for {
		if v, ok := c.take(); ok {
			return v, nil
		}

		select {
		case <-c.notify:
		case <-ctx.Done():
			return "", doneErr(ctx)
		}
	}
}

func (c *Channel) take() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.value == nil {
		return "", false
	}

	v := *c.value
	c.value = nil

	return v, true
}
