package relay

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/mtw-recovery/internal/kv"
)

// Slot is the storage-signalling mailbox: the redirect is written to a shared key
// and the waiting side polls for it.
type Slot struct {
	store        kv.Store
	key          string
	pollInterval time.Duration
	timeout      time.Duration
}

func NewSlot(store kv.Store, key string, pollInterval time.Duration, timeout time.Duration) *Slot {
	return &Slot{
		store:        store,
		key:          key,
		pollInterval: pollInterval,
		timeout:      timeout,
	}
}

func (s *Slot) Write(ctx context.Context, value string) error {
	return s.store.Set(ctx, s.key, value)
}

func (s *Slot) AwaitAndTake(ctx context.Context) (string, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		v, err := s.store.Take(ctx, s.key)
		switch {
		case err == nil:
			return v, nil
		case errors.Is(err, kv.ErrNotFound):
		case ctx.Err() != nil:
			return "", doneErr(ctx)
		default:
			// transient store errors are retried on the next tick
			log.Warn().Err(err).Str("key", s.key).Msg("Failed to poll relay slot")
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return "", doneErr(ctx)
		}
	}
}
