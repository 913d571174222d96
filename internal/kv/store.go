// Package kv holds the small client-local key/value state of the recovery flow:
// the connected primary address and the relay slot.
package kv

import (
	"context"

	"github.com/pkg/errors"
)

const KeyAddress = "address"

var ErrNotFound = errors.New("key not found")

type Store interface {
	// Get returns ErrNotFound if key is not set.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	// Take atomically reads and clears key. It returns ErrNotFound if key is not set.
	Take(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
