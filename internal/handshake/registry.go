package handshake

import (
	"sync"

	"github.com/pkg/errors"
)

var ErrSessionBusy = errors.New("another session is in flight")

// Registry tracks the single outstanding session. The relay has one slot, so two
// concurrent sessions would race on it.
type Registry struct {
	mu      sync.Mutex
	current string
}

func (r *Registry) Acquire(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != "" {
		return errors.Wrapf(ErrSessionBusy, "%q is outstanding", r.current)
	}
	r.current = id

	return nil
}

// Release frees the registry if id is the outstanding session.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == id {
		r.current = ""
	}
}

func (r *Registry) Current() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.current, r.current != ""
}
