package handshake

import (
	"context"
	"sync"
)

// Launcher hands a deeplink to the external signer.
type Launcher interface {
	Open(ctx context.Context, deeplink string) error
}

type LauncherFunc func(ctx context.Context, deeplink string) error

func (f LauncherFunc) Open(ctx context.Context, deeplink string) error {
	return f(ctx, deeplink)
}

// PendingLauncher keeps the last launched deeplink so it can be shown to the user
// by whoever polls the status, e.g. the HTTP API.
type PendingLauncher struct {
	mu       sync.RWMutex
	deeplink string
}

func (p *PendingLauncher) Open(_ context.Context, deeplink string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.deeplink = deeplink

	return nil
}

func (p *PendingLauncher) Current() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.deeplink
}

func (p *PendingLauncher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.deeplink = ""
}

// ClearIfCurrent clears the deeplink only if no later launch replaced it.
func (p *PendingLauncher) ClearIfCurrent(deeplink string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.deeplink == deeplink {
		p.deeplink = ""
	}
}
