package tui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github/chapool/mtw-recovery/internal/handshake"
	"github/chapool/mtw-recovery/internal/recovery"
	"github/chapool/mtw-recovery/internal/signing"
)

// Plain writes recovery events line by line, for output that is not a terminal.
type Plain struct {
	mu          sync.Mutex
	w           io.Writer
	explorerURL string
	deeplinks   *handshake.PendingLauncher
}

func NewPlain(w io.Writer, explorerURL string, deeplinks *handshake.PendingLauncher) *Plain {
	return &Plain{w: w, explorerURL: explorerURL, deeplinks: deeplinks}
}

func (p *Plain) printf(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *Plain) OnWallets(signer common.Address, wallets []common.Address) {
	p.printf("Found %d wallet(s), signer %s", len(wallets), signer.Hex())
}

func (p *Plain) OnWalletStart(wallet common.Address) {
	p.printf("Recovering %s", wallet.Hex())
}

func (p *Plain) OnTransition(t signing.Transition) {
	if t.Err != nil {
		p.printf("  %s -> %s: %v", t.From, t.To, t.Err)
		return
	}
	p.printf("  %s -> %s", t.From, t.To)
}

func (p *Plain) OnWalletDone(wallet common.Address, txHash common.Hash, err error) {
	if err != nil {
		p.printf("Failed to recover %s: %v", wallet.Hex(), err)
		return
	}
	p.printf("Recovered %s: "+p.explorerURL, wallet.Hex(), txHash.Hex())
}

// Run executes work, printing every deeplink that has to be opened.
func (p *Plain) Run(ctx context.Context, work Work) (recovery.Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if p.deeplinks != nil {
		go WatchDeeplinks(ctx, p.deeplinks, func(deeplink string) {
			if deeplink != "" {
				p.printf("Open this link with your wallet app:\n%s", deeplink)
			}
		})
	}

	outcome := work(ctx, p)
	cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.w, RenderOutcome(outcome, p.explorerURL))

	return outcome, nil
}
