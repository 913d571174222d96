package tui

import (
	"context"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/mtw-recovery/internal/handshake"
	"github/chapool/mtw-recovery/internal/recovery"
	"github/chapool/mtw-recovery/internal/signing"
	"golang.org/x/term"
)

const deeplinkPollInterval = 200 * time.Millisecond

var ErrAborted = errors.New("recovery aborted by user")

// Work runs a recovery reporting to observer.
type Work func(ctx context.Context, observer recovery.Observer) recovery.Outcome

// Interactive reports whether f is attached to a terminal the monitor can draw on.
func Interactive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Monitor forwards recovery events to a bubbletea program.
type Monitor struct {
	program   *tea.Program
	deeplinks *handshake.PendingLauncher
}

func NewMonitor(primary string, explorerURL string, deeplinks *handshake.PendingLauncher, opts ...tea.ProgramOption) *Monitor {
	return &Monitor{
		program:   tea.NewProgram(NewModel(primary, explorerURL), opts...),
		deeplinks: deeplinks,
	}
}

func (m *Monitor) OnWallets(signer common.Address, wallets []common.Address) {
	list := make([]string, 0, len(wallets))
	for _, w := range wallets {
		list = append(list, w.Hex())
	}
	m.program.Send(WalletsMsg{Signer: signer.Hex(), Wallets: list})
}

func (m *Monitor) OnWalletStart(wallet common.Address) {
	m.program.Send(WalletStartMsg{Wallet: wallet.Hex()})
}

func (m *Monitor) OnTransition(t signing.Transition) {
	m.program.Send(TransitionMsg{Transition: t})
}

func (m *Monitor) OnWalletDone(wallet common.Address, txHash common.Hash, err error) {
	msg := WalletDoneMsg{Wallet: wallet.Hex(), Err: err}
	if err == nil {
		msg.TxHash = txHash.Hex()
	}
	m.program.Send(msg)
}

// Run executes work in the background while the program renders its progress.
// Quitting the program cancels work and returns ErrAborted.
func (m *Monitor) Run(ctx context.Context, work Work) (recovery.Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if m.deeplinks != nil {
		go WatchDeeplinks(ctx, m.deeplinks, func(deeplink string) {
			m.program.Send(DeeplinkMsg{Deeplink: deeplink})
		})
	}

	result := make(chan recovery.Outcome, 1)
	go func() {
		outcome := work(ctx, m)
		m.program.Send(OutcomeMsg{Outcome: outcome})
		result <- outcome
	}()

	final, err := m.program.Run()
	if err != nil {
		cancel()
		return <-result, errors.Wrap(err, "failed to run monitor")
	}

	if model, ok := final.(Model); ok && model.outcome != nil {
		return *model.outcome, nil
	}

	cancel()

	return <-result, ErrAborted
}

// WatchDeeplinks calls fn whenever the pending deeplink changes until ctx is done.
func WatchDeeplinks(ctx context.Context, deeplinks *handshake.PendingLauncher, fn func(deeplink string)) {
	ticker := time.NewTicker(deeplinkPollInterval)
	defer ticker.Stop()

	last := ""
	for {
		if current := deeplinks.Current(); current != last {
			last = current
			fn(current)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
