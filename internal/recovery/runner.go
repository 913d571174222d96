package recovery

import (
	"context"
	"sync"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/mtw-recovery/internal/handshake"
	"github/chapool/mtw-recovery/internal/signing"
)

type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseRunning  Phase = "running"
	PhaseFinished Phase = "finished"
)

const (
	WalletPending   = "pending"
	WalletRecovered = "recovered"
	WalletFailed    = "failed"
)

type WalletStatus struct {
	Address string      `json:"address"`
	State   string      `json:"state"` // pending, a signing state, recovered or failed
	TxHash  null.String `json:"txHash"`
	Error   null.String `json:"error"`
}

// Status is a snapshot of the current or last run.
type Status struct {
	Phase      Phase          `json:"phase"`
	Address    string         `json:"address,omitempty"`
	Signer     string         `json:"signer,omitempty"`
	Deeplink   null.String    `json:"deeplink"`
	Wallets    []WalletStatus `json:"wallets"`
	Outcome    *Outcome       `json:"outcome,omitempty"`
	StartedAt  null.Time      `json:"startedAt"`
	FinishedAt null.Time      `json:"finishedAt"`
}

// Runner runs at most one recovery at a time in the background.
type Runner struct {
	orchestrator *Orchestrator
	pending      *handshake.PendingLauncher
	clock        time2.Clock

	mu      sync.RWMutex
	status  Status
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

func NewRunner(orchestrator *Orchestrator, pending *handshake.PendingLauncher, clock time2.Clock) *Runner {
	done := make(chan struct{})
	close(done)

	return &Runner{
		orchestrator: orchestrator,
		pending:      pending,
		clock:        clock,
		status:       Status{Phase: PhaseIdle, Wallets: []WalletStatus{}},
		done:         done,
	}
}

// Start begins a recovery for primary. The run outlives ctx's cancellation but keeps its values.
// It fails with handshake.ErrSessionBusy while another run is in progress.
func (r *Runner) Start(ctx context.Context, primary common.Address) error {
	runCtx, done, err := r.begin(context.WithoutCancel(ctx), primary)
	if err != nil {
		return err
	}

	go r.run(runCtx, primary, done, nil)

	return nil
}

// Run performs a recovery for primary in the foreground and reports to observer as well.
// Cancelling ctx aborts the run.
func (r *Runner) Run(ctx context.Context, primary common.Address, observer Observer) (Outcome, error) {
	runCtx, done, err := r.begin(ctx, primary)
	if err != nil {
		return Outcome{}, err
	}

	return r.run(runCtx, primary, done, observer), nil
}

func (r *Runner) begin(ctx context.Context, primary common.Address) (context.Context, chan struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil, nil, errors.Wrap(handshake.ErrSessionBusy, "a recovery is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.running = true
	r.cancel = cancel
	r.done = make(chan struct{})
	r.status = Status{
		Phase:     PhaseRunning,
		Address:   primary.Hex(),
		Wallets:   []WalletStatus{},
		StartedAt: null.TimeFrom(r.clock.Now()),
	}
	r.pending.Clear()

	return runCtx, r.done, nil
}

func (r *Runner) run(ctx context.Context, primary common.Address, done chan struct{}, extra Observer) (outcome Outcome) {
	defer close(done)
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("Recovery run panicked")
			outcome = Outcome{TxHashes: []string{}, Error: null.StringFrom(MsgUnexpectedErrorPrefix + "internal error")}
			r.finish(outcome)
		}
	}()

	var observer Observer = &runObserver{runner: r}
	if extra != nil {
		observer = multiObserver{observer, extra}
	}

	outcome = r.orchestrator.Recover(ctx, primary, observer)
	r.finish(outcome)

	return outcome
}

func (r *Runner) finish(outcome Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending.Clear()
	r.status.Phase = PhaseFinished
	r.status.Outcome = &outcome
	r.status.FinishedAt = null.TimeFrom(r.clock.Now())
	r.running = false
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// Status returns a copy of the current status.
func (r *Runner) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.status
	s.Wallets = append([]WalletStatus(nil), r.status.Wallets...)
	if s.Wallets == nil {
		s.Wallets = []WalletStatus{}
	}
	if r.running {
		if deeplink := r.pending.Current(); deeplink != "" {
			s.Deeplink = null.StringFrom(deeplink)
		}
	}

	return s
}

func (r *Runner) Running() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.running
}

// Wait blocks until the current run finished or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	r.mu.RLock()
	done := r.done
	r.mu.RUnlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown cancels a running recovery and waits for it to stop.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()

	return r.Wait(ctx)
}

func (r *Runner) updateWallet(wallet common.Address, update func(w *WalletStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.status.Wallets {
		if r.status.Wallets[i].Address == wallet.Hex() {
			update(&r.status.Wallets[i])
			return
		}
	}
}

type runObserver struct {
	runner  *Runner
	current common.Address
}

func (o *runObserver) OnWallets(signer common.Address, wallets []common.Address) {
	o.runner.mu.Lock()
	defer o.runner.mu.Unlock()

	o.runner.status.Signer = signer.Hex()
	o.runner.status.Wallets = make([]WalletStatus, 0, len(wallets))
	for _, w := range wallets {
		o.runner.status.Wallets = append(o.runner.status.Wallets, WalletStatus{Address: w.Hex(), State: WalletPending})
	}
}

func (o *runObserver) OnWalletStart(wallet common.Address) {
	o.current = wallet
}

func (o *runObserver) OnTransition(t signing.Transition) {
	if t.To == signing.StateBroadcasting || t.To == signing.StateFailed {
		o.runner.pending.Clear()
	}

	o.runner.updateWallet(o.current, func(w *WalletStatus) {
		w.State = string(t.To)
	})
}

func (o *runObserver) OnWalletDone(wallet common.Address, txHash common.Hash, err error) {
	o.runner.pending.Clear()

	o.runner.updateWallet(wallet, func(w *WalletStatus) {
		if err != nil {
			w.State = WalletFailed
			w.Error = null.StringFrom(err.Error())
			return
		}
		w.State = WalletRecovered
		w.TxHash = null.StringFrom(txHash.Hex())
	})
}

type multiObserver []Observer

func (m multiObserver) OnWallets(signer common.Address, wallets []common.Address) {
	for _, o := range m {
		o.OnWallets(signer, wallets)
	}
}

func (m multiObserver) OnWalletStart(wallet common.Address) {
	for _, o := range m {
		o.OnWalletStart(wallet)
	}
}

func (m multiObserver) OnTransition(t signing.Transition) {
	for _, o := range m {
		o.OnTransition(t)
	}
}

func (m multiObserver) OnWalletDone(wallet common.Address, txHash common.Hash, err error) {
	for _, o := range m {
		o.OnWalletDone(wallet, txHash, err)
	}
}

// Since reports how long the current or last run took.
func (s Status) Since(now time.Time) time.Duration {
	if !s.StartedAt.Valid {
		return 0
	}
	if s.FinishedAt.Valid {
		return s.FinishedAt.Time.Sub(s.StartedAt.Time)
	}

	return now.Sub(s.StartedAt.Time)
}
