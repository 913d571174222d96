package recovery_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github/chapool/mtw-recovery/internal/assets"
	"github/chapool/mtw-recovery/internal/handshake"
	"github/chapool/mtw-recovery/internal/recovery"
	"github/chapool/mtw-recovery/internal/signing"
)

func TestRunner(t *testing.T) {
	ctx := t.Context()

	c := &mockChain{}
	c.On("WalletAddress", mock.Anything, registry, primary).Return(common.Address{}, nil)
	c.On("TokenBalance", mock.Anything, mock.Anything, mock.Anything).Return(big.NewInt(1), nil)
	d := &mockDiscovery{}
	d.On("FetchAccounts", mock.Anything, primary).Return([]common.Address{walletA, walletB}, nil)

	pending := &handshake.PendingLauncher{}
	release := make(chan struct{})
	awaiting := make(chan struct{})

	s := &mockSigner{}
	s.On("Run", mock.Anything, toWallet(walletA), mock.Anything).
		Run(func(args mock.Arguments) {
			obs := args.Get(2).(signing.Observer)
			obs.OnTransition(signing.Transition{From: signing.StateBuilding, To: signing.StateRequesting})
			_ = pending.Open(ctx, "celo://wallet/dappkit?type=sign_tx")
			obs.OnTransition(signing.Transition{From: signing.StateRequesting, To: signing.StateAwaitingResponse})
			close(awaiting)
			<-release
		}).
		Return(common.Hash{}, errors.New("rejected")).Once()
	s.On("Run", mock.Anything, toWallet(walletB), mock.Anything).Return(hashB, nil).Once()

	clock := time2.NewMockClock(time.Unix(1700000000, 0))
	runner := recovery.NewRunner(recovery.NewOrchestrator(registry, c, d, s, assets.Defaults()), pending, clock)

	assert.Equal(t, recovery.PhaseIdle, runner.Status().Phase)

	require.NoError(t, runner.Start(ctx, primary))
	<-awaiting

	status := runner.Status()
	assert.Equal(t, recovery.PhaseRunning, status.Phase)
	assert.Equal(t, primary.Hex(), status.Address)
	assert.Equal(t, "celo://wallet/dappkit?type=sign_tx", status.Deeplink.String)
	require.Len(t, status.Wallets, 2)
	assert.Equal(t, string(signing.StateAwaitingResponse), status.Wallets[0].State)
	assert.Equal(t, recovery.WalletPending, status.Wallets[1].State)
	assert.True(t, runner.Running())

	err := runner.Start(ctx, primary)
	assert.True(t, errors.Is(err, handshake.ErrSessionBusy))

	close(release)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, runner.Wait(waitCtx))

	status = runner.Status()
	assert.Equal(t, recovery.PhaseFinished, status.Phase)
	assert.False(t, status.Deeplink.Valid)
	require.NotNil(t, status.Outcome)
	assert.Equal(t, []string{hashB.Hex()}, status.Outcome.TxHashes)
	assert.Equal(t, recovery.WalletFailed, status.Wallets[0].State)
	assert.Equal(t, "rejected", status.Wallets[0].Error.String)
	assert.Equal(t, recovery.WalletRecovered, status.Wallets[1].State)
	assert.Equal(t, hashB.Hex(), status.Wallets[1].TxHash.String)
	assert.True(t, status.FinishedAt.Valid)
	assert.False(t, runner.Running())

	// a finished run can be followed by a new one
	d2 := &mockDiscovery{}
	d2.On("FetchAccounts", mock.Anything, primary).Return([]common.Address{}, nil)
	runner = recovery.NewRunner(recovery.NewOrchestrator(registry, c, d2, s, assets.Defaults()), pending, clock)
	require.NoError(t, runner.Start(ctx, primary))
	require.NoError(t, runner.Wait(waitCtx))
	assert.Equal(t, recovery.MsgNoWalletFound, runner.Status().Outcome.Error.String)
	require.NoError(t, runner.Start(ctx, primary))
	require.NoError(t, runner.Wait(waitCtx))
}

func TestRunnerShutdown(t *testing.T) {
	ctx := t.Context()

	c := &mockChain{}
	c.On("WalletAddress", mock.Anything, registry, primary).Return(common.Address{}, nil)
	c.On("TokenBalance", mock.Anything, mock.Anything, mock.Anything).Return(big.NewInt(1), nil)
	d := &mockDiscovery{}
	d.On("FetchAccounts", mock.Anything, primary).Return([]common.Address{walletA}, nil)

	started := make(chan struct{})
	s := &mockSigner{}
	s.On("Run", mock.Anything, toWallet(walletA), mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-args.Get(0).(context.Context).Done()
		}).
		Return(common.Hash{}, context.Canceled).Once()

	runner := recovery.NewRunner(recovery.NewOrchestrator(registry, c, d, s, assets.Defaults()), &handshake.PendingLauncher{}, time2.DefaultClock)
	require.NoError(t, runner.Start(ctx, primary))
	<-started

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, runner.Shutdown(shutdownCtx))

	status := runner.Status()
	assert.Equal(t, recovery.PhaseFinished, status.Phase)
	assert.Equal(t, recovery.MsgNoWalletFound, status.Outcome.Error.String)
}

func TestRunnerRunForeground(t *testing.T) {
	ctx := t.Context()

	c := &mockChain{}
	c.On("WalletAddress", mock.Anything, registry, primary).Return(signer, nil)
	c.On("TokenBalance", mock.Anything, mock.Anything, mock.Anything).Return(big.NewInt(1), nil)
	d := &mockDiscovery{}
	d.On("FetchAccounts", mock.Anything, signer).Return([]common.Address{walletB}, nil)
	s := &mockSigner{}
	s.On("Run", mock.Anything, toWallet(walletB), mock.Anything).Return(hashB, nil).Once()

	runner := recovery.NewRunner(recovery.NewOrchestrator(registry, c, d, s, assets.Defaults()), &handshake.PendingLauncher{}, time2.DefaultClock)

	obs := &recordingObserver{done: map[common.Address]error{}}
	outcome, err := runner.Run(ctx, primary, obs)
	require.NoError(t, err)
	assert.Equal(t, []string{hashB.Hex()}, outcome.TxHashes)
	assert.Equal(t, []common.Address{walletB}, obs.wallets)
	assert.NoError(t, obs.done[walletB])

	status := runner.Status()
	assert.Equal(t, recovery.PhaseFinished, status.Phase)
	assert.Equal(t, signer.Hex(), status.Signer)
	require.Len(t, status.Wallets, 1)
	assert.Equal(t, recovery.WalletRecovered, status.Wallets[0].State)
	assert.False(t, runner.Running())
}

func TestRunnerRunReturnsOwnOutcome(t *testing.T) {
	ctx := t.Context()
	other := common.HexToAddress("0xEEEE000000000000000000000000000000000005")

	c := &mockChain{}
	c.On("WalletAddress", mock.Anything, registry, mock.Anything).Return(common.Address{}, nil)
	c.On("TokenBalance", mock.Anything, mock.Anything, mock.Anything).Return(big.NewInt(1), nil)
	d := &mockDiscovery{}
	d.On("FetchAccounts", mock.Anything, primary).Return([]common.Address{walletB}, nil)
	d.On("FetchAccounts", mock.Anything, other).Return([]common.Address{}, nil)
	s := &mockSigner{}
	s.On("Run", mock.Anything, toWallet(walletB), mock.Anything).Return(hashB, nil)

	runner := recovery.NewRunner(recovery.NewOrchestrator(registry, c, d, s, assets.Defaults()), &handshake.PendingLauncher{}, time2.DefaultClock)

	// background runs keep replacing the status while foreground runs finish
	stop := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			select {
			case <-stop:
				return
			default:
				_ = runner.Start(ctx, other)
			}
		}
	}()

	for i := 0; i < 50; i++ {
		outcome, err := runner.Run(ctx, primary, recovery.NopObserver{})
		if errors.Is(err, handshake.ErrSessionBusy) {
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, []string{hashB.Hex()}, outcome.TxHashes)
		assert.False(t, outcome.Error.Valid)
	}

	close(stop)
	<-stopped

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, runner.Wait(waitCtx))
}
