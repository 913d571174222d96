package recovery_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github/chapool/mtw-recovery/internal/assets"
	"github/chapool/mtw-recovery/internal/chain"
	"github/chapool/mtw-recovery/internal/discovery"
	"github/chapool/mtw-recovery/internal/recovery"
	"github/chapool/mtw-recovery/internal/signing"
)

var (
	registry = common.HexToAddress("0x7d21685C17607338b313a7174bAb6620baD0aaB7")
	primary  = common.HexToAddress("0xAAAA000000000000000000000000000000000001")
	signer   = common.HexToAddress("0xBBBB000000000000000000000000000000000002")
	walletA  = common.HexToAddress("0xCCCC000000000000000000000000000000000003")
	walletB  = common.HexToAddress("0xDDDD000000000000000000000000000000000004")
	hashB    = common.HexToHash("0xbbbb000000000000000000000000000000000000000000000000000000000002")
)

type mockChain struct {
	mock.Mock
}

func (m *mockChain) WalletAddress(ctx context.Context, reg common.Address, account common.Address) (common.Address, error) {
	args := m.Called(ctx, reg, account)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *mockChain) TokenBalance(ctx context.Context, token common.Address, account common.Address) (*big.Int, error) {
	args := m.Called(ctx, token, account)
	balance, _ := args.Get(0).(*big.Int)
	return balance, args.Error(1)
}

func (m *mockChain) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	args := m.Called(ctx, account)
	balance, _ := args.Get(0).(*big.Int)
	return balance, args.Error(1)
}

type mockDiscovery struct {
	mock.Mock
}

func (m *mockDiscovery) FetchAccounts(ctx context.Context, walletAddress common.Address) ([]common.Address, error) {
	args := m.Called(ctx, walletAddress)
	accounts, _ := args.Get(0).([]common.Address)
	return accounts, args.Error(1)
}

type mockSigner struct {
	mock.Mock
}

func (m *mockSigner) Run(ctx context.Context, txs []signing.UnsignedTx, observer signing.Observer) (common.Hash, error) {
	args := m.Called(ctx, txs, observer)
	return args.Get(0).(common.Hash), args.Error(1)
}

func toWallet(wallet common.Address) interface{} {
	return mock.MatchedBy(func(txs []signing.UnsignedTx) bool {
		return len(txs) == 1 && txs[0].To == wallet && txs[0].From == primary
	})
}

func TestRecoverNoWallets(t *testing.T) {
	c := &mockChain{}
	c.On("WalletAddress", mock.Anything, registry, primary).Return(common.Address{}, nil)
	d := &mockDiscovery{}
	d.On("FetchAccounts", mock.Anything, primary).Return([]common.Address{}, nil)
	s := &mockSigner{}

	o := recovery.NewOrchestrator(registry, c, d, s, assets.Defaults())
	outcome := o.Recover(t.Context(), primary, nil)

	assert.Equal(t, recovery.Outcome{TxHashes: []string{}, Error: null.StringFrom("no valid wallet found")}, outcome)
	s.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecoverExcludesPrimary(t *testing.T) {
	c := &mockChain{}
	c.On("WalletAddress", mock.Anything, registry, primary).Return(common.Address{}, nil)
	d := &mockDiscovery{}
	d.On("FetchAccounts", mock.Anything, primary).Return([]common.Address{common.HexToAddress("0xaaaa000000000000000000000000000000000001")}, nil)
	s := &mockSigner{}

	o := recovery.NewOrchestrator(registry, c, d, s, assets.Defaults())
	outcome := o.Recover(t.Context(), primary, nil)

	assert.Empty(t, outcome.TxHashes)
	assert.Equal(t, recovery.MsgNoWalletFound, outcome.Error.String)
	s.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecoverFirstWalletFailsSecondSucceeds(t *testing.T) {
	c := &mockChain{}
	c.On("WalletAddress", mock.Anything, registry, primary).Return(signer, nil)
	c.On("TokenBalance", mock.Anything, mock.Anything, mock.Anything).Return(big.NewInt(5), nil)
	d := &mockDiscovery{}
	d.On("FetchAccounts", mock.Anything, signer).Return([]common.Address{walletA, walletB}, nil)
	s := &mockSigner{}
	s.On("Run", mock.Anything, toWallet(walletA), mock.Anything).Return(common.Hash{}, &signing.Error{State: signing.StateValidating, Err: errors.New("rejected")}).Once()
	s.On("Run", mock.Anything, toWallet(walletB), mock.Anything).Return(hashB, nil).Once()

	o := recovery.NewOrchestrator(registry, c, d, s, assets.Defaults())
	outcome := o.Recover(t.Context(), primary, nil)

	assert.Equal(t, recovery.Outcome{TxHashes: []string{hashB.Hex()}}, outcome)
	assert.False(t, outcome.Error.Valid)
	s.AssertExpectations(t)
}

func TestRecoverDiscoveryFailure(t *testing.T) {
	c := &mockChain{}
	c.On("WalletAddress", mock.Anything, registry, primary).Return(common.Address{}, nil)
	discoveryErr := errors.Wrap(discovery.ErrDiscoveryFailure, "connection refused")
	d := &mockDiscovery{}
	d.On("FetchAccounts", mock.Anything, primary).Return(nil, discoveryErr)
	s := &mockSigner{}

	o := recovery.NewOrchestrator(registry, c, d, s, assets.Defaults())
	outcome := o.Recover(t.Context(), primary, nil)

	assert.Equal(t, recovery.Outcome{
		TxHashes: []string{},
		Error:    null.StringFrom("Unexpected error: " + discoveryErr.Error()),
	}, outcome)
	s.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
	c.AssertNotCalled(t, "TokenBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecoverRegistryFailure(t *testing.T) {
	c := &mockChain{}
	c.On("WalletAddress", mock.Anything, registry, primary).Return(common.Address{}, errors.New("rpc down"))
	d := &mockDiscovery{}
	s := &mockSigner{}

	o := recovery.NewOrchestrator(registry, c, d, s, assets.Defaults())
	outcome := o.Recover(t.Context(), primary, nil)

	assert.Empty(t, outcome.TxHashes)
	assert.Contains(t, outcome.Error.String, "Unexpected error: ")
	assert.Contains(t, outcome.Error.String, "rpc down")
	d.AssertNotCalled(t, "FetchAccounts", mock.Anything, mock.Anything)
}

func TestRecoverBalanceFailureSkipsWallet(t *testing.T) {
	cUSD := assets.Defaults()[0]

	c := &mockChain{}
	c.On("WalletAddress", mock.Anything, registry, primary).Return(common.Address{}, nil)
	c.On("TokenBalance", mock.Anything, cUSD.ContractAddress(), walletA).Return(nil, errors.New("call reverted"))
	c.On("TokenBalance", mock.Anything, cUSD.ContractAddress(), walletB).Return(big.NewInt(1), nil)
	d := &mockDiscovery{}
	d.On("FetchAccounts", mock.Anything, primary).Return([]common.Address{walletA, walletB}, nil)
	s := &mockSigner{}
	s.On("Run", mock.Anything, toWallet(walletB), mock.Anything).Return(hashB, nil).Once()

	o := recovery.NewOrchestrator(registry, c, d, s, []assets.Asset{cUSD})
	outcome := o.Recover(t.Context(), primary, nil)

	assert.Equal(t, []string{hashB.Hex()}, outcome.TxHashes)
	s.AssertExpectations(t)
}

func TestRecoverBatchMovesEveryAssetToSigner(t *testing.T) {
	list := append(assets.Defaults(), assets.Asset{Symbol: "NAT", Kind: assets.KindNative, Decimals: 18})

	c := &mockChain{}
	c.On("WalletAddress", mock.Anything, registry, primary).Return(signer, nil)
	for i, a := range list[:3] {
		c.On("TokenBalance", mock.Anything, a.ContractAddress(), walletA).Return(big.NewInt(int64(100+i)), nil)
	}
	c.On("BalanceAt", mock.Anything, walletA).Return(big.NewInt(7), nil)
	d := &mockDiscovery{}
	d.On("FetchAccounts", mock.Anything, signer).Return([]common.Address{walletA}, nil)

	var batch []signing.UnsignedTx
	s := &mockSigner{}
	s.On("Run", mock.Anything, toWallet(walletA), mock.Anything).
		Run(func(args mock.Arguments) { batch = args.Get(1).([]signing.UnsignedTx) }).
		Return(hashB, nil).Once()

	o := recovery.NewOrchestrator(registry, c, d, s, list)
	outcome := o.Recover(t.Context(), primary, nil)
	require.Equal(t, []string{hashB.Hex()}, outcome.TxHashes)

	require.Len(t, batch, 1)
	calls, err := chain.DecodeExecuteTransactions(batch[0].Data)
	require.NoError(t, err)
	require.Len(t, calls, 4)

	for i, a := range list[:3] {
		assert.Equal(t, a.ContractAddress(), calls[i].To)
		want, err := chain.EncodeTransfer(signer, big.NewInt(int64(100+i)))
		require.NoError(t, err)
		assert.Equal(t, want, calls[i].Data)
	}

	assert.Equal(t, signer, calls[3].To)
	assert.Equal(t, int64(7), calls[3].Value.Int64())
	assert.Empty(t, calls[3].Data)
}

type recordingObserver struct {
	recovery.NopObserver
	wallets []common.Address
	done    map[common.Address]error
}

func (r *recordingObserver) OnWallets(_ common.Address, wallets []common.Address) {
	r.wallets = wallets
}

func (r *recordingObserver) OnWalletDone(wallet common.Address, _ common.Hash, err error) {
	r.done[wallet] = err
}

func TestRecoverNotifiesObserver(t *testing.T) {
	c := &mockChain{}
	c.On("WalletAddress", mock.Anything, registry, primary).Return(common.Address{}, nil)
	c.On("TokenBalance", mock.Anything, mock.Anything, mock.Anything).Return(big.NewInt(0), nil)
	d := &mockDiscovery{}
	d.On("FetchAccounts", mock.Anything, primary).Return([]common.Address{walletA, walletB}, nil)
	failure := errors.New("boom")
	s := &mockSigner{}
	s.On("Run", mock.Anything, toWallet(walletA), mock.Anything).Return(common.Hash{}, failure)
	s.On("Run", mock.Anything, toWallet(walletB), mock.Anything).Return(hashB, nil)

	obs := &recordingObserver{done: map[common.Address]error{}}
	o := recovery.NewOrchestrator(registry, c, d, s, assets.Defaults())
	o.Recover(t.Context(), primary, obs)

	assert.Equal(t, []common.Address{walletA, walletB}, obs.wallets)
	assert.Equal(t, failure, obs.done[walletA])
	assert.NoError(t, obs.done[walletB])
}
