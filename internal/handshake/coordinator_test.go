package handshake_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/mtw-recovery/internal/config"
	"github/chapool/mtw-recovery/internal/dappkit"
	"github/chapool/mtw-recovery/internal/handshake"
	"github/chapool/mtw-recovery/internal/kv"
	"github/chapool/mtw-recovery/internal/relay"
)

var testAccount = common.HexToAddress("0x3333333333333333333333333333333333333333")

func testDappKit() config.DappKit {
	return config.DappKit{
		DeeplinkBase: "celo://wallet/dappkit",
		DappName:     "Valora Helper",
		Callback:     "http://localhost:8080/callback",
	}
}

// signer answers every deeplink through mb using respond.
func signer(t *testing.T, mb relay.Mailbox, respond func(req *dappkit.Request) *dappkit.Response) handshake.LauncherFunc {
	t.Helper()

	return func(ctx context.Context, deeplink string) error {
		req, err := dappkit.ParseRequest(deeplink)
		require.NoError(t, err)

		raw, err := dappkit.SerializeResponse(req.Meta.Callback, respond(req))
		require.NoError(t, err)

		return mb.Write(ctx, raw)
	}
}

// signTxs runs a sign_tx round trip through Exchange.
func signTxs(ctx context.Context, c *handshake.Coordinator, txs []dappkit.TxToSign) ([]string, error) {
	req := &dappkit.Request{
		RequestID: handshake.NewRequestID(handshake.PrefixSignTx),
		Type:      dappkit.RequestTypeSignTx,
		Txs:       txs,
	}

	resp, err := c.Exchange(ctx, req)
	if err != nil {
		return nil, err
	}

	return dappkit.MatchSignTx(req.RequestID, resp)
}

func TestRequestAccountAddress(t *testing.T) {
	ctx := t.Context()
	mb := relay.NewChannel(time.Second)
	store := kv.NewMemory()

	launcher := signer(t, mb, func(req *dappkit.Request) *dappkit.Response {
		assert.True(t, strings.HasPrefix(req.RequestID, handshake.PrefixLogin+"-"))
		assert.Equal(t, "Valora Helper", req.Meta.DappName)

		return &dappkit.Response{
			RequestID: req.RequestID,
			Type:      req.Type,
			Status:    dappkit.StatusSuccess,
			Address:   testAccount,
		}
	})

	c := handshake.NewCoordinator(testDappKit(), mb, launcher, store, &handshake.Registry{})

	addr, err := c.RequestAccountAddress(ctx)
	require.NoError(t, err)
	assert.Equal(t, testAccount, addr)

	stored, err := c.ConnectedAddress(ctx)
	require.NoError(t, err)
	assert.Equal(t, testAccount, stored)
	assert.False(t, c.Busy())
}

func TestExchangeSignTxs(t *testing.T) {
	mb := relay.NewChannel(time.Second)

	launcher := signer(t, mb, func(req *dappkit.Request) *dappkit.Response {
		require.Len(t, req.Txs, 2)
		assert.True(t, strings.HasPrefix(req.RequestID, handshake.PrefixSignTx+"-"))

		return &dappkit.Response{
			RequestID: req.RequestID,
			Type:      req.Type,
			Status:    dappkit.StatusSuccess,
			RawTxs:    []string{"0x01", "0x02"},
		}
	})

	c := handshake.NewCoordinator(testDappKit(), mb, launcher, kv.NewMemory(), &handshake.Registry{})

	rawTxs, err := signTxs(t.Context(), c, []dappkit.TxToSign{{TxData: "0x"}, {TxData: "0x"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"0x01", "0x02"}, rawTxs)
	assert.False(t, c.Busy())
}

func TestExchangeRejectsForeignResponse(t *testing.T) {
	mb := relay.NewChannel(time.Second)

	launcher := signer(t, mb, func(req *dappkit.Request) *dappkit.Response {
		return &dappkit.Response{
			RequestID: "sign_tx",
			Type:      req.Type,
			Status:    dappkit.StatusSuccess,
			RawTxs:    []string{"0x01"},
		}
	})

	c := handshake.NewCoordinator(testDappKit(), mb, launcher, kv.NewMemory(), &handshake.Registry{})

	rawTxs, err := signTxs(t.Context(), c, []dappkit.TxToSign{{TxData: "0x"}})
	assert.Nil(t, rawTxs)
	assert.True(t, errors.Is(err, dappkit.ErrUnexpectedResponse))
	assert.False(t, c.Busy())
}

func TestRequestAccountAddressRejectsUnauthorized(t *testing.T) {
	mb := relay.NewChannel(time.Second)

	launcher := signer(t, mb, func(req *dappkit.Request) *dappkit.Response {
		return &dappkit.Response{RequestID: req.RequestID, Type: req.Type, Status: dappkit.StatusUnauthorized}
	})

	c := handshake.NewCoordinator(testDappKit(), mb, launcher, kv.NewMemory(), &handshake.Registry{})

	_, err := c.RequestAccountAddress(t.Context())
	assert.True(t, errors.Is(err, dappkit.ErrUnexpectedResponse))
	assert.False(t, c.Busy())
}

func TestExchangeSessionBusy(t *testing.T) {
	mb := relay.NewChannel(time.Second)
	launched := make(chan struct{})
	launcher := handshake.LauncherFunc(func(context.Context, string) error {
		close(launched)
		return nil
	})

	c := handshake.NewCoordinator(testDappKit(), mb, launcher, kv.NewMemory(), &handshake.Registry{})

	done := make(chan error, 1)
	go func() {
		_, err := c.RequestAccountAddress(t.Context())
		done <- err
	}()

	<-launched
	assert.True(t, c.Busy())

	_, err := signTxs(t.Context(), c, []dappkit.TxToSign{{TxData: "0x"}})
	assert.True(t, errors.Is(err, handshake.ErrSessionBusy))

	assert.True(t, errors.Is(<-done, relay.ErrResponseTimeout))
	assert.False(t, c.Busy())
}

func TestExchangeTimeout(t *testing.T) {
	mb := relay.NewChannel(20 * time.Millisecond)
	pending := &handshake.PendingLauncher{}

	c := handshake.NewCoordinator(testDappKit(), mb, pending, kv.NewMemory(), &handshake.Registry{})

	_, err := c.RequestAccountAddress(t.Context())
	assert.Equal(t, relay.ErrResponseTimeout, err)
	assert.Contains(t, pending.Current(), "type=account_address")

	pending.ClearIfCurrent("celo://wallet/dappkit?other")
	assert.NotEmpty(t, pending.Current())

	pending.Clear()
	assert.Empty(t, pending.Current())
}

func TestRegistry(t *testing.T) {
	r := &handshake.Registry{}
	require.NoError(t, r.Acquire("a"))
	assert.True(t, errors.Is(r.Acquire("b"), handshake.ErrSessionBusy))

	r.Release("b")
	current, busy := r.Current()
	assert.True(t, busy)
	assert.Equal(t, "a", current)

	r.Release("a")
	require.NoError(t, r.Acquire("b"))
}

func TestConnectedAddressMissing(t *testing.T) {
	c := handshake.NewCoordinator(testDappKit(), relay.NewChannel(0), &handshake.PendingLauncher{}, kv.NewMemory(), &handshake.Registry{})

	_, err := c.ConnectedAddress(t.Context())
	assert.True(t, errors.Is(err, kv.ErrNotFound))
}

func TestStartFinishAccountAddress(t *testing.T) {
	ctx := t.Context()
	mb := relay.NewChannel(time.Second)
	pending := &handshake.PendingLauncher{}

	c := handshake.NewCoordinator(testDappKit(), mb, pending, kv.NewMemory(), &handshake.Registry{})

	p, err := c.StartAccountAddress(ctx)
	require.NoError(t, err)
	assert.True(t, c.Busy())

	req, err := dappkit.ParseRequest(pending.Current())
	require.NoError(t, err)
	assert.Equal(t, p.RequestID(), req.RequestID)

	raw, err := dappkit.SerializeResponse(req.Meta.Callback, &dappkit.Response{
		RequestID: req.RequestID,
		Type:      req.Type,
		Status:    dappkit.StatusSuccess,
		Address:   testAccount,
	})
	require.NoError(t, err)
	require.NoError(t, mb.Write(ctx, raw))

	addr, err := c.FinishAccountAddress(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, testAccount, addr)
	assert.False(t, c.Busy())

	stored, err := c.ConnectedAddress(ctx)
	require.NoError(t, err)
	assert.Equal(t, testAccount, stored)
}
