package recovery_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-openapi/swag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/mtw-recovery/internal/api"
	"github/chapool/mtw-recovery/internal/api/httperrors"
	"github/chapool/mtw-recovery/internal/chain"
	"github/chapool/mtw-recovery/internal/dappkit"
	"github/chapool/mtw-recovery/internal/test"
	"github/chapool/mtw-recovery/internal/types"
)

const testWallet = "0x4444444444444444444444444444444444444444"

func TestGetCurrentRecoveryIdle(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		status := currentStatus(t, s, nil)
		assert.Equal(t, "idle", *status.Phase)
		assert.Empty(t, status.Wallets)
		assert.Empty(t, status.TxHashes)
	})
}

func TestPostRecoveryNoAddress(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "POST", "/api/v1/recoveries", nil, nil)
		test.RequireHTTPError(t, res, httperrors.ErrNotFoundAddress)
	})
}

func TestPostRecoveryInvalidAddress(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "POST", "/api/v1/recoveries", test.GenericPayload{"address": "0x12"}, nil)
		require.Equal(t, http.StatusBadRequest, res.Result().StatusCode)
	})
}

func TestPostRecoveryNoWallets(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		require.NoError(t, s.Coordinator.SetConnectedAddress(t.Context(), common.HexToAddress(testPrimary)))

		res := test.PerformRequest(t, s, "POST", "/api/v1/recoveries", nil, nil)
		require.Equal(t, http.StatusAccepted, res.Result().StatusCode)

		status := awaitStatus(t, s, nil, finished)
		assert.Equal(t, common.HexToAddress(testPrimary).Hex(), status.Address)
		assert.Equal(t, common.HexToAddress(testPrimary).Hex(), status.Signer)
		assert.Equal(t, "no valid wallet found", status.Error)
		assert.Empty(t, status.TxHashes)
		assert.NotNil(t, status.FinishedAt)

		status = currentStatus(t, s, http.Header{"Accept-Language": []string{"de"}})
		assert.Equal(t, "keine gültige Wallet gefunden", status.Error)
	})
}

func TestPostRecoveryDiscoveryFailure(t *testing.T) {
	test.WithTestServerFakes(t, func(s *api.Server, fakes test.Fakes) {
		fakes.Discovery.SetStatus(http.StatusBadGateway)

		res := test.PerformRequest(t, s, "POST", "/api/v1/recoveries", test.GenericPayload{"address": testPrimary}, nil)
		require.Equal(t, http.StatusAccepted, res.Result().StatusCode)

		status := awaitStatus(t, s, nil, finished)
		assert.True(t, strings.HasPrefix(status.Error, "Unexpected error: "), status.Error)
		assert.Empty(t, status.Wallets)
	})
}

func TestPostRecoveryReconnectsChain(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		s.Chain.Close()

		res := test.PerformRequest(t, s, "POST", "/api/v1/recoveries", test.GenericPayload{"address": testPrimary}, nil)
		require.Equal(t, http.StatusAccepted, res.Result().StatusCode)
		awaitStatus(t, s, nil, finished)

		require.NoError(t, s.Chain.HealthCheck(t.Context()))
	})
}

func TestPostRecoveryChainUnavailable(t *testing.T) {
	test.WithTestServerFakes(t, func(s *api.Server, fakes test.Fakes) {
		s.Chain.Close()
		fakes.Node.Close()

		res := test.PerformRequest(t, s, "POST", "/api/v1/recoveries", test.GenericPayload{"address": testPrimary}, nil)
		test.RequireHTTPError(t, res, httperrors.ErrServiceUnavailableChain)

		assert.Equal(t, "idle", *currentStatus(t, s, nil).Phase)
	})
}

func TestPostRecovery(t *testing.T) {
	test.WithTestServerFakes(t, func(s *api.Server, fakes test.Fakes) {
		fakes.Discovery.SetAccounts(testPrimary, testPrimary, testWallet)

		res := test.PerformRequest(t, s, "POST", "/api/v1/recoveries", test.GenericPayload{"address": testPrimary}, nil)
		require.Equal(t, http.StatusAccepted, res.Result().StatusCode)

		var started types.RecoveryStatus
		test.ParseResponseAndValidate(t, res, &started)
		assert.Equal(t, "running", *started.Phase)

		// a second run is rejected while the first awaits the signer
		res = test.PerformRequest(t, s, "POST", "/api/v1/recoveries", test.GenericPayload{"address": testPrimary}, nil)
		test.RequireHTTPError(t, res, httperrors.ErrConflictRecoveryRunning)

		status := awaitStatus(t, s, nil, func(status types.RecoveryStatus) bool {
			return status.Deeplink != ""
		})
		require.Len(t, status.Wallets, 1)
		assert.Equal(t, common.HexToAddress(testWallet).Hex(), *status.Wallets[0].Address)
		assert.Equal(t, "Open this link on the device running your wallet to continue", status.Message)

		signed := hexutil.Encode([]byte{0xf8, 0x6b, 0x01})
		answerDeeplink(t, s, status.Deeplink, func(req *dappkit.Request) *dappkit.Response {
			require.Equal(t, dappkit.RequestTypeSignTx, req.Type)
			require.Len(t, req.Txs, 1)

			tx := req.Txs[0]
			assert.Equal(t, common.HexToAddress(testPrimary), tx.From)
			assert.Equal(t, common.HexToAddress(testWallet), tx.To)
			assert.Equal(t, uint64(7), tx.Nonce)
			assert.Equal(t, uint64(50000), tx.EstimatedGas)
			assert.Equal(t, common.HexToAddress(s.Config.Chain.FeeCurrency), tx.FeeCurrencyAddress)

			calls, err := chain.DecodeExecuteTransactions(hexutil.MustDecode(tx.TxData))
			require.NoError(t, err)
			assert.Len(t, calls, 3)

			return &dappkit.Response{
				RequestID: req.RequestID,
				Type:      req.Type,
				Status:    dappkit.StatusSuccess,
				RawTxs:    []string{signed},
			}
		})

		status = awaitStatus(t, s, nil, finished)
		txHash := crypto.Keccak256Hash([]byte{0xf8, 0x6b, 0x01}).Hex()

		assert.Empty(t, status.Error)
		assert.Empty(t, status.Deeplink)
		assert.Equal(t, []string{txHash}, status.TxHashes)
		assert.Equal(t, []string{"https://explorer.celo.org/tx/" + txHash}, status.ExplorerLinks)
		assert.Equal(t, "Recovered funds from 1 wallet", status.Message)
		require.Len(t, status.Wallets, 1)
		assert.Equal(t, "recovered", swag.StringValue(status.Wallets[0].State))
		assert.Equal(t, txHash, status.Wallets[0].TxHash)

		require.Len(t, fakes.Node.Sent(), 1)
		assert.Equal(t, signed, fakes.Node.Sent()[0].String())
	})
}

func TestPostRecoverySignerDeclines(t *testing.T) {
	test.WithTestServerFakes(t, func(s *api.Server, fakes test.Fakes) {
		fakes.Discovery.SetAccounts(testPrimary, testWallet)

		res := test.PerformRequest(t, s, "POST", "/api/v1/recoveries", test.GenericPayload{"address": testPrimary}, nil)
		require.Equal(t, http.StatusAccepted, res.Result().StatusCode)

		status := awaitStatus(t, s, nil, func(status types.RecoveryStatus) bool {
			return status.Deeplink != ""
		})

		answerDeeplink(t, s, status.Deeplink, func(req *dappkit.Request) *dappkit.Response {
			return &dappkit.Response{RequestID: req.RequestID, Type: req.Type, Status: dappkit.StatusUnauthorized}
		})

		status = awaitStatus(t, s, nil, finished)
		assert.Equal(t, "no valid wallet found", status.Error)
		require.Len(t, status.Wallets, 1)
		assert.Equal(t, "failed", swag.StringValue(status.Wallets[0].State))
		assert.NotEmpty(t, status.Wallets[0].Error)
		assert.Empty(t, fakes.Node.Sent())
	})
}
