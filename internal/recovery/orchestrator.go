package recovery

import (
	"context"
	"math/big"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github/chapool/mtw-recovery/internal/assets"
	"github/chapool/mtw-recovery/internal/chain"
	"github/chapool/mtw-recovery/internal/metrics"
	"github/chapool/mtw-recovery/internal/signing"
)

type Orchestrator struct {
	chain     Chain
	discovery Discovery
	signer    Signer
	assets    []assets.Asset
	registry  common.Address
	logger    zerolog.Logger
}

func NewOrchestrator(accountsRegistry common.Address, c Chain, d Discovery, s Signer, assetList []assets.Asset) *Orchestrator {
	return &Orchestrator{
		chain:     c,
		discovery: d,
		signer:    s,
		assets:    assetList,
		registry:  accountsRegistry,
		logger:    log.With().Str("component", "recovery").Logger(),
	}
}

// Recover moves every configured asset out of each wallet contract associated with primary
// back to its signer. Wallets are processed one after another and a failing wallet is skipped.
func (o *Orchestrator) Recover(ctx context.Context, primary common.Address, observer Observer) Outcome {
	if observer == nil {
		observer = NopObserver{}
	}

	logger := o.logger.With().Str("primary", primary.Hex()).Logger()

	signer, wallets, err := o.discover(ctx, primary)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to discover wallets")
		metrics.IncRecovery(metrics.ResultFailure)
		return Outcome{TxHashes: []string{}, Error: null.StringFrom(MsgUnexpectedErrorPrefix + err.Error())}
	}

	observer.OnWallets(signer, wallets)
	logger.Info().Str("signer", signer.Hex()).Int("wallets", len(wallets)).Msg("Discovered wallets")

	outcome := Outcome{TxHashes: []string{}}
	for _, wallet := range wallets {
		observer.OnWalletStart(wallet)

		hash, err := o.recoverWallet(ctx, primary, signer, wallet, observer)
		observer.OnWalletDone(wallet, hash, err)

		if err != nil {
			logger.Error().Err(err).Str("wallet", wallet.Hex()).Msg("Failed to recover wallet, continuing")
			metrics.IncWallet(metrics.ResultFailure)
			continue
		}

		logger.Info().Str("wallet", wallet.Hex()).Str("txHash", hash.Hex()).Msg("Recovered wallet")
		metrics.IncWallet(metrics.ResultSuccess)
		outcome.TxHashes = append(outcome.TxHashes, hash.Hex())
	}

	if len(outcome.TxHashes) == 0 {
		outcome.Error = null.StringFrom(MsgNoWalletFound)
		metrics.IncRecovery(metrics.ResultNoWallet)
		return outcome
	}

	metrics.IncRecovery(metrics.ResultSuccess)

	return outcome
}

// discover resolves the signer of primary and the wallets associated with it, primary excluded.
func (o *Orchestrator) discover(ctx context.Context, primary common.Address) (common.Address, []common.Address, error) {
	signer, err := o.chain.WalletAddress(ctx, o.registry, primary)
	if err != nil {
		return common.Address{}, nil, errors.Wrap(err, "failed to resolve wallet address")
	}
	if signer == (common.Address{}) {
		signer = primary
	}

	accounts, err := o.discovery.FetchAccounts(ctx, signer)
	if err != nil {
		return common.Address{}, nil, err
	}

	primaryLower := strings.ToLower(primary.Hex())
	wallets := make([]common.Address, 0, len(accounts))
	for _, a := range accounts {
		if strings.ToLower(a.Hex()) == primaryLower {
			continue
		}
		wallets = append(wallets, a)
	}

	return signer, wallets, nil
}

func (o *Orchestrator) recoverWallet(ctx context.Context, primary, signer, wallet common.Address, observer Observer) (common.Hash, error) {
	calls := make([]chain.Call, 0, len(o.assets))
	for _, asset := range o.assets {
		balance, err := o.balance(ctx, asset, wallet)
		if err != nil {
			return common.Hash{}, errors.Wrapf(err, "failed to get %s balance", asset.Symbol)
		}

		call, err := asset.TransferCall(signer, balance)
		if err != nil {
			return common.Hash{}, err
		}
		calls = append(calls, call)
	}

	data, err := chain.EncodeExecuteTransactions(calls)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to encode batch")
	}

	return o.signer.Run(ctx, []signing.UnsignedTx{{
		From: primary,
		To:   wallet,
		Data: data,
	}}, observer)
}

func (o *Orchestrator) balance(ctx context.Context, asset assets.Asset, holder common.Address) (*big.Int, error) {
	if asset.Kind == assets.KindNative {
		return o.chain.BalanceAt(ctx, holder)
	}

	return o.chain.TokenBalance(ctx, asset.ContractAddress(), holder)
}
