package recovery

import (
	"context"
	"math/big"

	"github.com/aarondl/null/v8"
	"github.com/ethereum/go-ethereum/common"
	"github/chapool/mtw-recovery/internal/signing"
)

const (
	MsgNoWalletFound         = "no valid wallet found"
	MsgUnexpectedErrorPrefix = "Unexpected error: "
)

// Outcome is the result of one recovery run. An empty TxHashes always comes with an Error.
type Outcome struct {
	TxHashes []string    `json:"txHashes"`
	Error    null.String `json:"error"`
}

// Chain is the on-chain lookups the orchestrator needs.
type Chain interface {
	WalletAddress(ctx context.Context, registry common.Address, account common.Address) (common.Address, error)
	TokenBalance(ctx context.Context, token common.Address, account common.Address) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
}

type Discovery interface {
	FetchAccounts(ctx context.Context, walletAddress common.Address) ([]common.Address, error)
}

type Signer interface {
	Run(ctx context.Context, txs []signing.UnsignedTx, observer signing.Observer) (common.Hash, error)
}

// Observer follows a recovery run wallet by wallet.
type Observer interface {
	signing.Observer
	OnWallets(signer common.Address, wallets []common.Address)
	OnWalletStart(wallet common.Address)
	OnWalletDone(wallet common.Address, txHash common.Hash, err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnTransition(signing.Transition)                 {}
func (NopObserver) OnWallets(common.Address, []common.Address)      {}
func (NopObserver) OnWalletStart(common.Address)                    {}
func (NopObserver) OnWalletDone(common.Address, common.Hash, error) {}
