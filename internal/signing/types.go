package signing

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github/chapool/mtw-recovery/internal/chain"
	"github/chapool/mtw-recovery/internal/dappkit"
	"github/chapool/mtw-recovery/internal/handshake"
)

type State string

const (
	StateBuilding         State = "building"
	StateRequesting       State = "requesting"
	StateAwaitingResponse State = "awaiting_response"
	StateValidating       State = "validating"
	StateBroadcasting     State = "broadcasting"
	StateConfirmed        State = "confirmed"
	StateFailed           State = "failed"
)

var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrEmptyBatch        = errors.New("batch has no transactions")
	ErrMixedSenders      = errors.New("batch transactions must share one sender")
)

// Error is a session failure. State is the state the session was in when it failed.
type Error struct {
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("signing session failed while %s: %v", e.State, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UnsignedTx is one transaction of a batch. A zero Gas is estimated.
type UnsignedTx struct {
	From  common.Address
	To    common.Address
	Data  []byte
	Value *big.Int
	Gas   uint64
}

// Transition is reported to the Observer on every state change.
type Transition struct {
	From State
	To   State
	At   time.Time
	Err  error // set when To is StateFailed
}

type Observer interface {
	OnTransition(t Transition)
}

type ObserverFunc func(t Transition)

func (f ObserverFunc) OnTransition(t Transition) {
	f(t)
}

// Chain is the part of the network client a session needs.
type Chain interface {
	EstimateGas(ctx context.Context, req chain.CallRequest) (uint64, error)
	PendingNonceAt(ctx context.Context, address common.Address) (uint64, error)
	SendRawTransaction(ctx context.Context, rawTx string) (common.Hash, error)
	WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Handshake launches signing requests.
type Handshake interface {
	Send(ctx context.Context, req *dappkit.Request) (*handshake.Pending, error)
}
