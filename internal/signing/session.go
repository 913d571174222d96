package signing

import (
	"context"
	"math/big"

	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github/chapool/mtw-recovery/internal/chain"
	"github/chapool/mtw-recovery/internal/dappkit"
	"github/chapool/mtw-recovery/internal/handshake"
)

const maxConcurrentEstimates = 4

// Service runs signing sessions: build, request, await, validate, broadcast, confirm.
type Service struct {
	chain       Chain
	handshake   Handshake
	feeCurrency common.Address
	clock       time2.Clock
}

func NewService(c Chain, hs Handshake, feeCurrency common.Address, clock time2.Clock) *Service {
	return &Service{
		chain:       c,
		handshake:   hs,
		feeCurrency: feeCurrency,
		clock:       clock,
	}
}

type session struct {
	*Service
	state    State
	observer Observer
	logger   zerolog.Logger
}

// Run drives one batch through a full signing round trip and returns the hash of the
// confirmed transaction. Failures are returned as *Error.
func (s *Service) Run(ctx context.Context, txs []UnsignedTx, observer Observer) (common.Hash, error) {
	sess := &session{
		Service:  s,
		state:    StateBuilding,
		observer: observer,
		logger:   log.With().Str("component", "signing").Logger(),
	}

	hash, err := sess.run(ctx, txs)
	if err != nil {
		failedIn := sess.state
		sess.fail(err)
		return common.Hash{}, &Error{State: failedIn, Err: err}
	}

	return hash, nil
}

func (s *session) run(ctx context.Context, txs []UnsignedTx) (common.Hash, error) {
	toSign, err := s.build(ctx, txs)
	if err != nil {
		return common.Hash{}, err
	}

	if err := s.transition(StateRequesting); err != nil {
		return common.Hash{}, err
	}

	req := &dappkit.Request{
		RequestID: handshake.NewRequestID(handshake.PrefixSignTx),
		Type:      dappkit.RequestTypeSignTx,
		Txs:       toSign,
	}

	pending, err := s.handshake.Send(ctx, req)
	if err != nil {
		return common.Hash{}, err
	}

	rawTxs, err := s.exchange(ctx, pending, len(toSign))
	pending.Close(err)
	if err != nil {
		return common.Hash{}, err
	}

	if err := s.transition(StateBroadcasting); err != nil {
		return common.Hash{}, err
	}

	// one executeTransactions call per batch, so only the first blob is broadcast
	hash, err := s.chain.SendRawTransaction(ctx, rawTxs[0])
	if err != nil {
		return common.Hash{}, err
	}
	s.logger.Info().Str("txHash", hash.Hex()).Msg("Broadcast signed transaction")

	receipt, err := s.chain.WaitForReceipt(ctx, hash)
	if err != nil {
		return common.Hash{}, err
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		s.logger.Warn().Str("txHash", receipt.TxHash.Hex()).Msg("Transaction was mined but reverted")
	}

	if err := s.transition(StateConfirmed); err != nil {
		return common.Hash{}, err
	}

	return receipt.TxHash, nil
}

func (s *session) exchange(ctx context.Context, pending *handshake.Pending, expected int) ([]string, error) {
	if err := s.transition(StateAwaitingResponse); err != nil {
		return nil, err
	}

	raw, err := pending.Await(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.transition(StateValidating); err != nil {
		return nil, err
	}

	resp, err := pending.Validate(raw)
	if err != nil {
		return nil, err
	}

	rawTxs, err := dappkit.MatchSignTx(pending.RequestID(), resp)
	if err != nil {
		return nil, err
	}

	if len(rawTxs) != expected {
		return nil, errors.Wrapf(dappkit.ErrUnexpectedResponse, "got %d signed txs, expected %d", len(rawTxs), expected)
	}

	return rawTxs, nil
}

// build resolves gas and nonces. The sender's nonce is queried once for the whole batch.
func (s *session) build(ctx context.Context, txs []UnsignedTx) ([]dappkit.TxToSign, error) {
	if len(txs) == 0 {
		return nil, ErrEmptyBatch
	}

	from := txs[0].From
	for _, tx := range txs[1:] {
		if tx.From != from {
			return nil, errors.Wrapf(ErrMixedSenders, "%s and %s", from.Hex(), tx.From.Hex())
		}
	}

	baseNonce, err := s.chain.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, err
	}

	gas := make([]uint64, len(txs))
	p := pool.New().WithMaxGoroutines(maxConcurrentEstimates).WithContext(ctx).WithCancelOnError()
	for i, tx := range txs {
		if tx.Gas > 0 {
			gas[i] = tx.Gas
			continue
		}

		p.Go(func(ctx context.Context) error {
			estimate, err := s.chain.EstimateGas(ctx, chain.CallRequest{
				From:        tx.From,
				To:          tx.To,
				Data:        tx.Data,
				Value:       tx.Value,
				FeeCurrency: s.feeCurrency,
			})
			if err != nil {
				return errors.Wrapf(err, "tx %d", i)
			}
			gas[i] = estimate
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	toSign := make([]dappkit.TxToSign, 0, len(txs))
	for i, tx := range txs {
		value := tx.Value
		if value == nil {
			value = new(big.Int)
		}

		toSign = append(toSign, dappkit.TxToSign{
			TxData:             hexutil.Encode(tx.Data),
			EstimatedGas:       gas[i],
			Nonce:              baseNonce + uint64(i),
			FeeCurrencyAddress: s.feeCurrency,
			Value:              value.String(),
			From:               tx.From,
			To:                 tx.To,
		})
	}

	return toSign, nil
}

func (s *session) transition(next State) error {
	if !canTransition(s.state, next) {
		return errors.Wrapf(ErrInvalidTransition, "from %s to %s", s.state, next)
	}

	s.notify(Transition{From: s.state, To: next, At: s.clock.Now()})
	s.state = next

	return nil
}

func (s *session) fail(err error) {
	if s.state == StateFailed || s.state == StateConfirmed {
		return
	}

	s.logger.Warn().Err(err).Str("state", string(s.state)).Msg("Signing session failed")
	s.notify(Transition{From: s.state, To: StateFailed, At: s.clock.Now(), Err: err})
	s.state = StateFailed
}

func (s *session) notify(t Transition) {
	if s.observer != nil {
		s.observer.OnTransition(t)
	}
}

func canTransition(current, next State) bool {
	if next == StateFailed {
		return current != StateConfirmed && current != StateFailed
	}

	switch current {
	case StateBuilding:
		return next == StateRequesting
	case StateRequesting:
		return next == StateAwaitingResponse
	case StateAwaitingResponse:
		return next == StateValidating
	case StateValidating:
		return next == StateBroadcasting
	case StateBroadcasting:
		return next == StateConfirmed
	default:
		return false
	}
}
