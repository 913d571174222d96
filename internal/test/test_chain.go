package test

import (
	"math/big"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
)

// ChainNode is an in-process JSON-RPC node answering the eth_ calls of chain.Client.
type ChainNode struct {
	URL string
	svc *ethService
	srv *httptest.Server
}

// ethService is registered as the eth namespace, every exported method is an RPC method.
type ethService struct {
	chainID int64

	mu          sync.Mutex
	balance     *big.Int
	nonce       uint64
	gas         uint64
	estimateArg map[string]interface{}
	sent        []hexutil.Bytes
	receipts    map[common.Hash]*types.Receipt
	callResult  hexutil.Bytes
}

func (s *ethService) ChainId() *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(s.chainID))
}

func (s *ethService) GetBalance(_ common.Address, _ string) *hexutil.Big {
	s.mu.Lock()
	defer s.mu.Unlock()

	return (*hexutil.Big)(new(big.Int).Set(s.balance))
}

func (s *ethService) GetTransactionCount(_ common.Address, _ string) hexutil.Uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return hexutil.Uint64(s.nonce)
}

func (s *ethService) Call(_ map[string]interface{}, _ string) hexutil.Bytes {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.callResult
}

func (s *ethService) EstimateGas(arg map[string]interface{}) hexutil.Uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.estimateArg = arg

	return hexutil.Uint64(s.gas)
}

func (s *ethService) SendRawTransaction(raw hexutil.Bytes) common.Hash {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, raw)
	hash := crypto.Keccak256Hash(raw)
	s.receipts[hash] = &types.Receipt{
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: s.gas,
		GasUsed:           s.gas,
		Logs:              []*types.Log{},
		TxHash:            hash,
	}

	return hash
}

func (s *ethService) GetTransactionReceipt(hash common.Hash) *types.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.receipts[hash]
}

// NewChainNode starts a node serving chainID. eth_call answers with 32 zero bytes until
// SetCallResult is used, which decodes as a zero address or a zero balance.
func NewChainNode(t *testing.T, chainID int64) *ChainNode {
	t.Helper()

	svc := &ethService{
		chainID:    chainID,
		balance:    big.NewInt(1000),
		nonce:      7,
		gas:        50000,
		receipts:   map[common.Hash]*types.Receipt{},
		callResult: make(hexutil.Bytes, 32),
	}

	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", svc))

	httpSrv := httptest.NewServer(srv)
	t.Cleanup(func() {
		httpSrv.Close()
		srv.Stop()
	})

	return &ChainNode{URL: httpSrv.URL, svc: svc, srv: httpSrv}
}

func (n *ChainNode) SetCallResult(b []byte) {
	n.svc.mu.Lock()
	defer n.svc.mu.Unlock()

	n.svc.callResult = b
}

func (n *ChainNode) SetBalance(balance *big.Int) {
	n.svc.mu.Lock()
	defer n.svc.mu.Unlock()

	n.svc.balance = balance
}

func (n *ChainNode) LastEstimateArg() map[string]interface{} {
	n.svc.mu.Lock()
	defer n.svc.mu.Unlock()

	return n.svc.estimateArg
}

// Sent returns every raw transaction broadcast so far.
func (n *ChainNode) Sent() []hexutil.Bytes {
	n.svc.mu.Lock()
	defer n.svc.mu.Unlock()

	return append([]hexutil.Bytes(nil), n.svc.sent...)
}

// DeleteReceipt makes the receipt of hash unavailable, as if the tx was still pending.
func (n *ChainNode) DeleteReceipt(hash common.Hash) {
	n.svc.mu.Lock()
	defer n.svc.mu.Unlock()

	delete(n.svc.receipts, hash)
}

// Close stops answering requests, as if the node went down.
func (n *ChainNode) Close() {
	n.srv.CloseClientConnections()
	n.srv.Close()
}
