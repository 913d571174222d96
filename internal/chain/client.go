package chain

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/mtw-recovery/internal/config"
)

var (
	ErrNoRPCClient     = errors.New("no RPC client available")
	ErrChainIDMismatch = errors.New("RPC node serves a different chain")
	ErrReceiptTimeout  = errors.New("timed out waiting for receipt")
)

// CallRequest is an eth_call / eth_estimateGas argument object. FeeCurrency is the
// token the fee is paid in; zero means the native asset.
type CallRequest struct {
	From        common.Address
	To          common.Address
	Data        []byte
	Value       *big.Int
	FeeCurrency common.Address
}

func (r CallRequest) toArg() map[string]interface{} {
	arg := map[string]interface{}{
		"from": r.From,
		"to":   r.To,
	}
	if len(r.Data) > 0 {
		arg["data"] = hexutil.Bytes(r.Data)
	}
	if r.Value != nil && r.Value.Sign() > 0 {
		arg["value"] = (*hexutil.Big)(r.Value)
	}
	if r.FeeCurrency != (common.Address{}) {
		arg["feeCurrency"] = r.FeeCurrency
	}

	return arg
}

// Client is the network client owned by the caller. It never reconnects on its own:
// use HealthCheck before reuse and Reconnect when it fails.
type Client struct {
	urls                []string
	chainID             *big.Int
	healthCheckTimeout  time.Duration
	receiptPollInterval time.Duration
	receiptTimeout      time.Duration

	mu      sync.RWMutex
	current int
	rpc     *rpc.Client
	eth     *ethclient.Client
}

// NewClient dials the first reachable RPC URL serving the configured chain.
func NewClient(ctx context.Context, cfg config.Chain) (*Client, error) {
	if len(cfg.RPCURLs) == 0 {
		return nil, errors.New("at least one RPC URL is required")
	}

	c := &Client{
		urls:                cfg.RPCURLs,
		chainID:             big.NewInt(cfg.ChainID),
		healthCheckTimeout:  cfg.HealthCheckTimeout,
		receiptPollInterval: cfg.ReceiptPollInterval,
		receiptTimeout:      cfg.ReceiptTimeout,
		current:             len(cfg.RPCURLs) - 1,
	}

	if err := c.Reconnect(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

// Close closes the current connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rpc != nil {
		c.rpc.Close()
		c.rpc = nil
		c.eth = nil
	}
}

// URL returns the RPC URL currently in use.
func (c *Client) URL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.urls[c.current]
}

// HealthCheck verifies the current connection answers and still serves the configured chain.
func (c *Client) HealthCheck(ctx context.Context) error {
	eth, _, err := c.clients()
	if err != nil {
		return err
	}

	return c.checkChainID(ctx, eth)
}

// Reconnect replaces the current connection, trying every URL once starting after the current one.
func (c *Client) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for i := 1; i <= len(c.urls); i++ {
		idx := (c.current + i) % len(c.urls)
		url := c.urls[idx]

		rpcClient, err := rpc.DialContext(ctx, url)
		if err != nil {
			log.Warn().Str("url", url).Err(err).Msg("Failed to connect to RPC node")
			lastErr = err
			continue
		}

		eth := ethclient.NewClient(rpcClient)
		if err := c.checkChainID(ctx, eth); err != nil {
			log.Warn().Str("url", url).Err(err).Msg("RPC node health check failed")
			rpcClient.Close()
			lastErr = err
			continue
		}

		if c.rpc != nil {
			c.rpc.Close()
		}
		c.rpc = rpcClient
		c.eth = eth
		c.current = idx

		log.Debug().Str("url", url).Msg("Connected to RPC node")

		return nil
	}

	return errors.Wrap(lastErr, "failed to connect to any RPC node")
}

// EnsureHealthy runs HealthCheck and reconnects once if it fails.
func (c *Client) EnsureHealthy(ctx context.Context) error {
	err := c.HealthCheck(ctx)
	if err == nil {
		return nil
	}

	log.Warn().Err(err).Str("url", c.URL()).Msg("RPC client unhealthy, reconnecting")

	return c.Reconnect(ctx)
}

func (c *Client) checkChainID(ctx context.Context, eth *ethclient.Client) error {
	if c.healthCheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.healthCheckTimeout)
		defer cancel()
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get chain ID")
	}

	if chainID.Cmp(c.chainID) != 0 {
		return errors.Wrapf(ErrChainIDMismatch, "got %s, expected %s", chainID, c.chainID)
	}

	return nil
}

func (c *Client) clients() (*ethclient.Client, *rpc.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.eth == nil {
		return nil, nil, ErrNoRPCClient
	}

	return c.eth, c.rpc, nil
}

// BalanceAt returns the native balance of address at the latest block.
func (c *Client) BalanceAt(ctx context.Context, address common.Address) (*big.Int, error) {
	eth, _, err := c.clients()
	if err != nil {
		return nil, err
	}

	balance, err := eth.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}

	return balance, nil
}

// PendingNonceAt returns the pending nonce for the given address.
func (c *Client) PendingNonceAt(ctx context.Context, address common.Address) (uint64, error) {
	eth, _, err := c.clients()
	if err != nil {
		return 0, err
	}

	nonce, err := eth.PendingNonceAt(ctx, address)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get pending nonce")
	}

	return nonce, nil
}

// Call executes a read-only contract call at the latest block.
func (c *Client) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	eth, _, err := c.clients()
	if err != nil {
		return nil, err
	}

	resp, err := eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call contract")
	}

	return resp, nil
}

// EstimateGas estimates gas including the fee currency, which the typed ethclient call cannot carry.
func (c *Client) EstimateGas(ctx context.Context, req CallRequest) (uint64, error) {
	_, rpcClient, err := c.clients()
	if err != nil {
		return 0, err
	}

	var gas hexutil.Uint64
	if err := rpcClient.CallContext(ctx, &gas, "eth_estimateGas", req.toArg()); err != nil {
		return 0, errors.Wrap(err, "failed to estimate gas")
	}

	return uint64(gas), nil
}

// SendRawTransaction broadcasts a signed transaction as produced by the signer.
// It is sent as is: the signer's tx type need not be decodable here.
func (c *Client) SendRawTransaction(ctx context.Context, rawTx string) (common.Hash, error) {
	_, rpcClient, err := c.clients()
	if err != nil {
		return common.Hash{}, err
	}

	raw, err := hexutil.Decode(rawTx)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "raw transaction is not hex")
	}

	var hash common.Hash
	if err := rpcClient.CallContext(ctx, &hash, "eth_sendRawTransaction", hexutil.Bytes(raw)); err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to send transaction")
	}

	return hash, nil
}

func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	eth, _, err := c.clients()
	if err != nil {
		return nil, err
	}

	receipt, err := eth.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction receipt")
	}

	return receipt, nil
}

// WaitForReceipt polls until the receipt of txHash is available.
func (c *Client) WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	localCtx, cancel := context.WithTimeout(ctx, c.receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(c.receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.TransactionReceipt(localCtx, txHash)
		if err == nil {
			return receipt, nil
		}

		if !errors.Is(err, ethereum.NotFound) {
			if localCtx.Err() != nil && ctx.Err() == nil {
				return nil, errors.Wrapf(ErrReceiptTimeout, "tx %s", txHash.Hex())
			}
			return nil, err
		}

		select {
		case <-localCtx.Done():
			if ctx.Err() != nil {
				return nil, errors.Wrap(ctx.Err(), "context canceled while waiting for receipt")
			}
			return nil, errors.Wrapf(ErrReceiptTimeout, "tx %s", txHash.Hex())
		case <-ticker.C:
			continue
		}
	}
}
