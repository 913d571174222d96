package chain

import (
	"bytes"
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const erc20ABIJSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

const accountsABIJSON = `[
	{"type":"function","name":"getWalletAddress","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"address"}]}
]`

const walletABIJSON = `[
	{"type":"function","name":"executeTransactions","stateMutability":"nonpayable","inputs":[
		{"name":"destinations","type":"address[]"},
		{"name":"values","type":"uint256[]"},
		{"name":"data","type":"bytes"},
		{"name":"dataLengths","type":"uint256[]"}
	],"outputs":[{"name":"","type":"bytes"},{"name":"","type":"uint256[]"}]}
]`

var (
	erc20ABI    = mustParseABI(erc20ABIJSON)
	accountsABI = mustParseABI(accountsABIJSON)
	walletABI   = mustParseABI(walletABIJSON)
)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}

	return parsed
}

// Call is one contract call of a wallet batch.
type Call struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

func EncodeBalanceOf(account common.Address) ([]byte, error) {
	return erc20ABI.Pack("balanceOf", account)
}

func EncodeTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	return erc20ABI.Pack("transfer", to, amount)
}

func EncodeGetWalletAddress(account common.Address) ([]byte, error) {
	return accountsABI.Pack("getWalletAddress", account)
}

// EncodeExecuteTransactions packs calls into one executeTransactions call of a
// meta-transaction wallet: call data is concatenated and split again by dataLengths.
func EncodeExecuteTransactions(calls []Call) ([]byte, error) {
	if len(calls) == 0 {
		return nil, errors.New("no calls to execute")
	}

	destinations := make([]common.Address, 0, len(calls))
	values := make([]*big.Int, 0, len(calls))
	dataLengths := make([]*big.Int, 0, len(calls))
	var data []byte

	for _, call := range calls {
		value := call.Value
		if value == nil {
			value = new(big.Int)
		}

		destinations = append(destinations, call.To)
		values = append(values, value)
		dataLengths = append(dataLengths, big.NewInt(int64(len(call.Data))))
		data = append(data, call.Data...)
	}

	return walletABI.Pack("executeTransactions", destinations, values, data, dataLengths)
}

// DecodeExecuteTransactions is the inverse of EncodeExecuteTransactions.
func DecodeExecuteTransactions(input []byte) ([]Call, error) {
	method := walletABI.Methods["executeTransactions"]
	if len(input) < 4 || !bytes.Equal(input[:4], method.ID) {
		return nil, errors.New("not an executeTransactions call")
	}

	values, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode executeTransactions")
	}

	var args struct {
		Destinations []common.Address
		Values       []*big.Int
		Data         []byte
		DataLengths  []*big.Int
	}
	if err := method.Inputs.Copy(&args, values); err != nil {
		return nil, errors.Wrap(err, "failed to decode executeTransactions")
	}

	if len(args.Destinations) != len(args.Values) || len(args.Destinations) != len(args.DataLengths) {
		return nil, errors.New("executeTransactions argument lengths differ")
	}

	calls := make([]Call, 0, len(args.Destinations))
	offset := uint64(0)
	for i, dest := range args.Destinations {
		n := args.DataLengths[i].Uint64()
		if offset+n > uint64(len(args.Data)) {
			return nil, errors.New("executeTransactions data shorter than dataLengths")
		}
		calls = append(calls, Call{To: dest, Value: args.Values[i], Data: args.Data[offset : offset+n]})
		offset += n
	}

	return calls, nil
}

// TokenBalance returns the ERC20 balance of account.
func (c *Client) TokenBalance(ctx context.Context, token common.Address, account common.Address) (*big.Int, error) {
	data, err := EncodeBalanceOf(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode balanceOf")
	}

	resp, err := c.Call(ctx, token, data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call balanceOf")
	}

	out, err := erc20ABI.Unpack("balanceOf", resp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode balanceOf")
	}

	balance, ok := abi.ConvertType(out[0], new(big.Int)).(*big.Int)
	if !ok {
		return nil, errors.New("balanceOf returned no uint256")
	}

	return balance, nil
}

// WalletAddress resolves the wallet address registered for account in the accounts registry.
// The zero address is returned when none is registered.
func (c *Client) WalletAddress(ctx context.Context, registry common.Address, account common.Address) (common.Address, error) {
	data, err := EncodeGetWalletAddress(account)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to encode getWalletAddress")
	}

	resp, err := c.Call(ctx, registry, data)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to call getWalletAddress")
	}

	out, err := accountsABI.Unpack("getWalletAddress", resp)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to decode getWalletAddress")
	}

	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, errors.New("getWalletAddress returned no address")
	}

	return addr, nil
}
