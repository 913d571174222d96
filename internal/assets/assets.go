package assets

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github/chapool/mtw-recovery/internal/chain"
)

type Kind string

const (
	// KindERC20 balances are read with balanceOf and moved with transfer.
	KindERC20 Kind = "erc20"
	// KindNative balances are read from the account and moved as call value.
	KindNative Kind = "native"
)

type Asset struct {
	Symbol   string `mapstructure:"symbol" json:"symbol"`
	Kind     Kind   `mapstructure:"kind" json:"kind"`
	Address  string `mapstructure:"address" json:"address,omitempty"` // token contract, empty for native
	Decimals uint8  `mapstructure:"decimals" json:"decimals"`
}

// Defaults are the two stable assets and the native asset of the Celo mainnet.
func Defaults() []Asset {
	return []Asset{
		{Symbol: "cUSD", Kind: KindERC20, Address: "0x765DE816845861e75A25fCA122bb6898B8B1282a", Decimals: 18},
		{Symbol: "cEUR", Kind: KindERC20, Address: "0xD8763CBa276a3738E6DE85b4b3bF5FDed6D6cA73", Decimals: 18},
		{Symbol: "CELO", Kind: KindERC20, Address: "0x471EcE3750Da237f93B8E339c536989b8978a438", Decimals: 18},
	}
}

// Load reads the asset list from file (any format viper understands, key "assets").
// An empty file name yields Defaults.
func Load(file string) ([]Asset, error) {
	if file == "" {
		return Defaults(), nil
	}

	v := viper.New()
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read assets file %q", file)
	}

	var list []Asset
	if err := v.UnmarshalKey("assets", &list); err != nil {
		return nil, errors.Wrapf(err, "failed to decode assets file %q", file)
	}

	if len(list) == 0 {
		return nil, errors.Errorf("assets file %q lists no assets", file)
	}

	for i := range list {
		list[i].Kind = Kind(strings.ToLower(string(list[i].Kind)))
		if err := list[i].Validate(); err != nil {
			return nil, errors.Wrapf(err, "asset %d", i)
		}
	}

	return list, nil
}

func (a Asset) Validate() error {
	if a.Symbol == "" {
		return errors.New("symbol is required")
	}

	switch a.Kind {
	case KindERC20:
		if !common.IsHexAddress(a.Address) {
			return errors.Errorf("%s: invalid contract address %q", a.Symbol, a.Address)
		}
	case KindNative:
		if a.Address != "" {
			return errors.Errorf("%s: native asset must not have a contract address", a.Symbol)
		}
	default:
		return errors.Errorf("%s: unknown kind %q", a.Symbol, a.Kind)
	}

	return nil
}

func (a Asset) ContractAddress() common.Address {
	return common.HexToAddress(a.Address)
}

// TransferCall returns the call moving amount of a to recipient.
func (a Asset) TransferCall(recipient common.Address, amount *big.Int) (chain.Call, error) {
	if a.Kind == KindNative {
		return chain.Call{To: recipient, Value: amount, Data: []byte{}}, nil
	}

	data, err := chain.EncodeTransfer(recipient, amount)
	if err != nil {
		return chain.Call{}, errors.Wrapf(err, "failed to encode %s transfer", a.Symbol)
	}

	return chain.Call{To: a.ContractAddress(), Value: new(big.Int), Data: data}, nil
}
