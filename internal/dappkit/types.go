package dappkit

import (
	"github.com/ethereum/go-ethereum/common"
)

// RequestType identifies the kind of handshake a deeplink carries.
type RequestType string

const (
	RequestTypeAccountAddress RequestType = "account_address"
	RequestTypeSignTx         RequestType = "sign_tx"
)

func (t RequestType) Valid() bool {
	return t == RequestTypeAccountAddress || t == RequestTypeSignTx
}

// ResponseStatus is the status the signer reports in its redirect.
type ResponseStatus string

const (
	StatusSuccess      ResponseStatus = "200"
	StatusUnauthorized ResponseStatus = "401"
)

// Meta is attached to every outbound request so the signer can show who asks and where to return.
type Meta struct {
	DappName string
	Callback string
}

// Request is one outbound handshake request. It is used exactly once.
type Request struct {
	RequestID string
	Type      RequestType
	Meta      Meta
	Txs       []TxToSign // only for RequestTypeSignTx
}

// TxToSign is an unsigned transaction descriptor in the signer's wire format.
type TxToSign struct {
	TxData             string         `json:"txData"`       // 0x prefixed call data
	EstimatedGas       uint64         `json:"estimatedGas"` // gas limit
	Nonce              uint64         `json:"nonce"`
	FeeCurrencyAddress common.Address `json:"feeCurrencyAddress"`
	Value              string         `json:"value"` // decimal wei
	From               common.Address `json:"from"`
	To                 common.Address `json:"to"`
}

// Response is the parsed redirect the signer produces.
type Response struct {
	RequestID string
	Type      RequestType
	Status    ResponseStatus

	// account_address payload
	Address     common.Address
	PhoneNumber string
	Pepper      string

	// sign_tx payload, one 0x prefixed blob per requested tx, order preserving
	RawTxs []string
}

// AccountAuthPayload is the success payload of an account_address handshake.
type AccountAuthPayload struct {
	Address     common.Address
	PhoneNumber string
	Pepper      string
}
