package dappkit

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

const (
	paramType        = "type"
	paramRequestID   = "requestId"
	paramCallback    = "callback"
	paramDappName    = "dappName"
	paramTxs         = "txs"
	paramStatus      = "status"
	paramAddress     = "address"
	paramPhoneNumber = "phoneNumber"
	paramPepper      = "pepper"
	paramRawTxs      = "rawTxs"
)

// SerializeRequest encodes req as a deeplink below base. Query parameters are emitted
// sorted by key, so the same request always yields the same URL.
func SerializeRequest(base string, req *Request) (string, error) {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" {
		return "", errors.Wrapf(ErrInvalidDeeplinkBase, "%q", base)
	}

	if req == nil || req.RequestID == "" || !req.Type.Valid() {
		return "", errors.Wrap(ErrMalformedRequest, "request id and a known type are required")
	}

	q := url.Values{}
	q.Set(paramType, string(req.Type))
	q.Set(paramRequestID, req.RequestID)
	q.Set(paramCallback, req.Meta.Callback)
	q.Set(paramDappName, req.Meta.DappName)

	if req.Type == RequestTypeSignTx {
		if len(req.Txs) == 0 {
			return "", errors.Wrap(ErrMalformedRequest, "sign_tx request without txs")
		}

		b, err := json.Marshal(req.Txs)
		if err != nil {
			return "", errors.Wrap(err, "failed to encode txs")
		}
		q.Set(paramTxs, base64.StdEncoding.EncodeToString(b))
	}

	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ParseRequest is the inverse of SerializeRequest. The signer side uses it.
func ParseRequest(raw string) (*Request, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedRequest, err.Error())
	}

	q := u.Query()
	req := &Request{
		RequestID: q.Get(paramRequestID),
		Type:      RequestType(q.Get(paramType)),
		Meta: Meta{
			DappName: q.Get(paramDappName),
			Callback: q.Get(paramCallback),
		},
	}

	if req.RequestID == "" || !req.Type.Valid() {
		return nil, errors.Wrap(ErrMalformedRequest, "missing request id or unknown type")
	}

	if req.Type == RequestTypeSignTx {
		b, err := base64.StdEncoding.DecodeString(q.Get(paramTxs))
		if err != nil {
			return nil, errors.Wrap(ErrMalformedRequest, "txs is not base64")
		}
		if err := json.Unmarshal(b, &req.Txs); err != nil {
			return nil, errors.Wrap(ErrMalformedRequest, "txs is not a json array")
		}
	}

	return req, nil
}

// SerializeResponse builds the redirect URL a signer sends back to callback.
// Query parameters already present on callback are kept.
func SerializeResponse(callback string, resp *Response) (string, error) {
	u, err := url.Parse(callback)
	if err != nil {
		return "", errors.Wrapf(err, "invalid callback %q", callback)
	}

	q := u.Query()
	q.Set(paramType, string(resp.Type))
	q.Set(paramRequestID, resp.RequestID)
	q.Set(paramStatus, string(resp.Status))

	if resp.Status == StatusSuccess {
		switch resp.Type {
		case RequestTypeAccountAddress:
			q.Set(paramAddress, resp.Address.Hex())
			q.Set(paramPhoneNumber, resp.PhoneNumber)
			q.Set(paramPepper, resp.Pepper)
		case RequestTypeSignTx:
			for _, tx := range resp.RawTxs {
				q.Add(paramRawTxs, tx)
			}
		}
	}

	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ParseResponse decodes a redirect URL into a Response. It never returns partial data:
// any missing or invalid field yields ErrMalformedResponse.
func ParseResponse(raw string) (*Response, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedResponse, err.Error())
	}

	q := u.Query()

	resp := &Response{
		RequestID: q.Get(paramRequestID),
		Type:      RequestType(q.Get(paramType)),
		Status:    ResponseStatus(q.Get(paramStatus)),
	}

	switch {
	case resp.RequestID == "":
		return nil, errors.Wrap(ErrMalformedResponse, "missing requestId")
	case resp.Type == "":
		return nil, errors.Wrap(ErrMalformedResponse, "missing type")
	case !resp.Type.Valid():
		return nil, errors.Wrapf(ErrMalformedResponse, "unknown type %q", resp.Type)
	case resp.Status == "":
		return nil, errors.Wrap(ErrMalformedResponse, "missing status")
	}

	if resp.Status != StatusSuccess {
		return resp, nil
	}

	switch resp.Type {
	case RequestTypeAccountAddress:
		addr := q.Get(paramAddress)
		if !common.IsHexAddress(addr) {
			return nil, errors.Wrapf(ErrMalformedResponse, "invalid address %q", addr)
		}
		resp.Address = common.HexToAddress(addr)
		resp.PhoneNumber = q.Get(paramPhoneNumber)
		resp.Pepper = q.Get(paramPepper)
	case RequestTypeSignTx:
		rawTxs, err := rawTxsFromQuery(q)
		if err != nil {
			return nil, err
		}
		resp.RawTxs = rawTxs
	}

	return resp, nil
}

// rawTxsFromQuery accepts both repeated "rawTxs" keys and indexed "rawTxs[N]" keys.
func rawTxsFromQuery(q url.Values) ([]string, error) {
	type indexed struct {
		idx   int
		value string
	}

	var (
		txs     []string
		indexes []indexed
	)

	for key, values := range q {
		switch {
		case key == paramRawTxs || key == paramRawTxs+"[]":
			txs = append(txs, values...)
		case strings.HasPrefix(key, paramRawTxs+"[") && strings.HasSuffix(key, "]"):
			idx, err := strconv.Atoi(key[len(paramRawTxs)+1 : len(key)-1])
			if err != nil || idx < 0 || len(values) != 1 {
				return nil, errors.Wrapf(ErrMalformedResponse, "invalid key %q", key)
			}
			indexes = append(indexes, indexed{idx: idx, value: values[0]})
		}
	}

	if len(txs) > 0 && len(indexes) > 0 {
		return nil, errors.Wrap(ErrMalformedResponse, "mixed rawTxs encodings")
	}

	if len(indexes) > 0 {
		sort.Slice(indexes, func(i, j int) bool { return indexes[i].idx < indexes[j].idx })
		for _, v := range indexes {
			txs = append(txs, v.value)
		}
	}

	if len(txs) == 0 {
		return nil, errors.Wrap(ErrMalformedResponse, "missing rawTxs")
	}

	for i, tx := range txs {
		if _, err := hexutil.Decode(tx); err != nil {
			return nil, errors.Wrapf(ErrMalformedResponse, "rawTxs[%d] is not hex", i)
		}
	}

	return txs, nil
}
