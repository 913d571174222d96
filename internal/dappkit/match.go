package dappkit

import "github.com/pkg/errors"

// Match accepts resp only if it answers requestID, carries the expected type and reports success.
// It is the only integrity check on whatever the relay delivered.
func Match(requestID string, resp *Response, expected RequestType) error {
	switch {
	case resp == nil:
		return errors.Wrap(ErrUnexpectedResponse, "no response")
	case resp.RequestID != requestID:
		return errors.Wrapf(ErrUnexpectedResponse, "requestId %q, expected %q", resp.RequestID, requestID)
	case resp.Type != expected:
		return errors.Wrapf(ErrUnexpectedResponse, "type %q, expected %q", resp.Type, expected)
	case resp.Status != StatusSuccess:
		return errors.Wrapf(ErrUnexpectedResponse, "status %q", resp.Status)
	}

	return nil
}

func MatchAccountAuth(requestID string, resp *Response) (*AccountAuthPayload, error) {
	if err := Match(requestID, resp, RequestTypeAccountAddress); err != nil {
		return nil, err
	}

	return &AccountAuthPayload{
		Address:     resp.Address,
		PhoneNumber: resp.PhoneNumber,
		Pepper:      resp.Pepper,
	}, nil
}

func MatchSignTx(requestID string, resp *Response) ([]string, error) {
	if err := Match(requestID, resp, RequestTypeSignTx); err != nil {
		return nil, err
	}

	if len(resp.RawTxs) == 0 {
		return nil, errors.Wrap(ErrUnexpectedResponse, "no signed txs")
	}

	return resp.RawTxs, nil
}
