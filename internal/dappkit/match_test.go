package dappkit_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/mtw-recovery/internal/dappkit"
)

func TestMatch(t *testing.T) {
	valid := dappkit.Response{
		RequestID: "sign_tx-1",
		Type:      dappkit.RequestTypeSignTx,
		Status:    dappkit.StatusSuccess,
		RawTxs:    []string{"0x01"},
	}

	require.NoError(t, dappkit.Match("sign_tx-1", &valid, dappkit.RequestTypeSignTx))

	mutations := map[string]func(r *dappkit.Response){
		"request id": func(r *dappkit.Response) { r.RequestID = "sign_tx-2" },
		"type":       func(r *dappkit.Response) { r.Type = dappkit.RequestTypeAccountAddress },
		"status":     func(r *dappkit.Response) { r.Status = dappkit.StatusUnauthorized },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			resp := valid
			mutate(&resp)

			err := dappkit.Match("sign_tx-1", &resp, dappkit.RequestTypeSignTx)
			assert.True(t, errors.Is(err, dappkit.ErrUnexpectedResponse))

			rawTxs, err := dappkit.MatchSignTx("sign_tx-1", &resp)
			assert.Nil(t, rawTxs)
			assert.True(t, errors.Is(err, dappkit.ErrUnexpectedResponse))
		})
	}

	assert.True(t, errors.Is(dappkit.Match("x", nil, dappkit.RequestTypeSignTx), dappkit.ErrUnexpectedResponse))
}

func TestMatchAccountAuth(t *testing.T) {
	resp := &dappkit.Response{
		RequestID:   "login-1",
		Type:        dappkit.RequestTypeAccountAddress,
		Status:      dappkit.StatusSuccess,
		Address:     testFrom,
		PhoneNumber: "+49123",
	}

	payload, err := dappkit.MatchAccountAuth("login-1", resp)
	require.NoError(t, err)
	assert.Equal(t, testFrom, payload.Address)
	assert.Equal(t, "+49123", payload.PhoneNumber)

	payload, err = dappkit.MatchAccountAuth("sign_tx-1", resp)
	assert.Nil(t, payload)
	assert.True(t, errors.Is(err, dappkit.ErrUnexpectedResponse))
}
