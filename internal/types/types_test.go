package types_test

import (
	"testing"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/mtw-recovery/internal/types"
)

const validAddress = "0x1111111111111111111111111111111111111111"

func TestAddressValidate(t *testing.T) {
	assert.NoError(t, (&types.Address{Address: swag.String(validAddress)}).Validate(strfmt.Default))

	err := (&types.Address{Address: swag.String("0x1234")}).Validate(strfmt.Default)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address")

	err = (&types.Address{}).Validate(strfmt.Default)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address")
}

func TestRecoveryWalletValidate(t *testing.T) {
	wallet := &types.RecoveryWallet{
		Address: swag.String(validAddress),
		State:   swag.String("pending"),
	}
	assert.NoError(t, wallet.Validate(strfmt.Default))

	wallet.Address = swag.String("not an address")
	assert.Error(t, wallet.Validate(strfmt.Default))
}

func TestRecoveryStatusValidate(t *testing.T) {
	status := &types.RecoveryStatus{
		Phase: swag.String("running"),
		Wallets: []*types.RecoveryWallet{
			{Address: swag.String(validAddress), State: swag.String("recovered")},
		},
	}
	assert.NoError(t, status.Validate(strfmt.Default))

	status.Phase = swag.String("paused")
	assert.Error(t, status.Validate(strfmt.Default))
}

func TestPostRecoveryPayloadValidate(t *testing.T) {
	assert.NoError(t, (&types.PostRecoveryPayload{}).Validate(strfmt.Default))
	assert.NoError(t, (&types.PostRecoveryPayload{Address: validAddress}).Validate(strfmt.Default))
	assert.Error(t, (&types.PostRecoveryPayload{Address: "0xzz"}).Validate(strfmt.Default))
}
