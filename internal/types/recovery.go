package types

import (
	"strconv"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
)

// PostRecoveryPayload post recovery payload
type PostRecoveryPayload struct {

	// Primary account to recover for. Defaults to the connected address.
	// Pattern: ^0x[0-9a-fA-F]{40}$
	Address string `json:"address,omitempty"`
}

// Validate validates this post recovery payload
func (m *PostRecoveryPayload) Validate(formats strfmt.Registry) error {
	if swag.IsZero(m.Address) {
		return nil
	}

	if err := validate.Pattern("address", "body", m.Address, addressPattern); err != nil {
		return errors.CompositeValidationError(err)
	}

	return nil
}

// RecoveryWallet recovery wallet
type RecoveryWallet struct {

	// address
	// Required: true
	Address *string `json:"address"`

	// error
	Error string `json:"error,omitempty"`

	// explorer Url
	ExplorerURL string `json:"explorerUrl,omitempty"`

	// pending, a signing session state, recovered or failed
	// Required: true
	State *string `json:"state"`

	// tx hash
	TxHash string `json:"txHash,omitempty"`
}

// Validate validates this recovery wallet
func (m *RecoveryWallet) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validateAddress("address", m.Address); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("state", "body", m.State); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}

	return nil
}

var recoveryStatusPhaseEnum = []interface{}{"idle", "running", "finished"}

// RecoveryStatus recovery status
type RecoveryStatus struct {

	// Account the recovery runs for
	Address string `json:"address,omitempty"`

	// Deeplink to open while a signature is requested
	Deeplink string `json:"deeplink,omitempty"`

	// Milliseconds since the run started
	DurationMs int64 `json:"durationMs,omitempty"`

	// Localized outcome error
	Error string `json:"error,omitempty"`

	// Explorer links of the broadcast transactions
	ExplorerLinks []string `json:"explorerLinks"`

	// finished at
	// Format: date-time
	FinishedAt *strfmt.DateTime `json:"finishedAt,omitempty"`

	// Localized summary of the run
	Message string `json:"message,omitempty"`

	// phase
	// Required: true
	// Enum: [idle running finished]
	Phase *string `json:"phase"`

	// Address signing the recovery transactions
	Signer string `json:"signer,omitempty"`

	// started at
	// Format: date-time
	StartedAt *strfmt.DateTime `json:"startedAt,omitempty"`

	// tx hashes
	TxHashes []string `json:"txHashes"`

	// wallets
	Wallets []*RecoveryWallet `json:"wallets"`
}

// Validate validates this recovery status
func (m *RecoveryStatus) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("phase", "body", m.Phase); err != nil {
		res = append(res, err)
	} else if err := validate.EnumCase("phase", "body", *m.Phase, recoveryStatusPhaseEnum, true); err != nil {
		res = append(res, err)
	}

	if err := m.validateWallets(formats); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}

	return nil
}

func (m *RecoveryStatus) validateWallets(formats strfmt.Registry) error {
	for i := range m.Wallets {
		if swag.IsZero(m.Wallets[i]) {
			continue
		}

		if err := m.Wallets[i].Validate(formats); err != nil {
			if ve, ok := err.(*errors.Validation); ok {
				return ve.ValidateName("wallets" + "." + strconv.Itoa(i))
			}
			return err
		}
	}

	return nil
}
