package types

import (
	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"
)

const addressPattern = `^0x[0-9a-fA-F]{40}$`

func validateAddress(name string, v *string) error {
	if err := validate.Required(name, "body", v); err != nil {
		return err
	}

	if err := validate.Pattern(name, "body", *v, addressPattern); err != nil {
		return err
	}

	return nil
}

// Address connected primary account address
type Address struct {

	// address
	// Required: true
	// Pattern: ^0x[0-9a-fA-F]{40}$
	Address *string `json:"address"`
}

// Validate validates this address
func (m *Address) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validateAddress("address", m.Address); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}

	return nil
}

// PutAddressPayload put address payload
type PutAddressPayload = Address

// GetAddressResponse get address response
type GetAddressResponse = Address
