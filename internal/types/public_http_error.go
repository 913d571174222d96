package types

import (
	"context"
	"encoding/json"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
)

// PublicHTTPErrorType Type of error returned, should be used for client-side error handling
type PublicHTTPErrorType string

const (
	PublicHTTPErrorTypeGeneric          PublicHTTPErrorType = "generic"
	PublicHTTPErrorTypeSESSIONBUSY      PublicHTTPErrorType = "SESSION_BUSY"
	PublicHTTPErrorTypeRECOVERYRUNNING  PublicHTTPErrorType = "RECOVERY_RUNNING"
	PublicHTTPErrorTypeNOADDRESS        PublicHTTPErrorType = "NO_ADDRESS"
	PublicHTTPErrorTypeINVALIDCALLBACK  PublicHTTPErrorType = "INVALID_CALLBACK"
	PublicHTTPErrorTypeCHAINUNAVAILABLE PublicHTTPErrorType = "CHAIN_UNAVAILABLE"
)

var publicHTTPErrorTypeEnum []interface{}

func init() {
	var res []PublicHTTPErrorType
	if err := json.Unmarshal([]byte(`["generic","SESSION_BUSY","RECOVERY_RUNNING","NO_ADDRESS","INVALID_CALLBACK","CHAIN_UNAVAILABLE"]`), &res); err != nil {
		panic(err)
	}
	for _, v := range res {
		publicHTTPErrorTypeEnum = append(publicHTTPErrorTypeEnum, v)
	}
}

func NewPublicHTTPErrorType(value PublicHTTPErrorType) *PublicHTTPErrorType {
	return &value
}

// Pointer returns a pointer to a freshly-allocated PublicHTTPErrorType.
func (m PublicHTTPErrorType) Pointer() *PublicHTTPErrorType {
	return &m
}

// Validate validates this public Http error type
func (m PublicHTTPErrorType) Validate(formats strfmt.Registry) error {
	if err := validate.EnumCase("", "body", m, publicHTTPErrorTypeEnum, true); err != nil {
		return err
	}

	return nil
}

func (m PublicHTTPErrorType) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// PublicHTTPError public Http error
type PublicHTTPError struct {

	// More detailed, human-readable, optional explanation of the error
	Detail string `json:"detail,omitempty"`

	// HTTP status code returned for the error
	// Required: true
	Code *int64 `json:"status"`

	// Short, human-readable description of the error
	// Required: true
	Title *string `json:"title"`

	// type
	// Required: true
	Type *PublicHTTPErrorType `json:"type"`
}

// Validate validates this public Http error
func (m *PublicHTTPError) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("status", "body", m.Code); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("title", "body", m.Title); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("type", "body", m.Type); err != nil {
		res = append(res, err)
	} else if err := m.Type.Validate(formats); err != nil {
		if ve, ok := err.(*errors.Validation); ok {
			return ve.ValidateName("type")
		}
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}

	return nil
}

// MarshalBinary interface implementation
func (m *PublicHTTPError) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}

	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *PublicHTTPError) UnmarshalBinary(b []byte) error {
	var res PublicHTTPError
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res

	return nil
}
