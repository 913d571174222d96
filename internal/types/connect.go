package types

import (
	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"
)

// PostConnectResponse post connect response
type PostConnectResponse struct {

	// Deeplink the user has to open with the signing wallet
	// Required: true
	Deeplink *string `json:"deeplink"`

	// Correlation id of the account request
	// Required: true
	RequestID *string `json:"requestId"`
}

// Validate validates this post connect response
func (m *PostConnectResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("deeplink", "body", m.Deeplink); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("requestId", "body", m.RequestID); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}

	return nil
}
