package dappkit

import "github.com/pkg/errors"

var (
	ErrMalformedRequest    = errors.New("malformed dappkit request")
	ErrMalformedResponse   = errors.New("malformed dappkit response")
	ErrUnexpectedResponse  = errors.New("unexpected dappkit response")
	ErrInvalidDeeplinkBase = errors.New("invalid deeplink base")
)
