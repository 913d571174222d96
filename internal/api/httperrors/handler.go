package httperrors

import (
	"net/http"

	oaerrors "github.com/go-openapi/errors"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/mtw-recovery/internal/types"
	"github/chapool/mtw-recovery/internal/util"
)

type HTTPErrorHandlerConfig struct {
	HideInternalServerErrorDetails bool
}

// HTTPErrorHandlerWithConfig renders every error returned by a handler as HTTPError JSON.
func HTTPErrorHandlerWithConfig(config HTTPErrorHandlerConfig) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			httpErr  *HTTPError
			echoErr  *echo.HTTPError
			compErr  *oaerrors.CompositeError
			validErr *oaerrors.Validation
		)

		switch {
		case errors.As(err, &httpErr):
			// already public
		case errors.As(err, &echoErr):
			httpErr = NewFromEcho(echoErr)
			httpErr.Internal = echoErr.Internal
		case errors.As(err, &compErr), errors.As(err, &validErr):
			httpErr = NewHTTPErrorWithDetail(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, http.StatusText(http.StatusBadRequest), err.Error())
		default:
			if config.HideInternalServerErrorDetails {
				httpErr = NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, http.StatusText(http.StatusInternalServerError))
			} else {
				httpErr = NewHTTPErrorWithDetail(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, http.StatusText(http.StatusInternalServerError), err.Error())
			}
			httpErr.Internal = err
		}

		code := int(*httpErr.Code)
		if code >= http.StatusInternalServerError {
			util.LogFromEchoContext(c).Error().Err(err).Msg("Request failed")
		} else {
			util.LogFromEchoContext(c).Debug().Err(err).Int("status", code).Msg("Request rejected")
		}

		if c.Response().Committed {
			return
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, httpErr)
		}
		if err != nil {
			util.LogFromEchoContext(c).Warn().Err(err).Msg("Failed to write error response")
		}
	}
}
