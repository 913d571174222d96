package recovery

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/mtw-recovery/internal/api"
	"github/chapool/mtw-recovery/internal/api/httperrors"
	"github/chapool/mtw-recovery/internal/kv"
	"github/chapool/mtw-recovery/internal/types"
	"github/chapool/mtw-recovery/internal/util"
)

func GetAddressRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/address", getAddressHandler(s))
}

func getAddressHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		addr, err := s.Coordinator.ConnectedAddress(ctx)
		if err != nil {
			if errors.Is(err, kv.ErrNotFound) {
				return httperrors.ErrNotFoundAddress
			}
			log.Debug().Err(err).Msg("Failed to load connected address")
			return err
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.GetAddressResponse{
			Address: swag.String(addr.Hex()),
		})
	}
}
