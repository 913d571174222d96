package recovery

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github/chapool/mtw-recovery/internal/api"
	"github/chapool/mtw-recovery/internal/types"
	"github/chapool/mtw-recovery/internal/util"
)

func PutAddressRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.PUT("/address", putAddressHandler(s))
}

// putAddressHandler sets the primary address without an account handshake.
func putAddressHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PutAddressPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		addr := common.HexToAddress(swag.StringValue(body.Address))
		if err := s.Coordinator.SetConnectedAddress(ctx, addr); err != nil {
			log.Debug().Err(err).Msg("Failed to persist address")
			return err
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.GetAddressResponse{
			Address: swag.String(addr.Hex()),
		})
	}
}
