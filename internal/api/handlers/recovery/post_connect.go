package recovery

import (
	"context"
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/mtw-recovery/internal/api"
	"github/chapool/mtw-recovery/internal/api/httperrors"
	"github/chapool/mtw-recovery/internal/handshake"
	"github/chapool/mtw-recovery/internal/types"
	"github/chapool/mtw-recovery/internal/util"
)

func PostConnectRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/connect", postConnectHandler(s))
}

// postConnectHandler launches the account handshake and returns its deeplink. The response
// arrives through GET /callback; the connected address is then available at GET /address.
func postConnectHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		if s.Runner.Running() {
			return httperrors.ErrConflictRecoveryRunning
		}

		pending, err := s.Coordinator.StartAccountAddress(ctx)
		if err != nil {
			if errors.Is(err, handshake.ErrSessionBusy) {
				return httperrors.ErrConflictSessionBusy
			}
			log.Debug().Err(err).Msg("Failed to start account handshake")
			return err
		}

		deeplink := s.Deeplinks.Current()

		go func(ctx context.Context) {
			defer s.Deeplinks.ClearIfCurrent(deeplink)

			if _, err := s.Coordinator.FinishAccountAddress(ctx, pending); err != nil {
				util.LogFromContext(ctx).Warn().Err(err).Str("requestId", pending.RequestID()).Msg("Account handshake failed")
			}
		}(context.WithoutCancel(ctx))

		return util.ValidateAndReturn(c, http.StatusAccepted, &types.PostConnectResponse{
			Deeplink:  swag.String(deeplink),
			RequestID: swag.String(pending.RequestID()),
		})
	}
}
