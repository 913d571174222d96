package recovery

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/mtw-recovery/internal/api"
	"github/chapool/mtw-recovery/internal/api/httperrors"
	"github/chapool/mtw-recovery/internal/handshake"
	"github/chapool/mtw-recovery/internal/kv"
	"github/chapool/mtw-recovery/internal/types"
	"github/chapool/mtw-recovery/internal/util"
)

func PostRecoveryRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/recoveries", postRecoveryHandler(s))
}

// postRecoveryHandler starts a recovery in the background. Progress and the outcome are
// polled at GET /recoveries/current.
func postRecoveryHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)
		lang := s.I18n.ParseAcceptLanguage(c.Request().Header.Get(util.HeaderAcceptLanguage))

		var body types.PostRecoveryPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		var primary common.Address
		if body.Address != "" {
			primary = common.HexToAddress(body.Address)
		} else {
			addr, err := s.Coordinator.ConnectedAddress(ctx)
			if err != nil {
				if errors.Is(err, kv.ErrNotFound) {
					return httperrors.ErrNotFoundAddress
				}
				return err
			}
			primary = addr
		}

		if s.Runner.Running() {
			return httperrors.ErrConflictRecoveryRunning
		}
		if s.Coordinator.Busy() {
			return httperrors.ErrConflictSessionBusy
		}

		if err := s.Chain.EnsureHealthy(ctx); err != nil {
			e := httperrors.ErrServiceUnavailableChain.Copy()
			e.Internal = err
			return e
		}

		if err := s.Runner.Start(ctx, primary); err != nil {
			if errors.Is(err, handshake.ErrSessionBusy) {
				return httperrors.ErrConflictRecoveryRunning
			}
			log.Debug().Err(err).Msg("Failed to start recovery")
			return err
		}

		log.Info().Str("address", primary.Hex()).Msg("Started recovery")

		return util.ValidateAndReturn(c, http.StatusAccepted, statusToTypes(s, lang, s.Runner.Status()))
	}
}
