package recovery

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/mtw-recovery/internal/api"
	"github/chapool/mtw-recovery/internal/util"
)

func GetCurrentRecoveryRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/recoveries/current", getCurrentRecoveryHandler(s))
}

func getCurrentRecoveryHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		lang := s.I18n.ParseAcceptLanguage(c.Request().Header.Get(util.HeaderAcceptLanguage))

		return util.ValidateAndReturn(c, http.StatusOK, statusToTypes(s, lang, s.Runner.Status()))
	}
}
