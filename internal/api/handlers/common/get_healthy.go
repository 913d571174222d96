package common

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/mtw-recovery/internal/api"
)

func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

// Liveness check
// Unlike readiness this also talks to the RPC node, so it is slower and should be polled less often.
func getHealthyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.Ready() {
			return c.String(statusNotReady, "Not ready.")
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), s.Config.Management.LivenessTimeout)
		defer cancel()

		if err := ProbeLiveness(ctx, s); err != nil {
			return c.String(statusNotReady, "Not healthy.")
		}

		return c.String(http.StatusOK, "Healthy.")
	}
}
