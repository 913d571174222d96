package handlers

import (
	"github.com/labstack/echo/v4"
	"github/chapool/mtw-recovery/internal/api"
	"github/chapool/mtw-recovery/internal/api/handlers/callback"
	"github/chapool/mtw-recovery/internal/api/handlers/common"
	"github/chapool/mtw-recovery/internal/api/handlers/recovery"
	"github/chapool/mtw-recovery/internal/api/handlers/wellknown"
)

func AttachAllRoutes(s *api.Server) {
	// attach our routes
	s.Router.Routes = []*echo.Route{
		callback.GetCallbackRoute(s),
		common.GetHealthyRoute(s),
		common.GetMetricsRoute(s),
		common.GetReadyRoute(s),
		common.GetVersionRoute(s),
		recovery.GetAddressRoute(s),
		recovery.GetCurrentRecoveryRoute(s),
		recovery.PostConnectRoute(s),
		recovery.PostRecoveryRoute(s),
		recovery.PutAddressRoute(s),
		wellknown.GetAndroidAssetlinksRoute(s),
		wellknown.GetAppleAppSiteAssociationRoute(s),
	}
}
